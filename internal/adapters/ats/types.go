package ats

import (
	"encoding/json"
	"strings"
)

// Resource is one JSON:API resource object
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]any          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Relationship carries either inline linkage data or a related link
type Relationship struct {
	Data  json.RawMessage `json:"data"`
	Links struct {
		Related string `json:"related"`
	} `json:"links"`
}

// RefID returns the id of single-resource linkage data, empty otherwise
func (r Relationship) RefID() string {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r.Data, &ref); err != nil {
		return ""
	}
	return ref.ID
}

// Document is a JSON:API response envelope. Data may be a single resource
// or a list depending on the endpoint
type Document struct {
	Data     json.RawMessage `json:"data"`
	Included []Resource      `json:"included"`
}

// One decodes Data as a single resource
func (d Document) One() (Resource, bool) {
	var res Resource
	if err := json.Unmarshal(d.Data, &res); err != nil || res.ID == "" && res.Type == "" {
		return Resource{}, false
	}
	return res, true
}

// Many decodes Data as a resource list, wrapping a lone object as a
// singleton list
func (d Document) Many() []Resource {
	var list []Resource
	if err := json.Unmarshal(d.Data, &list); err == nil {
		return list
	}
	if res, ok := d.One(); ok {
		return []Resource{res}
	}
	return nil
}

// FindIncluded returns the first included resource of the given type
func (d Document) FindIncluded(typeName string) (Resource, bool) {
	for _, r := range d.Included {
		if r.Type == typeName {
			return r, true
		}
	}
	return Resource{}, false
}

// Attr reads a string attribute, accepting both kebab-case and snake_case
// spellings of the name
func (r Resource) Attr(name string) string {
	if v := stringAttr(r.Attributes, name); v != "" {
		return v
	}
	return stringAttr(r.Attributes, strings.ReplaceAll(name, "-", "_"))
}

// AttrMap reads a nested object attribute under either spelling
func (r Resource) AttrMap(name string) map[string]any {
	for _, k := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if m, ok := r.Attributes[k].(map[string]any); ok {
			return m
		}
	}
	return nil
}

func stringAttr(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
