package hris

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field projections for the v2 person listing. The API flattens dot paths
// into literal keys, so the record structs tag them verbatim

// PeopleFields projects what the snapshot export needs
const PeopleFields = "id,contact.employee,jobId,contact.workEmail," +
	"manager.contact.workEmail,name.first,name.last,name.pref,name.preflast," +
	"address.city,address.country,title,seniority,startDateOrg,endDateOrg," +
	"department.name,gender,employmentType"

// CompensationFields projects what the compensation sync needs
const CompensationFields = "id,contact.workEmail,contact.personalEmail," +
	"name.first,name.last,name.full,comp.costtocompany,comp.currency," +
	"employmentType,employment"

// OnboardFields projects what the onboarding window reconcile needs
const OnboardFields = "id,contact.employee,jobId,employmentType," +
	"contact.workEmail,contact.personalEmail,name.first,name.last,name.pref," +
	"name.preflast,name.full,manager.contact.workEmail,startDateOrg,endDateOrg"

// EmailFields projects only the email columns for uniqueness probes
const EmailFields = "contact.workEmail,contact.personalEmail"

// Flex is a float that tolerates JSON numbers, numeric strings, and null
type Flex float64

// UnmarshalJSON implements json.Unmarshaler
func (f *Flex) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = Flex(v)
	return nil
}

// Person is a flattened v2 person record; unprojected fields stay zero
type Person struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"contact.employee"`
	JobID            string `json:"jobId"`
	WorkEmail        string `json:"contact.workEmail"`
	PersonalEmail    string `json:"contact.personalEmail"`
	ManagerWorkEmail string `json:"manager.contact.workEmail"`
	NameFirst        string `json:"name.first"`
	NameLast         string `json:"name.last"`
	NamePref         string `json:"name.pref"`
	NamePrefLast     string `json:"name.preflast"`
	NameFull         string `json:"name.full"`
	City             string `json:"address.city"`
	Country          string `json:"address.country"`
	Title            string `json:"title"`
	Seniority        string `json:"seniority"`
	StartDateOrg     string `json:"startDateOrg"`
	EndDateOrg       string `json:"endDateOrg"`
	Department       string `json:"department.name"`
	Gender           string `json:"gender"`
	EmploymentType   string `json:"employmentType"`
	Employment       string `json:"employment"`
	CostToCompany    Flex   `json:"comp.costtocompany"`
	CompCurrency     string `json:"comp.currency"`
}

// PrimaryEmail prefers the work address over the personal one
func (p Person) PrimaryEmail() string {
	if e := strings.TrimSpace(p.WorkEmail); e != "" {
		return e
	}
	return strings.TrimSpace(p.PersonalEmail)
}

// DisplayName prefers preferred names and falls back to legal ones
func (p Person) DisplayName() string {
	first := strings.TrimSpace(p.NamePref)
	if first == "" {
		first = strings.TrimSpace(p.NameFirst)
	}
	last := strings.TrimSpace(p.NamePrefLast)
	if last == "" {
		last = strings.TrimSpace(p.NameLast)
	}
	if full := strings.TrimSpace(p.NameFull); full != "" && first == "" && last == "" {
		return full
	}
	return strings.TrimSpace(first + " " + last)
}

// pageEnvelope is the common paged list response shape
type pageEnvelope struct {
	Data json.RawMessage `json:"data"`
	Next string          `json:"next"`
}

// Contact is one entry of a person's modern contacts collection
type Contact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DetailPerson is the nested v1/v2 person detail shape used by time-off
// enrichment and webhook-driven lookups
type DetailPerson struct {
	ID       string            `json:"id"`
	Name     any               `json:"name"`
	Title    string            `json:"title"`
	Contacts []Contact         `json:"contacts"`
	Contact  map[string]string `json:"contact"`
	Fields   map[string]any    `json:"fields"`
}

// Email prefers WORK_EMAIL then HOME_EMAIL contacts, then legacy contact keys
func (p DetailPerson) Email() string {
	for _, typ := range []string{"WORK_EMAIL", "HOME_EMAIL"} {
		for _, c := range p.Contacts {
			if c.Type == typ && strings.TrimSpace(c.Value) != "" {
				return strings.TrimSpace(c.Value)
			}
		}
	}
	for _, key := range []string{"workemail", "personalemail"} {
		if v := strings.TrimSpace(p.Contact[key]); v != "" {
			return v
		}
	}
	return ""
}

// DisplayName renders the polymorphic name attribute (string or name object)
func (p DetailPerson) DisplayName() string {
	switch n := p.Name.(type) {
	case string:
		return strings.TrimSpace(n)
	case map[string]any:
		if full, _ := n["full"].(string); full != "" {
			return strings.TrimSpace(full)
		}
		first, _ := n["first"].(string)
		last, _ := n["last"].(string)
		return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	default:
		return ""
	}
}

// Timeoff is one v1 time-off entry, with enrichment fields filled in by the
// windowed fetch when the person batch lookup resolves
type Timeoff struct {
	ID        string         `json:"id"`
	PersonID  string         `json:"personId"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Status    string         `json:"status"`
	Reason    string         `json:"reason"`
	Type      string         `json:"type"`
	Fields    map[string]any `json:"fields"`
	Person    *DetailPerson  `json:"person"`

	PersonEmail string `json:"personEmail,omitempty"`
	PersonName  string `json:"personName,omitempty"`
	PersonTitle string `json:"personTitle,omitempty"`
}

// field returns a stringified fields value
func (t Timeoff) field(key string) string {
	v, ok := t.Fields[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

// Start returns the normalized YYYY-MM-DD start date, empty when absent
func (t Timeoff) Start() string {
	if s := t.field("start date"); s != "" {
		return NormDate(s)
	}
	return NormDate(t.StartDate)
}

// End returns the normalized YYYY-MM-DD end date, empty when absent
func (t Timeoff) End() string {
	if s := t.field("end date"); s != "" {
		return NormDate(s)
	}
	return NormDate(t.EndDate)
}

// ReasonOrType prefers the explicit reason over the category type string
func (t Timeoff) ReasonOrType() string {
	if r := strings.TrimSpace(t.Reason); r != "" {
		return r
	}
	if r := t.field("reason"); r != "" {
		return r
	}
	if r := strings.TrimSpace(t.Type); r != "" {
		return r
	}
	return t.field("type")
}

// OwnerEmail resolves the embedded person email: enrichment first, then the
// nested person record, then legacy field keys
func (t Timeoff) OwnerEmail() string {
	if e := strings.TrimSpace(t.PersonEmail); e != "" {
		return e
	}
	if t.Person != nil {
		if e := t.Person.Email(); e != "" {
			return e
		}
	}
	for _, key := range []string{
		"person contact workemail", "contact workemail",
		"person contact personalemail", "contact personalemail",
	} {
		if e := t.field(key); e != "" {
			return e
		}
	}
	return ""
}

// NormDate truncates ISO datetimes to YYYY-MM-DD and passes other values through
func NormDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

// Job is the v2 job detail projection
type Job struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Open       string         `json:"open"`
	Employment string         `json:"employment"`
	Fields     map[string]any `json:"fields"`
}

// ImportResult reports a submitted CSV import
type ImportResult struct {
	ImportID  string `json:"importId"`
	Rows      int    `json:"rows"`
	Submitted bool   `json:"submitted"`
	Reason    string `json:"reason,omitempty"`
}

// PersonSummary is the enrichment projection from the batched v1 ids lookup
type PersonSummary struct {
	Email string
	Name  string
	Title string
}
