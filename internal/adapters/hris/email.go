package hris

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	perr "hrhub/internal/platform/errors"
)

// Slug lowercases, strips diacritics, and drops every non-alphanumeric rune.
// "María Ñuño" becomes "marianuno"
func Slug(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(ascii) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UniqueWorkEmail derives first.last@domain from the candidate names, probes
// every existing work and personal address in the HRIS, and appends 2..999
// until the address is free. Empty domain disables assignment
func (c *Client) UniqueWorkEmail(ctx context.Context, firstName, lastName, domain string) (string, error) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
	if domain == "" {
		return "", nil
	}

	var parts []string
	for _, p := range []string{Slug(firstName), Slug(lastName)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	base := strings.Trim(strings.Join(parts, "."), ".")
	if base == "" {
		base = "team"
	}

	existing := map[string]bool{}
	err := c.ForEachPerson(ctx, EmailFields, func(p Person) error {
		if e := strings.ToLower(strings.TrimSpace(p.WorkEmail)); e != "" {
			existing[e] = true
		}
		if e := strings.ToLower(strings.TrimSpace(p.PersonalEmail)); e != "" {
			existing[e] = true
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	candidate := base + "@" + domain
	if !existing[candidate] {
		return candidate, nil
	}
	for i := 2; i < 1000; i++ {
		candidate = fmt.Sprintf("%s%d@%s", base, i, domain)
		if !existing[candidate] {
			return candidate, nil
		}
	}
	return "", perr.Conflictf("no free work email under domain %s", domain)
}
