// Package profile defines the canonical professional-profile record and
// its identity helpers.
package profile

import (
	"strings"
	"time"
)

// Fields holds every mutable attribute of a profile. Pointer types keep
// "absent" distinguishable from "empty" so a refresh can overwrite a
// column with NULL. The three structured fields are semi-schemaless: the
// source does not fix their attribute set, so they hold whatever the
// normalizer produced (a slice, a map, or a raw unparsed string).
type Fields struct {
	Name         *string
	FirstName    *string
	LastName     *string
	Location     *string
	Headline     *string
	Company      *string
	PastCompany1 *string
	PastCompany2 *string
	School1      *string
	School2      *string

	Skills         any
	Experiences    any
	Certifications any
}

// Record is a persisted profile row. LinkedInURL is the sole identity key
// callers see; LastUpdated is stamped by the store on every write and is
// the only input to freshness decisions.
type Record struct {
	LinkedInURL string
	Fields
	LastUpdated time.Time
}

// ToMap serializes the record into the canonical wire shape. The attribute
// set is enumerated by hand so the output stays decoupled from whatever
// the storage layer happens to call its columns.
func (r *Record) ToMap() map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"linkedin_url":   r.LinkedInURL,
		"name":           strValue(r.Name),
		"first_name":     strValue(r.FirstName),
		"last_name":      strValue(r.LastName),
		"location":       strValue(r.Location),
		"headline":       strValue(r.Headline),
		"company":        strValue(r.Company),
		"past_company1":  strValue(r.PastCompany1),
		"past_company2":  strValue(r.PastCompany2),
		"school1":        strValue(r.School1),
		"school2":        strValue(r.School2),
		"skills":         r.Skills,
		"experiences":    r.Experiences,
		"certifications": r.Certifications,
		"last_updated":   r.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func strValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ExternalIDFromURL derives the scrape identifier from a profile URL:
// the trailing path segment, e.g.
// https://www.linkedin.com/in/sonupatel-a-l -> sonupatel-a-l.
func ExternalIDFromURL(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
