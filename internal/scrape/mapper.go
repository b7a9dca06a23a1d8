package scrape

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/profile-vault/internal/normalize"
	"github.com/JakeFAU/profile-vault/internal/profile"
)

// MapRaw reduces arbitrarily named source fields to the canonical
// attribute set. The source does not guarantee any single spelling, so
// each attribute coalesces its known aliases, and the three structured
// fields run through the normalizer.
func MapRaw(raw map[string]any) profile.Fields {
	fields := profile.Fields{
		Name:      asStringPtr(raw["name"]),
		FirstName: asStringPtr(raw["first_name"]),
		LastName:  asStringPtr(raw["last_name"]),
		Location:  asStringPtr(raw["location"]),
		Headline: asStringPtr(normalize.FirstNonEmpty(
			raw["headline"], raw["position"], raw["current_position"],
		)),
		Company: asStringPtr(normalize.FirstNonEmpty(
			raw["company"], raw["current_company"],
		)),
		PastCompany1: asStringPtr(normalize.FirstNonEmpty(
			raw["past_company1"], raw["past_company_1"],
		)),
		PastCompany2: asStringPtr(normalize.FirstNonEmpty(
			raw["past_company2"], raw["past_company_2"],
		)),
		School1: asStringPtr(normalize.FirstNonEmpty(
			raw["school1"], raw["school_1"],
		)),
		School2: asStringPtr(normalize.FirstNonEmpty(
			raw["school2"], raw["school_2"],
		)),
		Experiences:    normalize.Coerce(raw["experiences"]),
		Certifications: normalize.Coerce(raw["certifications"]),
	}

	fields.Skills = normalize.Coerce(raw["skills"])
	if isEmptyStructured(fields.Skills) {
		fields.Skills = topSkills(raw)
	}
	return fields
}

// topSkills synthesizes a flat skill list when the source split the
// skills into discrete top_skill_N scalars instead of a list.
func topSkills(raw map[string]any) any {
	var tops []any
	for _, key := range []string{"top_skill_1", "top_skill_2", "top_skill_3"} {
		v := raw[key]
		if v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			continue
		}
		tops = append(tops, s)
	}
	if len(tops) == 0 {
		return nil
	}
	return tops
}

func isEmptyStructured(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

func asStringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return nil
	}
	return &s
}
