package scrape

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractRaw pulls profile fields out of a fetched page. Public profile
// pages embed a schema.org Person object in application/ld+json script
// blocks; that is the only part of the page this package interprets.
// Returns an empty map when no person data is present.
func ExtractRaw(body []byte) map[string]any {
	for _, block := range ldJSONBlocks(string(body)) {
		var doc any
		if err := json.Unmarshal([]byte(block), &doc); err != nil {
			continue
		}
		if person := findPerson(doc); person != nil {
			return personToRaw(person)
		}
	}
	return map[string]any{}
}

// ldJSONBlocks returns the contents of every ld+json script tag.
func ldJSONBlocks(page string) []string {
	const marker = "application/ld+json"
	var blocks []string
	lower := strings.ToLower(page)
	searchPos := 0
	for {
		idx := strings.Index(lower[searchPos:], marker)
		if idx == -1 {
			return blocks
		}
		start := searchPos + idx
		open := strings.IndexByte(lower[start:], '>')
		if open == -1 {
			return blocks
		}
		contentStart := start + open + 1
		end := strings.Index(lower[contentStart:], "</script>")
		if end == -1 {
			return blocks
		}
		blocks = append(blocks, page[contentStart:contentStart+end])
		searchPos = contentStart + end
	}
}

// findPerson walks an ld+json document (possibly an @graph array) looking
// for the Person node.
func findPerson(doc any) map[string]any {
	switch v := doc.(type) {
	case map[string]any:
		if t, _ := v["@type"].(string); strings.EqualFold(t, "Person") {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findPerson(graph)
		}
	case []any:
		for _, item := range v {
			if person := findPerson(item); person != nil {
				return person
			}
		}
	}
	return nil
}

// personToRaw flattens the schema.org Person node into the loosely keyed
// field map the mapper consumes.
func personToRaw(person map[string]any) map[string]any {
	raw := map[string]any{
		"name":     person["name"],
		"headline": person["jobTitle"],
		"location": addressLocality(person["address"]),
	}
	if first, last, ok := splitName(person["name"]); ok {
		raw["first_name"] = first
		raw["last_name"] = last
	}

	companies := orgNames(person["worksFor"])
	if len(companies) > 0 {
		raw["company"] = companies[0]
	}
	if len(companies) > 1 {
		raw["past_company1"] = companies[1]
	}
	if len(companies) > 2 {
		raw["past_company2"] = companies[2]
	}

	schools := orgNames(person["alumniOf"])
	if len(schools) > 0 {
		raw["school1"] = schools[0]
	}
	if len(schools) > 1 {
		raw["school2"] = schools[1]
	}

	if skills := person["knowsAbout"]; skills != nil {
		raw["skills"] = skills
	}
	if creds := person["hasCredential"]; creds != nil {
		raw["certifications"] = creds
	}
	if jobs := person["hasOccupation"]; jobs != nil {
		raw["experiences"] = jobs
	}

	for k, v := range raw {
		if v == nil {
			delete(raw, k)
		}
	}
	return raw
}

func splitName(v any) (string, string, bool) {
	name, ok := v.(string)
	if !ok {
		return "", "", false
	}
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], strings.Join(parts[1:], " "), true
}

func addressLocality(v any) any {
	addr, ok := v.(map[string]any)
	if !ok {
		return v
	}
	locality, _ := addr["addressLocality"].(string)
	region, _ := addr["addressRegion"].(string)
	switch {
	case locality != "" && region != "":
		return fmt.Sprintf("%s, %s", locality, region)
	case locality != "":
		return locality
	case region != "":
		return region
	}
	return nil
}

// orgNames renders worksFor/alumniOf entries (objects or strings) to names.
func orgNames(v any) []string {
	var out []string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(val) != "" {
			out = append(out, val)
		}
	case map[string]any:
		if name, _ := val["name"].(string); name != "" {
			out = append(out, name)
		}
	case []any:
		for _, item := range val {
			out = append(out, orgNames(item)...)
		}
	}
	return out
}
