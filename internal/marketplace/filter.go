// internal/marketplace/filter.go
package marketplace

import (
	"sort"
	"strings"

	"github.com/partnerlink/partnerlink-backend/internal/models"
)

// Facets is a marketplace query. Selections within one facet are OR-ed,
// facets are AND-ed, and an empty facet places no constraint.
type Facets struct {
	Query            string   `form:"q" json:"q"`
	Categories       []string `form:"category" json:"categories"`
	PartnershipTypes []string `form:"partnership_type" json:"partnership_types"`
	Tags             []string `form:"tag" json:"tags"`
}

func (f Facets) Empty() bool {
	return strings.TrimSpace(f.Query) == "" &&
		len(f.Categories) == 0 && len(f.PartnershipTypes) == 0 && len(f.Tags) == 0
}

// Filter returns the products matching every facet, in input order.
func Filter(products []models.Product, f Facets) []models.Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	categories := toSet(f.Categories)
	types := toSet(f.PartnershipTypes)
	tags := toSet(f.Tags)

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if len(categories) > 0 && !categories[strings.ToLower(p.Category)] {
			continue
		}
		if len(types) > 0 && !anyIn(p.PartnershipTypes, types) {
			continue
		}
		if len(tags) > 0 && !anyIn(p.Tags, tags) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

func matchesQuery(p models.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = true
		}
	}
	return set
}

func anyIn(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[strings.ToLower(v)] {
			return true
		}
	}
	return false
}

// FacetCount is one sidebar entry.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FacetCounts struct {
	Categories       []FacetCount `json:"categories"`
	PartnershipTypes []FacetCount `json:"partnership_types"`
	Tags             []FacetCount `json:"tags"`
}

// Counts tallies how many products carry each facet value. Entries are
// ordered by count, then value.
func Counts(products []models.Product) FacetCounts {
	categories := map[string]int{}
	types := map[string]int{}
	tags := map[string]int{}

	for _, p := range products {
		if p.Category != "" {
			categories[p.Category]++
		}
		for _, t := range unique(p.PartnershipTypes) {
			types[t]++
		}
		for _, t := range unique(p.Tags) {
			tags[t]++
		}
	}

	return FacetCounts{
		Categories:       sorted(categories),
		PartnershipTypes: sorted(types),
		Tags:             sorted(tags),
	}
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func sorted(counts map[string]int) []FacetCount {
	list := make([]FacetCount, 0, len(counts))
	for value, count := range counts {
		list = append(list, FacetCount{Value: value, Count: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Value < list[j].Value
	})
	return list
}
