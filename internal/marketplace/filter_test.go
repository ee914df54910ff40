// internal/marketplace/filter_test.go
package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partnerlink/partnerlink-backend/internal/models"
)

func catalog() []models.Product {
	return []models.Product{
		{Title: "Acme CRM Cloud", Description: "Sales pipeline", Category: "crm",
			Tags: models.StringArray{"saas", "sales"}, PartnershipTypes: models.StringArray{"reseller", "affiliate"}},
		{Title: "Analytics Embedded", Description: "White-label dashboards", Category: "analytics",
			Tags: models.StringArray{"saas", "dashboards"}, PartnershipTypes: models.StringArray{"white_label"}},
		{Title: "Field Kit", Description: "Rugged tablets", Category: "hardware",
			Tags: models.StringArray{"inventory"}, PartnershipTypes: models.StringArray{"distributor", "reseller"}},
	}
}

func titles(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		facets Facets
		want   []string
	}{
		{"no facets", Facets{}, []string{"Acme CRM Cloud", "Analytics Embedded", "Field Kit"}},
		{"or within facet", Facets{Categories: []string{"crm", "hardware"}}, []string{"Acme CRM Cloud", "Field Kit"}},
		{"and across facets", Facets{PartnershipTypes: []string{"reseller"}, Tags: []string{"saas"}}, []string{"Acme CRM Cloud"}},
		{"query matches description case-insensitively", Facets{Query: "WHITE-label"}, []string{"Analytics Embedded"}},
		{"query matches tags", Facets{Query: "invent"}, []string{"Field Kit"}},
		{"facet values are case-insensitive", Facets{Categories: []string{"CRM"}}, []string{"Acme CRM Cloud"}},
		{"no match", Facets{Tags: []string{"saas"}, Categories: []string{"hardware"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Filter(catalog(), tt.facets)))
		})
	}
}

func TestFacetsEmpty(t *testing.T) {
	assert.True(t, Facets{Query: "  "}.Empty())
	assert.False(t, Facets{Tags: []string{"saas"}}.Empty())
}

func TestCounts(t *testing.T) {
	counts := Counts(catalog())

	assert.Equal(t, []FacetCount{{"analytics", 1}, {"crm", 1}, {"hardware", 1}}, counts.Categories)
	assert.Equal(t, FacetCount{"reseller", 2}, counts.PartnershipTypes[0])
	assert.Equal(t, FacetCount{"saas", 2}, counts.Tags[0])
}
