// internal/wizard/store.go
package wizard

import (
	"context"
)

// ApplicationsTable is where drafts are persisted.
const ApplicationsTable = "partner_applications"

// Record is a generic structured row. List columns hold []string or
// []int64; timestamps hold time.Time; absent associations hold nil.
type Record map[string]interface{}

// Predicate is a conjunction of column = value matches.
type Predicate map[string]interface{}

// RecordStore is the external record store the adapter and finalizer
// write through. Implementations return *StoreError, wrapping
// ErrRecordNotFound when an update targets a missing id.
type RecordStore interface {
	Create(ctx context.Context, table string, fields Record) (Record, error)
	Update(ctx context.Context, table string, id string, fields Record) (Record, error)
	ListWhere(ctx context.Context, table string, where Predicate, orderBy string) ([]Record, error)
}

// IDOf extracts the identity column of a stored record.
func IDOf(r Record) string {
	switch id := r["id"].(type) {
	case string:
		return id
	case []byte:
		return string(id)
	case interface{ String() string }:
		return id.String()
	}
	return ""
}

func fieldColumns(d Draft) Record {
	return Record{
		"name":               d.Name,
		"email":              d.Email,
		"phone":              d.Phone,
		"company_name":       d.CompanyName,
		"website":            d.Website,
		"country":            d.Country,
		"why_interested":     d.WhyInterested,
		"years_experience":   d.YearsExperience,
		"team_size":          d.TeamSize,
		"revenue_goal":       d.RevenueGoal,
		"entity_type":        d.EntityType,
		"partner_roles":      cloneList(d.PartnerRoles),
		"marketing_channels": cloneList(d.MarketingChannels),
		"partnership_goals":  cloneList(d.PartnershipGoals),
	}
}

func draftRecord(d Draft, step int, completed []int) Record {
	r := fieldColumns(d)
	r["applicant_id"] = d.ApplicantID
	r["flavor"] = d.Flavor
	if d.ProductID != "" {
		r["product_id"] = d.ProductID
	} else {
		r["product_id"] = nil
	}
	r["current_step"] = step
	r["completed_steps"] = toInt64s(completed)
	status := d.Status
	if status == "" {
		status = StatusDraft
	}
	r["status"] = string(status)
	return r
}

func toInt64s(steps []int) []int64 {
	out := make([]int64, len(steps))
	for i, s := range steps {
		out[i] = int64(s)
	}
	return out
}
