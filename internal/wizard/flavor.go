// internal/wizard/flavor.go
package wizard

import (
	"fmt"
	"sort"
	"strings"
)

// Step keys shared by the flavors.
const (
	StepContact          = "contact"
	StepBusiness         = "business"
	StepCompany          = "company"
	StepExperience       = "experience"
	StepPartnershipRoles = "partnership_roles"
	StepMarketing        = "marketing"
	StepChannelsGoals    = "channels_goals"
	StepPrograms         = "programs"
	StepReview           = "review"
)

type StepDef struct {
	Number int     `json:"number"`
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Flavor is one concrete wizard: a fixed, ordered list of steps.
type Flavor struct {
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	RequiresTarget bool      `json:"requires_product"`
	Steps          []StepDef `json:"steps"`
}

func (f Flavor) TotalSteps() int { return len(f.Steps) }

// Step returns the definition of a 1-based step number.
func (f Flavor) Step(n int) (StepDef, bool) {
	if n < 1 || n > len(f.Steps) {
		return StepDef{}, false
	}
	return f.Steps[n-1], true
}

// Validate applies the required-field policy of step n to the snapshot.
//
// contact requires email and name; partnership_roles requires at least one
// role. Every other step has no required-field gate.
func (f Flavor) Validate(n int, d Draft) ValidationResult {
	step, ok := f.Step(n)
	if !ok {
		return ValidationResult{}
	}

	var missing []string
	switch step.Key {
	case StepContact:
		if strings.TrimSpace(d.Email) == "" {
			missing = append(missing, string(FieldEmail))
		}
		if strings.TrimSpace(d.Name) == "" {
			missing = append(missing, string(FieldName))
		}
	case StepPartnershipRoles:
		if len(d.PartnerRoles) == 0 {
			missing = append(missing, string(FieldPartnerRoles))
		}
	}

	return ValidationResult{Missing: missing}
}

func steps(defs ...StepDef) []StepDef {
	for i := range defs {
		defs[i].Number = i + 1
	}
	return defs
}

var (
	contactStep = StepDef{Key: StepContact, Title: "Contact details",
		Fields: []Field{FieldName, FieldEmail, FieldPhone}}
	rolesStep = StepDef{Key: StepPartnershipRoles, Title: "Partnership roles",
		Fields: []Field{FieldPartnerRoles}}
	reviewStep = StepDef{Key: StepReview, Title: "Review and submit",
		Fields: []Field{FieldWhyInterested}}
)

var flavors = map[string]Flavor{
	"partner_application": {
		Name:           "partner_application",
		Title:          "Apply to partner on a product",
		RequiresTarget: true,
		Steps: steps(
			contactStep,
			StepDef{Key: StepBusiness, Title: "Your business",
				Fields: []Field{FieldEntityType, FieldCompanyName, FieldWebsite, FieldCountry, FieldYearsExperience, FieldTeamSize}},
			rolesStep,
			StepDef{Key: StepMarketing, Title: "Marketing plan",
				Fields: []Field{FieldMarketingChannels, FieldPartnershipGoals, FieldRevenueGoal}},
			reviewStep,
		),
	},
	"partner_profile": {
		Name:  "partner_profile",
		Title: "Create your partner profile",
		Steps: steps(
			contactStep,
			StepDef{Key: StepCompany, Title: "Company",
				Fields: []Field{FieldEntityType, FieldCompanyName, FieldWebsite, FieldCountry}},
			StepDef{Key: StepExperience, Title: "Experience",
				Fields: []Field{FieldYearsExperience, FieldTeamSize, FieldRevenueGoal}},
			rolesStep,
			StepDef{Key: StepChannelsGoals, Title: "Channels and goals",
				Fields: []Field{FieldMarketingChannels, FieldPartnershipGoals}},
			reviewStep,
		),
	},
	"vendor_onboarding": {
		Name:  "vendor_onboarding",
		Title: "Set up your vendor program",
		Steps: steps(
			contactStep,
			StepDef{Key: StepCompany, Title: "Company",
				Fields: []Field{FieldEntityType, FieldCompanyName, FieldWebsite, FieldCountry, FieldTeamSize}},
			StepDef{Key: StepPrograms, Title: "Partner programs",
				Fields: []Field{FieldPartnershipGoals, FieldMarketingChannels}},
			reviewStep,
		),
	},
}

// LookupFlavor returns a copy of a registered flavor.
func LookupFlavor(name string) (Flavor, error) {
	f, ok := flavors[name]
	if !ok {
		return Flavor{}, fmt.Errorf("%w: %s", ErrUnknownFlavor, name)
	}
	f.Steps = append([]StepDef(nil), f.Steps...)
	return f, nil
}

// Flavors lists every registered flavor ordered by name.
func Flavors() []Flavor {
	list := make([]Flavor, 0, len(flavors))
	for _, f := range flavors {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
