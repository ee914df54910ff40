// internal/wizard/fields.go
package wizard

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

type Field string

const (
	FieldName              Field = "name"
	FieldEmail             Field = "email"
	FieldPhone             Field = "phone"
	FieldCompanyName       Field = "company_name"
	FieldWebsite           Field = "website"
	FieldCountry           Field = "country"
	FieldWhyInterested     Field = "why_interested"
	FieldYearsExperience   Field = "years_experience"
	FieldTeamSize          Field = "team_size"
	FieldRevenueGoal       Field = "revenue_goal"
	FieldEntityType        Field = "entity_type"
	FieldPartnerRoles      Field = "partner_roles"
	FieldMarketingChannels Field = "marketing_channels"
	FieldPartnershipGoals  Field = "partnership_goals"
)

type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindEnum   Kind = "enum"
	KindList   Kind = "list"
)

// Option catalogs for enum and list fields.
var (
	EntityTypes = []string{"individual", "company"}

	PartnerRoleOptions = []string{
		"reseller", "affiliate", "white_label", "referral", "integration", "distributor",
	}
	MarketingChannelOptions = []string{
		"social_media", "email", "content", "paid_ads", "events", "seo", "direct_sales",
	}
	PartnershipGoalOptions = []string{
		"revenue_growth", "market_expansion", "product_bundling", "lead_generation", "brand_awareness",
	}
)

type fieldSpec struct {
	Kind    Kind
	Integer bool
	Options []string
}

var schema = map[Field]fieldSpec{
	FieldName:              {Kind: KindText},
	FieldEmail:             {Kind: KindText},
	FieldPhone:             {Kind: KindText},
	FieldCompanyName:       {Kind: KindText},
	FieldWebsite:           {Kind: KindText},
	FieldCountry:           {Kind: KindText},
	FieldWhyInterested:     {Kind: KindText},
	FieldYearsExperience:   {Kind: KindNumber, Integer: true},
	FieldTeamSize:          {Kind: KindNumber, Integer: true},
	FieldRevenueGoal:       {Kind: KindNumber},
	FieldEntityType:        {Kind: KindEnum, Options: EntityTypes},
	FieldPartnerRoles:      {Kind: KindList, Options: PartnerRoleOptions},
	FieldMarketingChannels: {Kind: KindList, Options: MarketingChannelOptions},
	FieldPartnershipGoals:  {Kind: KindList, Options: PartnershipGoalOptions},
}

// LookupField resolves a wire name to a schema field.
func LookupField(name string) (Field, bool) {
	f := Field(name)
	_, ok := schema[f]
	return f, ok
}

// KindOf reports the kind of a schema field.
func KindOf(f Field) (Kind, bool) {
	spec, ok := schema[f]
	return spec.Kind, ok
}

// OptionsOf returns the option catalog of an enum or list field.
func OptionsOf(f Field) []string {
	return slices.Clone(schema[f].Options)
}

// Value is a tagged union over the field kinds.
type Value struct {
	Kind   Kind     `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
	List   []string `json:"list,omitempty"`
}

func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }

func EnumValue(s string) Value { return Value{Kind: KindEnum, Text: s} }

func ListValue(items ...string) Value { return Value{Kind: KindList, List: slices.Clone(items)} }

// ParseValue converts a decoded JSON value into a typed Value for the field.
func ParseValue(f Field, raw interface{}) (Value, error) {
	spec, ok := schema[f]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	switch spec.Kind {
	case KindText, KindEnum:
		s, ok := raw.(string)
		if !ok && raw != nil {
			return Value{}, &FieldError{Field: f, Reason: "expected a string"}
		}
		return Value{Kind: spec.Kind, Text: s}, nil
	case KindNumber:
		switch n := raw.(type) {
		case float64:
			return NumberValue(n), nil
		case int:
			return NumberValue(float64(n)), nil
		case nil:
			return NumberValue(0), nil
		}
		return Value{}, &FieldError{Field: f, Reason: "expected a number"}
	case KindList:
		switch items := raw.(type) {
		case []string:
			return ListValue(items...), nil
		case []interface{}:
			list := make([]string, 0, len(items))
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					return Value{}, &FieldError{Field: f, Reason: "expected a list of strings"}
				}
				list = append(list, s)
			}
			return ListValue(list...), nil
		case nil:
			return ListValue(), nil
		}
		return Value{}, &FieldError{Field: f, Reason: "expected a list of strings"}
	}

	return Value{}, &FieldError{Field: f, Reason: "unsupported kind"}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// Draft is the application record being built across steps.
type Draft struct {
	ID          string `json:"id,omitempty"`
	ApplicantID string `json:"applicant_id"`
	ProductID   string `json:"product_id,omitempty"`
	Flavor      string `json:"flavor"`

	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CompanyName   string `json:"company_name"`
	Website       string `json:"website"`
	Country       string `json:"country"`
	WhyInterested string `json:"why_interested"`

	YearsExperience int     `json:"years_experience"`
	TeamSize        int     `json:"team_size"`
	RevenueGoal     float64 `json:"revenue_goal"`
	EntityType      string  `json:"entity_type"`

	PartnerRoles      []string `json:"partner_roles"`
	MarketingChannels []string `json:"marketing_channels"`
	PartnershipGoals  []string `json:"partnership_goals"`

	CurrentStep    int       `json:"current_step"`
	CompletedSteps []int     `json:"completed_steps"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

func (d Draft) clone() Draft {
	d.PartnerRoles = cloneList(d.PartnerRoles)
	d.MarketingChannels = cloneList(d.MarketingChannels)
	d.PartnershipGoals = cloneList(d.PartnershipGoals)
	d.CompletedSteps = slices.Clone(d.CompletedSteps)
	return d
}

func cloneList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return slices.Clone(items)
}

// Accumulator holds the in-memory draft document. It does no step
// validation; that lives in the flavor.
type Accumulator struct {
	draft Draft
	// last removal per list field, so toggling the same token straight
	// back restores its position
	removed map[Field]removal
}

type removal struct {
	token string
	index int
}

func NewAccumulator(d Draft) *Accumulator {
	return &Accumulator{draft: d.clone(), removed: make(map[Field]removal)}
}

func (a *Accumulator) Get(f Field) (Value, error) {
	spec, ok := schema[f]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	d := &a.draft
	switch f {
	case FieldName:
		return TextValue(d.Name), nil
	case FieldEmail:
		return TextValue(d.Email), nil
	case FieldPhone:
		return TextValue(d.Phone), nil
	case FieldCompanyName:
		return TextValue(d.CompanyName), nil
	case FieldWebsite:
		return TextValue(d.Website), nil
	case FieldCountry:
		return TextValue(d.Country), nil
	case FieldWhyInterested:
		return TextValue(d.WhyInterested), nil
	case FieldYearsExperience:
		return NumberValue(float64(d.YearsExperience)), nil
	case FieldTeamSize:
		return NumberValue(float64(d.TeamSize)), nil
	case FieldRevenueGoal:
		return NumberValue(d.RevenueGoal), nil
	case FieldEntityType:
		return EnumValue(d.EntityType), nil
	case FieldPartnerRoles:
		return ListValue(d.PartnerRoles...), nil
	case FieldMarketingChannels:
		return ListValue(d.MarketingChannels...), nil
	case FieldPartnershipGoals:
		return ListValue(d.PartnershipGoals...), nil
	}

	return Value{}, &FieldError{Field: f, Reason: fmt.Sprintf("no accessor for kind %s", spec.Kind)}
}

func (a *Accumulator) Set(f Field, v Value) error {
	spec, ok := schema[f]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if v.Kind != spec.Kind {
		return &FieldError{Field: f, Reason: fmt.Sprintf("expected %s value, got %s", spec.Kind, v.Kind)}
	}

	switch spec.Kind {
	case KindText:
		a.setText(f, strings.TrimSpace(v.Text))
	case KindEnum:
		// empty clears the selection
		if v.Text != "" && !slices.Contains(spec.Options, v.Text) {
			return &FieldError{Field: f, Reason: fmt.Sprintf("%q is not one of %v", v.Text, spec.Options)}
		}
		a.draft.EntityType = v.Text
	case KindNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) || v.Number < 0 {
			return &FieldError{Field: f, Reason: "must be a finite number >= 0"}
		}
		if spec.Integer && v.Number != math.Trunc(v.Number) {
			return &FieldError{Field: f, Reason: "must be a whole number"}
		}
		if spec.Integer && v.Number > math.MaxInt32 {
			return &FieldError{Field: f, Reason: fmt.Sprintf("must be at most %d", math.MaxInt32)}
		}
		a.setNumber(f, v.Number)
	case KindList:
		list := make([]string, 0, len(v.List))
		for _, token := range v.List {
			if !slices.Contains(spec.Options, token) {
				return fmt.Errorf("%w: %q for %s", ErrUnknownOption, token, f)
			}
			if !slices.Contains(list, token) {
				list = append(list, token)
			}
		}
		*a.list(f) = list
		delete(a.removed, f)
	}

	return nil
}

// ToggleListMember removes token when present, otherwise appends it.
func (a *Accumulator) ToggleListMember(f Field, token string) error {
	spec, ok := schema[f]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if spec.Kind != KindList {
		return &FieldError{Field: f, Reason: "toggle requires a list field"}
	}
	if !slices.Contains(spec.Options, token) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownOption, token, f)
	}

	list := a.list(f)
	if i := slices.Index(*list, token); i >= 0 {
		*list = slices.Delete(slices.Clone(*list), i, i+1)
		a.removed[f] = removal{token: token, index: i}
		return nil
	}

	last, undo := a.removed[f]
	delete(a.removed, f)
	if undo && last.token == token && last.index <= len(*list) {
		*list = slices.Insert(slices.Clone(*list), last.index, token)
		return nil
	}
	*list = append(slices.Clone(*list), token)
	return nil
}

// Snapshot returns a copy that shares no memory with the accumulator.
func (a *Accumulator) Snapshot() Draft {
	return a.draft.clone()
}

func (a *Accumulator) setText(f Field, s string) {
	d := &a.draft
	switch f {
	case FieldName:
		d.Name = s
	case FieldEmail:
		d.Email = s
	case FieldPhone:
		d.Phone = s
	case FieldCompanyName:
		d.CompanyName = s
	case FieldWebsite:
		d.Website = s
	case FieldCountry:
		d.Country = s
	case FieldWhyInterested:
		d.WhyInterested = s
	}
}

func (a *Accumulator) setNumber(f Field, n float64) {
	d := &a.draft
	switch f {
	case FieldYearsExperience:
		d.YearsExperience = int(n)
	case FieldTeamSize:
		d.TeamSize = int(n)
	case FieldRevenueGoal:
		d.RevenueGoal = n
	}
}

func (a *Accumulator) list(f Field) *[]string {
	d := &a.draft
	switch f {
	case FieldPartnerRoles:
		return &d.PartnerRoles
	case FieldMarketingChannels:
		return &d.MarketingChannels
	default:
		return &d.PartnershipGoals
	}
}

// setProgress is used by the wizard to keep progress metadata on the
// snapshot in sync with the step machine.
func (a *Accumulator) setProgress(id string, current int, completed []int, status Status) {
	a.draft.ID = id
	a.draft.CurrentStep = current
	a.draft.CompletedSteps = slices.Clone(completed)
	a.draft.Status = status
}
