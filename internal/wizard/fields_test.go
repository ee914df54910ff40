// internal/wizard/fields_test.go
package wizard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorSetAndGet(t *testing.T) {
	acc := NewAccumulator(Draft{})

	require.NoError(t, acc.Set(FieldName, TextValue("  Ada Lovelace ")))
	require.NoError(t, acc.Set(FieldYearsExperience, NumberValue(7)))
	require.NoError(t, acc.Set(FieldRevenueGoal, NumberValue(12500.5)))
	require.NoError(t, acc.Set(FieldEntityType, EnumValue("company")))

	name, err := acc.Get(FieldName)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name.Text)

	years, _ := acc.Get(FieldYearsExperience)
	assert.Equal(t, float64(7), years.Number)

	snap := acc.Snapshot()
	assert.Equal(t, 12500.5, snap.RevenueGoal)
	assert.Equal(t, "company", snap.EntityType)
}

func TestAccumulatorRejectsBadValues(t *testing.T) {
	acc := NewAccumulator(Draft{})

	tests := []struct {
		name  string
		field Field
		value Value
	}{
		{"wrong kind", FieldName, NumberValue(1)},
		{"negative number", FieldTeamSize, NumberValue(-1)},
		{"fractional integer", FieldTeamSize, NumberValue(2.5)},
		{"integer overflow", FieldYearsExperience, NumberValue(1e300)},
		{"just past int32", FieldTeamSize, NumberValue(math.MaxInt32 + 1)},
		{"not a number", FieldRevenueGoal, NumberValue(math.NaN())},
		{"unknown enum", FieldEntityType, EnumValue("government")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ferr *FieldError
			assert.ErrorAs(t, acc.Set(tt.field, tt.value), &ferr)
		})
	}

	assert.Zero(t, acc.Snapshot().YearsExperience)
	assert.NoError(t, acc.Set(FieldTeamSize, NumberValue(math.MaxInt32)))
	assert.Equal(t, math.MaxInt32, acc.Snapshot().TeamSize)
	assert.NoError(t, acc.Set(FieldRevenueGoal, NumberValue(1e300)))

	assert.ErrorIs(t, acc.Set(Field("nickname"), TextValue("x")), ErrUnknownField)
	assert.ErrorIs(t, acc.Set(FieldPartnerRoles, ListValue("franchise")), ErrUnknownOption)
}

func TestAccumulatorListSetDeduplicates(t *testing.T) {
	acc := NewAccumulator(Draft{})
	require.NoError(t, acc.Set(FieldMarketingChannels, ListValue("seo", "email", "seo", "events")))

	v, _ := acc.Get(FieldMarketingChannels)
	assert.Equal(t, []string{"seo", "email", "events"}, v.List)
}

func TestToggleRemovesThenAppends(t *testing.T) {
	acc := NewAccumulator(Draft{})

	require.NoError(t, acc.ToggleListMember(FieldPartnerRoles, "reseller"))
	require.NoError(t, acc.ToggleListMember(FieldPartnerRoles, "affiliate"))
	require.NoError(t, acc.ToggleListMember(FieldPartnerRoles, "reseller"))

	assert.Equal(t, []string{"affiliate"}, acc.Snapshot().PartnerRoles)
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	original := []string{"reseller", "affiliate", "white_label"}

	for _, token := range append(original, "referral") {
		acc := NewAccumulator(Draft{PartnerRoles: original})

		require.NoError(t, acc.ToggleListMember(FieldPartnerRoles, token))
		require.NoError(t, acc.ToggleListMember(FieldPartnerRoles, token))

		assert.Equal(t, original, acc.Snapshot().PartnerRoles, "token %s", token)
	}
}

func TestToggleRequiresListField(t *testing.T) {
	acc := NewAccumulator(Draft{})

	var ferr *FieldError
	assert.ErrorAs(t, acc.ToggleListMember(FieldName, "x"), &ferr)
	assert.ErrorIs(t, acc.ToggleListMember(FieldPartnershipGoals, "world_peace"), ErrUnknownOption)
}

func TestSnapshotSharesNoMemory(t *testing.T) {
	acc := NewAccumulator(Draft{})
	require.NoError(t, acc.Set(FieldPartnershipGoals, ListValue("revenue_growth")))

	snap := acc.Snapshot()
	snap.PartnershipGoals[0] = "tampered"

	assert.Equal(t, []string{"revenue_growth"}, acc.Snapshot().PartnershipGoals)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(FieldPartnerRoles, []interface{}{"reseller", "referral"})
	require.NoError(t, err)
	assert.Equal(t, ListValue("reseller", "referral"), v)

	v, err = ParseValue(FieldTeamSize, float64(12))
	require.NoError(t, err)
	assert.Equal(t, NumberValue(12), v)

	v, err = ParseValue(FieldEntityType, "individual")
	require.NoError(t, err)
	assert.Equal(t, EnumValue("individual"), v)

	_, err = ParseValue(FieldName, 3.0)
	assert.Error(t, err)

	_, err = ParseValue(FieldPartnerRoles, []interface{}{"reseller", 1.0})
	assert.Error(t, err)

	_, err = ParseValue(Field("nickname"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}
