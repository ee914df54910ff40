// cmd/partnerctl/commands_test.go
package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerlink/partnerlink-backend/internal/database"
)

func TestResolveAccountID(t *testing.T) {
	id, err := resolveAccountID("vendor")
	require.NoError(t, err)
	assert.Equal(t, database.SeedVendorID, id)

	explicit := uuid.New()
	id, err = resolveAccountID(explicit.String())
	require.NoError(t, err)
	assert.Equal(t, explicit, id)

	_, err = resolveAccountID("root")
	assert.Error(t, err)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"migrate", "seed", "token"} {
		assert.True(t, names[want], want)
	}
}
