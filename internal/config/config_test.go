// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Wizard.ContinueOnPersistError)
	assert.Equal(t, 2*time.Hour, cfg.Wizard.SessionTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadWizardOverrides(t *testing.T) {
	t.Setenv("WIZARD_CONTINUE_ON_PERSIST_ERROR", "false")
	t.Setenv("WIZARD_SESSION_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.partnerlink.io, https://admin.partnerlink.io")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Wizard.ContinueOnPersistError)
	assert.Equal(t, 45*time.Minute, cfg.Wizard.SessionTTL)
	assert.Equal(t, []string{"https://app.partnerlink.io", "https://admin.partnerlink.io"}, cfg.Frontend.AllowedOrigins)
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "partnerlink", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=partnerlink sslmode=disable", d.DSN())

	d.Password = "it's secret"
	d.SSLMode = ""
	assert.Equal(t, `host=db port=5432 user=u password='it\'s secret' dbname=partnerlink`, d.DSN())

	d.Password = ""
	assert.Contains(t, d.DSN(), "password=''")
}

func TestDatabaseValidate(t *testing.T) {
	assert.NoError(t, (&DatabaseConfig{Driver: "sqlite", Path: "data/dev.db"}).validate(false))
	assert.Error(t, (&DatabaseConfig{Driver: "sqlite", Path: "data/dev.db"}).validate(true))
	assert.Error(t, (&DatabaseConfig{Driver: "sqlite"}).validate(false))
	assert.Error(t, (&DatabaseConfig{Driver: "postgres"}).validate(true))
	assert.Error(t, (&DatabaseConfig{Driver: "mysql"}).validate(false))
}
