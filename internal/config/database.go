// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

// DSN renders the postgres keyword/value connection string. Values with
// spaces or quotes are quoted the way libpq expects.
func (d *DatabaseConfig) DSN() string {
	pairs := []struct{ key, value string }{
		{"host", d.Host},
		{"port", d.Port},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Database},
		{"sslmode", d.SSLMode},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" && p.key != "password" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSNValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func (d *DatabaseConfig) validate(production bool) error {
	switch d.Driver {
	case "sqlite":
		if d.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
		if production {
			return fmt.Errorf("the sqlite driver is for local development only")
		}
	case "postgres", "":
		if d.Password == "" && production {
			return fmt.Errorf("database password is required in production")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	return nil
}
