package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DESIGN_MAX_BYTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(25*1024*1024), cfg.Design.MaxBytes)
	assert.Equal(t, 3600, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("RECONCILE_INTERVAL_SECONDS", "0")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Reconcile.IntervalSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "pod", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pod sslmode=disable", d.DSN())
}

func TestRedactedOmitsPassword(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "hunter2", Database: "pod", SSLMode: "disable"}
	assert.NotContains(t, d.Redacted(), "hunter2")
}
