// internal/config/database.go
package config

import (
	"fmt"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Redacted is the DSN without credentials, safe for logs.
func (d *DatabaseConfig) Redacted() string {
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", d.User, d.Host, d.Port, d.Database, d.SSLMode)
}
