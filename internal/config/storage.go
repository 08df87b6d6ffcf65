package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// PostgresURL builds the connection URL for the database. Both pgxpool and
// the migration runner accept this form, so it is the only one we build;
// url.UserPassword percent-encodes credentials with special characters.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, strconv.Itoa(c.PostgresPort)),
		Path:     c.PostgresDBName,
		RawQuery: "sslmode=" + c.PostgresSSLMode,
	}
	return u.String()
}

// parseDatabaseURL applies the DATABASE_URL environment variable over the
// individual postgres_* settings. The single-variable form is what cloud
// platforms inject; fields absent from the URL keep their configured values.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://, got %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port in DATABASE_URL: %w", err)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		if user := u.User.Username(); user != "" {
			c.PostgresUser = user
		}
		if password, ok := u.User.Password(); ok {
			c.PostgresPassword = password
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.PostgresDBName = name
	}
	if sslmode := u.Query().Get("sslmode"); sslmode != "" {
		c.PostgresSSLMode = sslmode
	}

	return nil
}
