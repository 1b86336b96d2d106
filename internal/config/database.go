package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Database holds what both the API and the migrator need to reach postgres.
type Database struct {
	URL                   string
	DisablePreparedBinary bool
}

func (c Config) Database() Database {
	return Database{URL: c.DBURL, DisablePreparedBinary: c.DBDisablePreparedBinary}
}

// LoadDatabase reads only the database settings. DB_URL is required.
func LoadDatabase() (Database, error) {
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if dbURL == "" {
		return Database{}, fmt.Errorf("DB_URL is required")
	}
	disable, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Database{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	return Database{URL: dbURL, DisablePreparedBinary: disable}, nil
}

// DSN returns the connection string with disable_prepared_binary_result=yes
// appended when enabled and not already set.
func (d Database) DSN() string {
	raw := strings.TrimSpace(d.URL)
	if !d.DisablePreparedBinary {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// Name extracts the database name from URL or key=value style DSNs.
func (d Database) Name() string {
	trimmed := strings.TrimSpace(d.URL)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		name, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name = strings.Trim(strings.TrimSpace(name), `"'`); name != "" {
			return name
		}
	}
	return ""
}
