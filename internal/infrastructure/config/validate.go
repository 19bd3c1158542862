package config

import (
	"errors"
	"fmt"
	"slices"
)

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	db := c.Database
	if !slices.Contains([]string{DriverPostgres, DriverMySQL, DriverSQLite}, db.Driver) {
		fail("database.driver must be one of postgres, mysql, sqlite, got %q", db.Driver)
	}
	if db.MaxOpenConns <= 0 {
		fail("database.max_open_conns must be positive")
	}
	if db.MaxIdleConns < 0 || db.MaxIdleConns > db.MaxOpenConns {
		fail("database.max_idle_conns must be between 0 and max_open_conns (%d), got %d", db.MaxOpenConns, db.MaxIdleConns)
	}

	switch c.Numbering.Backend {
	case NumberingBackendDB:
	case NumberingBackendRedis:
		if !c.Redis.Enabled {
			fail("numbering.backend=redis requires redis.enabled")
		}
	default:
		fail("numbering.backend must be db or redis, got %q", c.Numbering.Backend)
	}
	if c.Numbering.Padding < 1 || c.Numbering.Padding > 12 {
		fail("numbering.padding must be between 1 and 12")
	}
	if c.Transfer.LockEnabled && !c.Redis.Enabled {
		fail("transfer.lock_enabled requires redis.enabled")
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		fail("telemetry.sampling_ratio must be between 0 and 1, got %g", r)
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			fail("jwt.secret must be at least 32 characters in production")
		}
		if db.Driver == DriverSQLite {
			fail("database.driver sqlite is not supported in production")
		}
		if db.Password == "" {
			fail("database.password is required in production")
		}
		if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
			fail("http.cors_allow_origins cannot contain '*' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			fail("telemetry.db_log_full_sql must be false in production")
		}
	}
	return errors.Join(errs...)
}
