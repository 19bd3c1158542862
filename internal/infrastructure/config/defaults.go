package config

import "time"

// keyValue is one default. Every key is registered, including zero
// values, so AutomaticEnv can bind it during Unmarshal.
type keyValue struct {
	key   string
	value any
}

var defaults = []keyValue{
	{"app.name", "salescore"},
	{"app.env", "development"},
	{"app.port", "8080"},
	{"app.phone_region", "MY"},

	{"database.driver", DriverPostgres},
	{"database.host", "localhost"},
	{"database.port", 0}, // chosen by driver in derive
	{"database.user", "postgres"},
	{"database.password", ""},
	{"database.dbname", "erp"},
	{"database.sslmode", "disable"},
	{"database.path", "salescore.db"},
	{"database.max_open_conns", 25},
	{"database.max_idle_conns", 5},
	{"database.conn_max_lifetime", 60},
	{"database.conn_max_idle_time", 30},

	{"redis.enabled", false},
	{"redis.host", "localhost"},
	{"redis.port", 6379},
	{"redis.password", ""},
	{"redis.db", 0},

	{"jwt.secret", ""},
	{"jwt.access_token_expiration", 15 * time.Minute},
	{"jwt.issuer", "salescore"},

	{"log.level", "info"},
	{"log.format", "console"},
	{"log.output", "stdout"},

	{"http.read_timeout", 15 * time.Second},
	// spreadsheet exports are written in one response
	{"http.write_timeout", 60 * time.Second},
	{"http.idle_timeout", 60 * time.Second},
	{"http.max_header_bytes", 1 << 20},
	{"http.max_body_size", int64(10 << 20)},
	// no wildcard: cross-origin calls stay blocked until origins are listed
	{"http.cors_allow_origins", []string{}},
	{"http.cors_allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}},
	{"http.cors_allow_headers", []string{"Content-Type", "Authorization", "X-Request-ID"}},
	{"http.trusted_proxies", []string{}},
	{"http.rate_limit_enabled", false},
	{"http.rate_limit_requests", 300},
	{"http.rate_limit_window", time.Minute},

	{"swagger.enabled", false},

	{"telemetry.enabled", false},
	{"telemetry.collector_endpoint", "localhost:4317"},
	{"telemetry.sampling_ratio", 1.0},
	{"telemetry.service_name", ""}, // app.name when empty
	{"telemetry.insecure", false},
	{"telemetry.metrics_enabled", false},
	{"telemetry.logs_enabled", false},
	{"telemetry.db_trace_enabled", false},
	{"telemetry.db_log_full_sql", false},
	{"telemetry.db_slow_query_threshold", 200 * time.Millisecond},
	{"telemetry.profiling_enabled", false},
	{"telemetry.profiling_endpoint", "http://localhost:4040"},
	{"telemetry.profiling_contention", false},

	{"permission.cache_ttl", 5 * time.Minute},
	{"permission.invalidation_channel", "salescore:permission:invalidate"},

	{"numbering.backend", NumberingBackendDB},
	{"numbering.padding", 5},

	{"transfer.lock_enabled", false},
	{"transfer.lock_ttl", 30 * time.Second},
}

type defaultSetter interface {
	SetDefault(key string, value any)
}

func setDefaults(v defaultSetter) {
	for _, kv := range defaults {
		v.SetDefault(kv.key, kv.value)
	}
}

// derive fills values that depend on other settings
func (c *Config) derive() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
		if c.Database.Driver == DriverMySQL {
			c.Database.Port = 3306
		}
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.App.Name
	}
}
