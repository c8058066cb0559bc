package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
	LogColor  bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// DatabaseURL enables the Postgres audit trail. Empty means no database.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("ALTCHA_HTTP_ADDR", "127.0.0.1:8080"),
		LogLevel:  EnvString("ALTCHA_LOG_LEVEL", "info"),
		LogFormat: EnvString("ALTCHA_LOG_FORMAT", "json"),
		LogColor:  EnvBool("ALTCHA_LOG_COLOR", false),

		ReadHeaderTimeout: EnvDuration("ALTCHA_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ALTCHA_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ALTCHA_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("ALTCHA_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("ALTCHA_HTTP_MAX_HEADER_BYTES", 1<<20),

		CORSAllowedOrigins:   EnvList("ALTCHA_CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowCredentials: EnvBool("ALTCHA_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("ALTCHA_CORS_MAX_AGE_SECONDS", 600),

		DatabaseURL: EnvString("ALTCHA_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("ALTCHA_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("ALTCHA_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("ALTCHA_READINESS_REQUIRE_DB", false),
	}
}
