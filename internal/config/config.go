package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Ganjoor     GanjoorConfig     `yaml:"ganjoor"`
	SearchIndex SearchIndexConfig `yaml:"search_index"`
	Mailer      MailerConfig      `yaml:"mailer"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// GanjoorConfig holds the upstream poetry API settings.
type GanjoorConfig struct {
	BaseURL string `yaml:"base_url" env:"GANJOOR_BASE_URL" env-default:"https://api.ganjoor.net"`
}

// SearchIndexConfig holds the full-text index build settings.
type SearchIndexConfig struct {
	Enabled       bool          `yaml:"enabled"        env:"SEARCH_INDEX_ENABLED"        env-default:"true"`
	StorePath     string        `yaml:"store_path"     env:"SEARCH_INDEX_STORE_PATH"     env-default:"./data"`
	TopPoets      int           `yaml:"top_poets"      env:"SEARCH_INDEX_TOP_POETS"      env-default:"20"`
	BatchSize     int           `yaml:"batch_size"     env:"SEARCH_INDEX_BATCH_SIZE"     env-default:"5"`
	BatchPause    time.Duration `yaml:"batch_pause"    env:"SEARCH_INDEX_BATCH_PAUSE"    env-default:"200ms"`
	SnapshotEvery int           `yaml:"snapshot_every" env:"SEARCH_INDEX_SNAPSHOT_EVERY" env-default:"3"`
}

// MailerConfig holds contact notification settings. When Enabled is false the
// contact form stores messages without sending email.
type MailerConfig struct {
	Enabled bool   `yaml:"enabled"  env:"MAILER_ENABLED" env-default:"false"`
	BaseURL string `yaml:"base_url" env:"MAILER_BASE_URL"`
	APIKey  string `yaml:"api_key"  env:"MAILER_API_KEY"`
	From    string `yaml:"from"     env:"MAILER_FROM"`
	To      string `yaml:"to"       env:"MAILER_TO"`
}

// RateLimitConfig holds per-IP request throttling settings.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	PerMinute       int           `yaml:"per_minute"       env:"RATE_LIMIT_PER_MINUTE"       env-default:"120"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
