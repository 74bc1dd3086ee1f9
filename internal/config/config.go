// Package config loads server settings from defaults, an optional
// gamerater.yaml and the environment, in increasing order of precedence.
//
// Nested keys map to env vars by upper-casing and replacing dots:
// database.dsn -> DATABASE_DSN. A handful of conventional names
// (PORT, DATABASE_URL, TWITCH_CLIENT_ID, SUPABASE_URL, ...) are bound too.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Supabase  SupabaseConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         int
	CORSOrigins  []string
	CookieSecure bool
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	Provider  string
	JWTSecret string
	// JWTIssuer is checked on every session token. Empty accepts any issuer.
	JWTIssuer string
	TokenTTL  time.Duration
}

type SupabaseConfig struct {
	URL     string
	AnonKey string
}

type CatalogConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// Fanout caps concurrent catalog lookups in one request.
	Fanout int
}

type RateLimitConfig struct {
	SearchRPS   float64
	SearchBurst int
}

type LogConfig struct {
	Level  string
	Format string
}

// envAliases binds conventional environment variable names to config keys.
var envAliases = map[string][]string{
	"server.port":           {"PORT"},
	"database.dsn":          {"DATABASE_DSN", "DATABASE_URL"},
	"auth.jwt_secret":       {"AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET", "JWT_SECRET"},
	"supabase.url":          {"SUPABASE_URL"},
	"supabase.anon_key":     {"SUPABASE_ANON_KEY"},
	"catalog.client_id":     {"CATALOG_CLIENT_ID", "TWITCH_CLIENT_ID"},
	"catalog.client_secret": {"CATALOG_CLIENT_SECRET", "TWITCH_CLIENT_SECRET"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cookie_secure", false)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "data/gamerater.db")

	v.SetDefault("auth.provider", ProviderLocal)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.token_ttl", "1h")

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.anon_key", "")

	v.SetDefault("catalog.base_url", "https://api.igdb.com/v4")
	v.SetDefault("catalog.token_url", "https://id.twitch.tv/oauth2/token")
	v.SetDefault("catalog.client_id", "")
	v.SetDefault("catalog.client_secret", "")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.fanout", 8)

	v.SetDefault("ratelimit.search_rps", 5.0)
	v.SetDefault("ratelimit.search_burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. With an empty path it looks for an optional
// gamerater.yaml in . and configs/; with a path the file must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gamerater")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			CORSOrigins:  v.GetStringSlice("server.cors_origins"),
			CookieSecure: v.GetBool("server.cookie_secure"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
		},
		Auth: AuthConfig{
			Provider:  strings.ToLower(v.GetString("auth.provider")),
			JWTSecret: v.GetString("auth.jwt_secret"),
			JWTIssuer: v.GetString("auth.jwt_issuer"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Supabase: SupabaseConfig{
			URL:     strings.TrimRight(v.GetString("supabase.url"), "/"),
			AnonKey: v.GetString("supabase.anon_key"),
		},
		Catalog: CatalogConfig{
			BaseURL:      v.GetString("catalog.base_url"),
			TokenURL:     v.GetString("catalog.token_url"),
			ClientID:     v.GetString("catalog.client_id"),
			ClientSecret: v.GetString("catalog.client_secret"),
			Timeout:      v.GetDuration("catalog.timeout"),
			Fanout:       v.GetInt("catalog.fanout"),
		},
		RateLimit: RateLimitConfig{
			SearchRPS:   v.GetFloat64("ratelimit.search_rps"),
			SearchBurst: v.GetInt("ratelimit.search_burst"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	// Hosted tokens carry "<project url>/auth/v1" as their issuer.
	if cfg.Auth.Provider == ProviderSupabase && cfg.Auth.JWTIssuer == "" && cfg.Supabase.URL != "" {
		cfg.Auth.JWTIssuer = cfg.Supabase.URL + "/auth/v1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Auth.Provider {
	case ProviderLocal:
	case ProviderSupabase:
		if c.Supabase.URL == "" {
			errs = append(errs, errors.New("supabase.url is required when auth.provider is supabase"))
		}
		if c.Supabase.AnonKey == "" {
			errs = append(errs, errors.New("supabase.anon_key is required when auth.provider is supabase"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.provider must be %q or %q, got %q", ProviderLocal, ProviderSupabase, c.Auth.Provider))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if c.Catalog.Fanout < 1 {
		errs = append(errs, errors.New("catalog.fanout must be at least 1"))
	}
	if c.RateLimit.SearchRPS <= 0 || c.RateLimit.SearchBurst < 1 {
		errs = append(errs, errors.New("ratelimit.search_rps and ratelimit.search_burst must be positive"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// CatalogEnabled reports whether catalog credentials were supplied.
func (c *Config) CatalogEnabled() bool {
	return c.Catalog.ClientID != "" && c.Catalog.ClientSecret != ""
}
