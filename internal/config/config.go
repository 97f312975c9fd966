package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Profile names a deployment target. The two profiles differ only in their
// defaults: local serves on 8000 without touching the schema, hosted serves
// on 10000 and upgrades the schema to the latest revision before listening.
type Profile string

const (
	// LocalProfile is the development target
	LocalProfile Profile = "local"

	// HostedProfile is the hosting-platform target
	HostedProfile Profile = "hosted"
)

// Config holds all configuration settings for the application
type Config struct {
	// Profile selects the deployment target defaults
	Profile Profile `toml:"profile"`

	// Host is the bind address for the web server
	Host string `toml:"host"`

	// Port is the listening port for the web server
	Port int `toml:"port"`

	// Workers is the report worker pool size
	Workers int `toml:"workers"`

	// RunMigrations controls whether the schema is upgraded before serving
	RunMigrations bool `toml:"run_migrations"`

	// DatabasePath is the path to the SQLite database file
	DatabasePath string `toml:"database_path"`

	// JWTSecret signs access tokens
	JWTSecret string `toml:"jwt_secret"`

	// JWTIssuer is the iss claim on issued tokens
	JWTIssuer string `toml:"jwt_issuer"`

	// AccessTokenExpireSecs is the access token lifetime in seconds
	AccessTokenExpireSecs int `toml:"access_token_expire_secs"`

	// RefreshTokenExpireSecs is the refresh token lifetime in seconds
	RefreshTokenExpireSecs int `toml:"refresh_token_expire_secs"`

	// AllowedHosts guards against Host header attacks; empty allows any
	AllowedHosts []string `toml:"allowed_hosts"`

	// CORSOrigins lists origins allowed to call the API from a browser
	CORSOrigins []string `toml:"cors_origins"`

	// NewsAPIKey authenticates against newsapi.org
	NewsAPIKey string `toml:"news_api_key"`

	// SymbolAliasPath points to an optional YAML file mapping symbols to
	// company names used when searching news
	SymbolAliasPath string `toml:"symbol_alias_path"`

	// SMTP delivery settings for analysis reports
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	SMTPFrom string `toml:"smtp_from"`
}

// defaultConfig returns the default configuration for the given profile
func defaultConfig(profile Profile) *Config {
	config := &Config{
		Profile:                profile,
		Host:                   DefaultHost,
		Workers:                DefaultWorkers,
		DatabasePath:           "stockpulse.db",
		JWTIssuer:              "stockpulse",
		AccessTokenExpireSecs:  DefaultAccessTokenExpireSecs,
		RefreshTokenExpireSecs: DefaultRefreshTokenExpireSecs,
		AllowedHosts:           []string{"localhost", "127.0.0.1"},
		SMTPPort:               587,
	}

	switch profile {
	case HostedProfile:
		config.Port = DefaultHostedPort
		config.RunMigrations = true
	default:
		config.Port = DefaultLocalPort
		config.RunMigrations = false
	}

	return config
}

// Load loads the configuration from file and environment variables.
// Precedence, lowest to highest: profile defaults, config.toml, environment.
func Load() (*Config, error) {
	profile := LocalProfile
	if p := os.Getenv("STOCKPULSE_PROFILE"); p != "" {
		switch Profile(p) {
		case LocalProfile, HostedProfile:
			profile = Profile(p)
		default:
			return nil, fmt.Errorf("unknown profile %q (expected %q or %q)", p, LocalProfile, HostedProfile)
		}
	}

	config := defaultConfig(profile)

	// Try to load from config.toml if it exists
	configPath := "config.toml"
	if path := os.Getenv("STOCKPULSE_CONFIG"); path != "" {
		configPath = path
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	// Override with environment variables if set
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid PORT value %q: expected a positive integer", port)
		}
		config.Port = p
	}

	if workers := os.Getenv("WEB_CONCURRENCY"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid WEB_CONCURRENCY value %q: expected a positive integer", workers)
		}
		config.Workers = w
	}

	if run := os.Getenv("RUN_MIGRATIONS"); run != "" {
		v, err := strconv.ParseBool(run)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_MIGRATIONS value %q: %w", run, err)
		}
		config.RunMigrations = v
	}

	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}

	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		config.DatabasePath = dbPath
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWTSecret = secret
	}

	if hosts := os.Getenv("ALLOWED_HOSTS"); hosts != "" {
		config.AllowedHosts = splitList(hosts)
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = splitList(origins)
	}

	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		config.NewsAPIKey = key
	}

	if path := os.Getenv("SYMBOL_ALIAS_PATH"); path != "" {
		config.SymbolAliasPath = path
	}

	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.SMTPHost = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid SMTP_PORT value %q: expected a positive integer", port)
		}
		config.SMTPPort = p
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		config.SMTPUser = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		config.SMTPPass = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		config.SMTPFrom = from
	}

	return config, nil
}

// ListenAddr returns the host:port pair the server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Profile: %s", c.Profile))
	parts = append(parts, fmt.Sprintf("ListenAddr: %s", c.ListenAddr()))
	parts = append(parts, fmt.Sprintf("Workers: %d", c.Workers))
	parts = append(parts, fmt.Sprintf("RunMigrations: %t", c.RunMigrations))
	parts = append(parts, fmt.Sprintf("DatabasePath: %s", c.DatabasePath))
	return strings.Join(parts, ", ")
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
