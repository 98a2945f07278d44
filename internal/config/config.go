package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// DevSecret is only acceptable in offline mode.
const DevSecret = "supersecret-dev-key"

var ErrInsecureSecret = errors.New("auth.hmac_secret must be set in online mode")

type Config struct {
	Env      string `mapstructure:"env"` // development|production, selects the log encoder
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`
	SiteID   string `mapstructure:"site_id"` // tags revalidation events

	DB   DB   `mapstructure:"db"`
	Auth Auth `mapstructure:"auth"`
	CORS CORS `mapstructure:"cors"`
	HTTP HTTP `mapstructure:"http"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite|postgres
	DSN    string `mapstructure:"dsn"`
}

// Auth verifies tokens minted by the hosted auth backend (HS256 shared secret).
type Auth struct {
	HMACSecret string `mapstructure:"hmac_secret"`
	Issuer     string `mapstructure:"issuer"` // optional; checked when set
}

type CORS struct {
	OriginsOnline  string `mapstructure:"origins_online"`
	OriginsOffline string `mapstructure:"origins_offline"`
}

type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Origins returns the allowed CORS origins for the configured mode.
func (c Config) Origins() []string {
	if c.Mode == ModeOnline {
		return csv(c.CORS.OriginsOnline)
	}
	return csv(c.CORS.OriginsOffline)
}

// Load reads an optional .env, an optional config/config.yaml and the
// environment, in increasing order of precedence. Nested keys map to
// upper-case env names with "_" (db.dsn -> DB_DSN).
func Load(configPaths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetDefault("env", "development")
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("site_id", "local")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("auth.hmac_secret", DevSecret)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("cors.origins_online", "https://lessons.mindengage.ai")
	v.SetDefault("cors.origins_offline", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("http.timeout", "30s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	switch cfg.Mode {
	case ModeOffline, ModeOnline:
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeOnline && (cfg.Auth.HMACSecret == "" || cfg.Auth.HMACSecret == DevSecret) {
		return nil, ErrInsecureSecret
	}
	return &cfg, nil
}

func csv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
