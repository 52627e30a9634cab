package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "KNOWWAY_"

type AppConfig struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	JWT      JWTConfig      `koanf:"jwt"`
	Google   GoogleConfig   `koanf:"google"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	Supabase SupabaseConfig `koanf:"supabase"`
	Scraping ScrapingConfig `koanf:"scraping"`
	Redis    RedisConfig    `koanf:"redis"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	Mode            string        `koanf:"mode"` // debug, release, test
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	Driver       string `koanf:"driver"` // postgres, sqlite
	DSN          string `koanf:"dsn"`
	LogLevel     string `koanf:"log_level"` // silent, error, warn, info
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

type LogConfig struct {
	Mode string `koanf:"mode"` // development, production
}

type JWTConfig struct {
	Secret string        `koanf:"secret"`
	Expiry time.Duration `koanf:"expiry"`
}

type GoogleConfig struct {
	ClientID string `koanf:"client_id"`
}

type GeminiConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type SupabaseConfig struct {
	URL    string `koanf:"url"`
	Key    string `koanf:"key"`
	Bucket string `koanf:"bucket"`
}

type ScrapingConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	Secret     string        `koanf:"secret"`
	Timeout    time.Duration `koanf:"timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Channel  string `koanf:"channel"`
}

// plainEnv maps the unprefixed variables the deployment already sets.
var plainEnv = map[string]string{
	"PORT":              "server.port",
	"GIN_MODE":          "server.mode",
	"DATABASE_URL":      "database.dsn",
	"DB_DRIVER":         "database.driver",
	"JWT_SECRET":        "jwt.secret",
	"GOOGLE_CLIENT_ID":  "google.client_id",
	"GEMINI_API_KEY":    "gemini.api_key",
	"SUPABASE_URL":      "supabase.url",
	"SUPABASE_KEY":      "supabase.key",
	"SUPABASE_BUCKET":   "supabase.bucket",
	"N8N_WEBHOOK_URL":   "scraping.webhook_url",
	"N8N_WEBHOOK_TOKEN": "scraping.secret",
	"REDIS_ADDR":        "redis.addr",
	"REDIS_PASSWORD":    "redis.password",
}

// Load reads .env, then the optional YAML file, then the environment.
// Later sources win.
func Load(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return plainEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// KNOWWAY_SERVER__READ_TIMEOUT -> server.read_timeout
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	conf := &AppConfig{}
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	conf.applyDefaults()
	return conf, conf.validate()
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "knowway.db"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "development"
	}
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = 7 * 24 * time.Hour
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.Timeout <= 0 {
		c.Gemini.Timeout = 30 * time.Second
	}
	if c.Supabase.Bucket == "" {
		c.Supabase.Bucket = "uploads"
	}
	if c.Scraping.Timeout <= 0 {
		c.Scraping.Timeout = 15 * time.Second
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "knowway:chat"
	}
}

func (c *AppConfig) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn (DATABASE_URL) is required")
	}
	return nil
}
