package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingDatabaseURL is returned when no database URL is configured.
var ErrMissingDatabaseURL = errors.New("config: database_url is required")

// Config holds application configuration (DB, cache and resolver settings).
type Config struct {
	DatabaseURL string        `yaml:"database_url" env:"DATABASE_URL"`
	ServerPort  string        `yaml:"server_port" env:"SERVER_PORT"`
	RedisURL    string        `yaml:"redis_url" env:"REDIS_URL"`
	UserAgent   string        `yaml:"user_agent" env:"RESOLVER_USER_AGENT"`
	Timeout     time.Duration `yaml:"timeout" env:"RESOLVER_TIMEOUT"`
	YtdlpPath   string        `yaml:"ytdlp_path" env:"YTDLP_PATH"`
	CookiesFile string        `yaml:"cookies_file" env:"COOKIES_FILE"`
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the
// current directory. DATABASE_URL is required; everything else has a default.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		RedisURL:    os.Getenv("REDIS_URL"),
		UserAgent:   os.Getenv("RESOLVER_USER_AGENT"),
		YtdlpPath:   os.Getenv("YTDLP_PATH"),
		CookiesFile: os.Getenv("COOKIES_FILE"),
	}
	if s := os.Getenv("RESOLVER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	applyDefaults(c)
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	}
	if c.YtdlpPath == "" {
		c.YtdlpPath = "yt-dlp"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}
