package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL string `yaml:"database_url"`
	ServerPort  string `yaml:"server_port"`
	RedisURL    string `yaml:"redis_url"`
	UserAgent   string `yaml:"user_agent"`
	Timeout     string `yaml:"timeout"`
	YtdlpPath   string `yaml:"ytdlp_path"`
	CookiesFile string `yaml:"cookies_file"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL: f.DatabaseURL,
		ServerPort:  f.ServerPort,
		RedisURL:    f.RedisURL,
		UserAgent:   f.UserAgent,
		YtdlpPath:   f.YtdlpPath,
		CookiesFile: f.CookiesFile,
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	applyDefaults(c)
	return c, nil
}
