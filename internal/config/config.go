package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Storage struct {
		URL     string `yaml:"url"`
		Key     string `yaml:"key"`
		Bucket  string `yaml:"bucket"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"storage"`
	Mail struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		From       string `yaml:"from"`
		AdminEmail string `yaml:"admin_email"`
	} `yaml:"mail"`
	Verification struct {
		TTL     string `yaml:"ttl"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"verification"`
	Notify struct {
		Workers int `yaml:"workers"`
		Buffer  int `yaml:"buffer"`
	} `yaml:"notify"`
}

// LoadEnv loads .env style files into the process environment. Missing files
// are ignored; variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads YAML config from path, expanding ${VAR} references from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
