package config

import (
	"errors"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"os"
	"time"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./data/care-booker.db"`
	Timezone    string `yaml:"timezone" env:"TIMEZONE" env-default:"UTC"`
	SeedDemo    bool   `yaml:"seed_demo" env:"SEED_DEMO" env-default:"false"`
	Telegram    `yaml:"telegram"`
	HTTPServer  `yaml:"http_server"`
}

type Telegram struct {
	Token                  string `yaml:"token" env:"BOT_TOKEN" env-required:"true"`
	AdminSecret            string `yaml:"admin_secret" env:"ADMIN_SECRET" env-required:"true"`
	PollTimeout            int    `yaml:"poll_timeout" env:"POLL_TIMEOUT" env-default:"30"`
	Debug                  bool   `yaml:"debug" env:"BOT_DEBUG" env-default:"false"`
	AdminAttemptsPerMinute int    `yaml:"admin_attempts_per_minute" env:"ADMIN_ATTEMPTS_PER_MINUTE" env-default:"5"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8082"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Load reads the YAML file named by CONFIG_PATH when it is set, otherwise
// only the environment.
func Load() (*Config, error) {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
		return &cfg, cfg.validate()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, cfg.validate()
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}

// Location resolves Timezone, which Load has already validated.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.AdminAttemptsPerMinute <= 0 {
		return errors.New("admin_attempts_per_minute must be positive")
	}
	return nil
}
