package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir string `yaml:"root_dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Enabled  bool   `yaml:"enabled"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Session struct {
		TTL string `yaml:"ttl"` // срок жизни состояния авторизации и теста
	} `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Files    FilesConfig    `yaml:"files"`
	Telegram TelegramConfig `yaml:"telegram"`
	JWT      struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	return &cfg
}

// SessionTTL — TTL сессионного состояния. По умолчанию совпадает
// со сроком жизни кода подтверждения (10 минут).
func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTL == "" {
		return 10 * time.Minute
	}
	if d, err := time.ParseDuration(c.Session.TTL); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}
