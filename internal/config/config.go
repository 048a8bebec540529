package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"daya/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingTelegram is returned by RequireTelegram when the bot cannot be started.
var ErrMissingTelegram = errors.New("telegram is not configured")

// Shared store backends. SQLite can be opened by several processes at once;
// Badger holds an exclusive directory lock.
const (
	SharedSQLite = "sqlite"
	SharedBadger = "badger"
)

type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path          string `yaml:"path"`
		SharedPath    string `yaml:"shared_path"`
		SharedBackend string `yaml:"shared_backend"`
	} `yaml:"database"`
	Tracker struct {
		TimeZone    string `yaml:"timezone"`
		TargetTotal int    `yaml:"target_total"`
	} `yaml:"tracker"`
	Schedule struct {
		WidgetRefresh string `yaml:"widget_refresh"`
		DailySummary  string `yaml:"daily_summary"`
	} `yaml:"schedule"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Path = "/data/daya.db"
	cfg.Database.SharedPath = "/data/shared.db"
	cfg.Database.SharedBackend = SharedSQLite
	cfg.Tracker.TargetTotal = 1430
	cfg.Schedule.WidgetRefresh = "*/15 * * * *"
	cfg.Schedule.DailySummary = "55 21 * * *"
	return cfg
}

// Load builds the configuration from defaults, then the YAML file named by
// DAYA_CONFIG if any, then environment variables. A .env file in the working
// directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ no .env file, using environment variables")
	}

	cfg := Default()
	if path := getEnv("DAYA_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	log.Printf("✅ config loaded: port=%s, db=%s, shared=%s (%s), tz=%s",
		cfg.Server.Port, cfg.Database.Path, cfg.Database.SharedPath, cfg.Database.SharedBackend, cfg.Location())
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Telegram.Token = getEnv("TG_TOKEN", c.Telegram.Token)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Database.SharedPath = getEnv("SHARED_PATH", c.Database.SharedPath)
	c.Database.SharedBackend = getEnv("SHARED_BACKEND", c.Database.SharedBackend)
	c.Tracker.TimeZone = getEnv("TZ_NAME", c.Tracker.TimeZone)
	c.Schedule.WidgetRefresh = getEnv("WIDGET_REFRESH", c.Schedule.WidgetRefresh)
	c.Schedule.DailySummary = getEnv("DAILY_SUMMARY", c.Schedule.DailySummary)

	if s := getEnv("TG_CHAT_ID", ""); s != "" {
		chatID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TG_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = chatID
	}

	if s := getEnv("PAATH_TARGET_TOTAL", ""); s != "" {
		total, err := strconv.Atoi(s)
		if err != nil || total <= 0 {
			return fmt.Errorf("invalid PAATH_TARGET_TOTAL %q", s)
		}
		c.Tracker.TargetTotal = total
	}

	switch c.Database.SharedBackend {
	case SharedSQLite, SharedBadger:
	default:
		return fmt.Errorf("invalid SHARED_BACKEND %q: use %s or %s", c.Database.SharedBackend, SharedSQLite, SharedBadger)
	}
	return nil
}

// RequireTelegram reports whether the bot settings are present.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: set TG_TOKEN in the environment or a .env file", ErrMissingTelegram)
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("%w: set TG_CHAT_ID", ErrMissingTelegram)
	}
	return nil
}

// Location returns the time zone days are counted in.
func (c *Config) Location() *time.Location {
	return utils.LoadLocation(c.Tracker.TimeZone)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
