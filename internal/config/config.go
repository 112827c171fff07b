package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Providers struct {
		YahooBaseURL   string        `yaml:"yahoo_base_url"`
		FinnhubBaseURL string        `yaml:"finnhub_base_url"`
		FinnhubAPIKey  string        `yaml:"finnhub_api_key"`
		QuoteTimeout   time.Duration `yaml:"quote_timeout"`
		SeriesTimeout  time.Duration `yaml:"series_timeout"`
		// Mock replaces both upstream providers with generated data.
		Mock bool `yaml:"mock"`
	} `yaml:"providers"`
	LLM struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Models  []string      `yaml:"models"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		AdviceCron string `yaml:"advice_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env (if present), then the YAML file, then applies environment
// variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"SERVER_ADDR":        &c.Server.Addr,
		"YAHOO_BASE_URL":     &c.Providers.YahooBaseURL,
		"FINNHUB_BASE_URL":   &c.Providers.FinnhubBaseURL,
		"FINNHUB_API_KEY":    &c.Providers.FinnhubAPIKey,
		"LLM_API_KEY":        &c.LLM.APIKey,
		"LLM_BASE_URL":       &c.LLM.BaseURL,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"ADVICE_CRON":        &c.Schedule.AdviceCron,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("LLM_MODELS"); v != "" {
		c.LLM.Models = splitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("MOCK_PROVIDERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MOCK_PROVIDERS: %w", err)
		}
		c.Providers.Mock = b
	}

	durations := map[string]*time.Duration{
		"QUOTE_TIMEOUT":  &c.Providers.QuoteTimeout,
		"SERIES_TIMEOUT": &c.Providers.SeriesTimeout,
		"LLM_TIMEOUT":    &c.LLM.Timeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Providers.QuoteTimeout == 0 {
		c.Providers.QuoteTimeout = 10 * time.Second
	}
	if c.Providers.SeriesTimeout == 0 {
		c.Providers.SeriesTimeout = 30 * time.Second
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if len(c.LLM.Models) == 0 {
		c.LLM.Models = []string{"gpt-4o-mini"}
	}
	if c.Schedule.AdviceCron == "" {
		c.Schedule.AdviceCron = "0 30 16 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stock_analysis.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	if c.Providers.QuoteTimeout <= 0 || c.Providers.SeriesTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// LLMEnabled reports whether a language model is configured.
func (c *Config) LLMEnabled() bool { return c.LLM.APIKey != "" && len(c.LLM.Models) > 0 }

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
