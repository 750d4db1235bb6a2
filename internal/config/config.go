package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	FMP struct {
		APIKey       string        `yaml:"api_key" validate:"required"`
		BaseURL      string        `yaml:"base_url" validate:"required,url"`
		ImageBaseURL string        `yaml:"image_base_url" validate:"required,url"`
		Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
		RateLimit    float64       `yaml:"rate_limit" validate:"gte=0"` // requests per second, 0 = unlimited
	} `yaml:"fmp"`
	Pipeline struct {
		BatchSize      int           `yaml:"batch_size" validate:"gte=1"`
		BatchDelay     time.Duration `yaml:"batch_delay" validate:"gte=0"`
		MaxAttempts    int           `yaml:"max_attempts" validate:"gte=1"`
		BackoffBase    time.Duration `yaml:"backoff_base" validate:"gte=0"`
		Timeseries     int           `yaml:"timeseries" validate:"gte=1"`
		StatementLimit int           `yaml:"statement_limit" validate:"gte=1"`
		AnnualLimit    int           `yaml:"annual_limit" validate:"gte=1"`
		EarningsLimit  int           `yaml:"earnings_limit" validate:"gte=1"`
	} `yaml:"pipeline"`
	Storage struct {
		DataDir      string `yaml:"data_dir" validate:"required"`
		LogoDir      string `yaml:"logo_dir" validate:"required"`
		UniverseFile string `yaml:"universe_file" validate:"required"`
	} `yaml:"storage"`
	Checkpoint struct {
		File      string `yaml:"file" validate:"required"`
		LockFile  string `yaml:"lock_file" validate:"required"`
		RedisAddr string `yaml:"redis_addr"`
		RedisKey  string `yaml:"redis_key"`
	} `yaml:"checkpoint"`
	Schedule struct {
		Cron string `yaml:"cron" validate:"required"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Numeric settings start from their defaults, so an explicit zero in the file
// or environment is kept; empty strings fall back to their defaults.
func Load(path string) (*Config, error) {
	cfg := newConfig()

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
	strs := map[string]*string{
		"FMP_API_KEY":        &c.FMP.APIKey,
		"FMP_BASE_URL":       &c.FMP.BaseURL,
		"DATA_DIR":           &c.Storage.DataDir,
		"LOGO_DIR":           &c.Storage.LogoDir,
		"UNIVERSE_FILE":      &c.Storage.UniverseFile,
		"CHECKPOINT_FILE":    &c.Checkpoint.File,
		"REDIS_ADDR":         &c.Checkpoint.RedisAddr,
		"CRON_SCHEDULE":      &c.Schedule.Cron,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BATCH_SIZE":   &c.Pipeline.BatchSize,
		"MAX_ATTEMPTS": &c.Pipeline.MaxAttempts,
		"TIMESERIES":   &c.Pipeline.Timeseries,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"BATCH_DELAY":  &c.Pipeline.BatchDelay,
		"BACKOFF_BASE": &c.Pipeline.BackoffBase,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// parseDuration accepts a Go duration ("8s") or a bare number of milliseconds ("8000").
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func newConfig() *Config {
	c := &Config{}
	c.FMP.Timeout = 30 * time.Second
	c.Pipeline.BatchSize = 2
	c.Pipeline.BatchDelay = 8 * time.Second
	c.Pipeline.MaxAttempts = 3
	c.Pipeline.BackoffBase = 500 * time.Millisecond
	c.Pipeline.Timeseries = 2000
	c.Pipeline.StatementLimit = 120
	c.Pipeline.AnnualLimit = 40
	c.Pipeline.EarningsLimit = 40
	return c
}

func (c *Config) applyDefaults() {
	if c.FMP.BaseURL == "" {
		c.FMP.BaseURL = "https://financialmodelingprep.com/api/v3"
	}
	if c.FMP.ImageBaseURL == "" {
		c.FMP.ImageBaseURL = "https://images.financialmodelingprep.com/symbol"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "public/data"
	}
	if c.Storage.LogoDir == "" {
		c.Storage.LogoDir = "public/logos"
	}
	if c.Storage.UniverseFile == "" {
		c.Storage.UniverseFile = c.Storage.DataDir + "/sp500.json"
	}
	if c.Checkpoint.File == "" {
		c.Checkpoint.File = "data/checkpoint.json"
	}
	if c.Checkpoint.LockFile == "" {
		c.Checkpoint.LockFile = "data/ingest.lock"
	}
	if c.Checkpoint.RedisKey == "" {
		c.Checkpoint.RedisKey = "stockdash:ingest:checkpoint"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 6 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/ingest.db"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.fmp.api_key"; drop the root type.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_with":
		return field + " is required"
	case "url":
		return field + " must be a URL"
	default:
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
}
