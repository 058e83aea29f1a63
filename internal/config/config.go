package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const defaultDietaryPreferences = `- Include at least one vegetable dish with every meal
- Prefer seasonal ingredients
- Dishes should take 30 minutes or less to cook
- Keep the menu balanced across the week`

// Config holds the configuration for the application.
type Config struct {
	Env          string
	DatabasePath string
	LockPath     string
	Timezone     string

	// LLM Config
	LLMProvider       string
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMTimeoutSeconds int
	GeminiAPIKey      string
	GeminiModel       string

	// Telegram Config
	TelegramBotToken       string
	TelegramChatID         int64
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	SlackWebhookURL      string
	NotifyTimeoutSeconds int

	// Household Config
	StoreLink          string
	LogInputLink       string
	HistoryWeeks       int
	ShoppingDelimiter  string
	DietaryPreferences string

	LogLevel  string
	LogFormat string
}

// householdFile is the optional TOML overlay named by DINNER_AIDE_CONFIG.
type householdFile struct {
	Timezone           string `toml:"timezone"`
	StoreLink          string `toml:"store_link"`
	LogInputLink       string `toml:"log_input_link"`
	HistoryWeeks       int    `toml:"history_weeks"`
	ShoppingDelimiter  string `toml:"shopping_delimiter"`
	DietaryPreferences string `toml:"dietary_preferences"`
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                  envOr("ENV", "development"),
		DatabasePath:         envOr("DATABASE_PATH", "data/dinner-aide.db"),
		LockPath:             envOr("LOCK_PATH", "data/dinner-aide.lock"),
		Timezone:             envOr("TZ_NAME", "Local"),
		LLMProvider:          strings.ToLower(envOr("LLM_PROVIDER", ProviderGroq)),
		LLMAPIKey:            os.Getenv("LLM_API_KEY"),
		LLMBaseURL:           os.Getenv("LLM_BASE_URL"),
		LLMModel:             os.Getenv("LLM_MODEL"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:   os.Getenv("TELEGRAM_WEBHOOK_URL"),
		SlackWebhookURL:      os.Getenv("SLACK_WEBHOOK_URL"),
		StoreLink:            os.Getenv("STORE_LINK"),
		LogInputLink:         os.Getenv("LOG_INPUT_LINK"),
		ShoppingDelimiter:    envOr("SHOPPING_DELIMITER", ","),
		DietaryPreferences:   defaultDietaryPreferences,
		LogLevel:             envOr("LOG_LEVEL", "info"),
		LogFormat:            envOr("LOG_FORMAT", "text"),
		LLMTimeoutSeconds:    60,
		NotifyTimeoutSeconds: 30,
		HistoryWeeks:         2,
	}

	if raw := os.Getenv("USER_DIETARY_PREFERENCES"); raw != "" {
		cfg.DietaryPreferences = strings.ReplaceAll(raw, `\n`, "\n")
	}

	var err error
	if cfg.LLMTimeoutSeconds, err = envInt("LLM_TIMEOUT_SECONDS", cfg.LLMTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeoutSeconds, err = envInt("NOTIFY_TIMEOUT_SECONDS", cfg.NotifyTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.HistoryWeeks, err = envInt("HISTORY_WEEKS", cfg.HistoryWeeks); err != nil {
		return nil, err
	}
	if cfg.TelegramChatID, err = envInt64("TELEGRAM_CHAT_ID"); err != nil {
		return nil, err
	}
	if cfg.AdminTelegramID, err = envInt64("ADMIN_TELEGRAM_ID"); err != nil {
		return nil, err
	}
	if cfg.TelegramAllowedUserIDs, err = envInt64List("TELEGRAM_ALLOWED_USER_IDS"); err != nil {
		return nil, err
	}

	if path := os.Getenv("DINNER_AIDE_CONFIG"); path != "" {
		if err := cfg.applyHouseholdFile(path); err != nil {
			return nil, err
		}
	}

	switch cfg.LLMProvider {
	case ProviderGroq, ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY environment variable not set")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.HistoryWeeks < 0 {
		return nil, fmt.Errorf("HISTORY_WEEKS must not be negative")
	}
	if cfg.ShoppingDelimiter == "" {
		cfg.ShoppingDelimiter = ","
	}

	return cfg, nil
}

func (c *Config) applyHouseholdFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file householdFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if file.Timezone != "" {
		c.Timezone = file.Timezone
	}
	if file.StoreLink != "" {
		c.StoreLink = file.StoreLink
	}
	if file.LogInputLink != "" {
		c.LogInputLink = file.LogInputLink
	}
	if file.HistoryWeeks != 0 {
		c.HistoryWeeks = file.HistoryWeeks
	}
	if file.ShoppingDelimiter != "" {
		c.ShoppingDelimiter = file.ShoppingDelimiter
	}
	if strings.TrimSpace(file.DietaryPreferences) != "" {
		c.DietaryPreferences = strings.TrimSpace(file.DietaryPreferences)
	}
	return nil
}

// ValidateBot reports every setting the Telegram bot needs but lacks.
func (c *Config) ValidateBot() error {
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN environment variable not set"))
	}
	if c.TelegramWebhookURL == "" {
		errs = append(errs, errors.New("TELEGRAM_WEBHOOK_URL environment variable not set"))
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		errs = append(errs, errors.New("TELEGRAM_ALLOWED_USER_IDS environment variable not set"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether destructive maintenance commands are allowed.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "staging", "test":
		return true
	}
	return false
}

// Location resolves the configured timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LLMTimeout is the HTTP timeout for generative service calls.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// NotifyTimeout is the HTTP timeout for webhook notifications.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func envInt64(key string) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func envInt64List(key string) ([]int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
