package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// MailConfig holds the IMAP connection settings.
type MailConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	// LinkTemplate builds the deep link for a message; %s receives the
	// query-escaped message ID.
	LinkTemplate string `mapstructure:"link_template" yaml:"link_template"`

	// SearchLinkTemplate is used when a message has no Message-ID; %s
	// receives a query-escaped search on subject and day.
	SearchLinkTemplate string `mapstructure:"search_link_template" yaml:"search_link_template"`

	DialTimeoutSec int `mapstructure:"dial_timeout_sec" yaml:"dial_timeout_sec"`
}

// LLMConfig holds the chat-completion settings used by the summarizer.
type LLMConfig struct {
	Endpoint         string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey           string  `mapstructure:"api_key" yaml:"api_key"`
	Model            string  `mapstructure:"model" yaml:"model"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	BatchSize        int     `mapstructure:"batch_size" yaml:"batch_size"`
	BatchDelaySec    int     `mapstructure:"batch_delay_sec" yaml:"batch_delay_sec"`
	BodyPreviewRunes int     `mapstructure:"body_preview_runes" yaml:"body_preview_runes"`
	TimeoutSec       int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotionConfig holds the target database settings.
type NotionConfig struct {
	Token      string `mapstructure:"token" yaml:"token"`
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Version    string `mapstructure:"version" yaml:"version"`
	PageSize   int    `mapstructure:"page_size" yaml:"page_size"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// LogConfig controls logger verbosity and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration. It is built
// once at startup and handed to each component's constructor.
type AppConfig struct {
	Mail   MailConfig   `mapstructure:"mail" yaml:"mail"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Notion NotionConfig `mapstructure:"notion" yaml:"notion"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// Keyring entry names for secrets that may be missing from the environment.
const (
	SecretMailPassword = "gmail-app-password"
	SecretLLMAPIKey    = "groq-api-key"
	SecretNotionToken  = "notion-token"
)

// SecretNames lists the keyring entries the application reads.
func SecretNames() []string {
	return []string{SecretMailPassword, SecretLLMAPIKey, SecretNotionToken}
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"mail.username":      "GMAIL_EMAIL",
	"mail.password":      "GMAIL_APP_PASSWORD",
	"llm.api_key":        "GROQ_API_KEY",
	"llm.model":          "GROQ_MODEL",
	"notion.token":       "NOTION_TOKEN",
	"notion.database_id": "NOTION_DATABASE_ID",
}

// DefaultConfigPath returns ~/.config/newsdigest/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "newsdigest", "config.yaml")
}

// DefaultAppConfig returns the built-in defaults.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailConfig{
			Host:               "imap.gmail.com",
			Port:               "993",
			LinkTemplate:       "https://mail.google.com/mail/u/0/#search/rfc822msgid:%s",
			SearchLinkTemplate: "https://mail.google.com/mail/u/0/#search/%s",
			DialTimeoutSec:     30,
		},
		LLM: LLMConfig{
			Endpoint:         "https://api.groq.com/openai/v1/chat/completions",
			Model:            "llama-3.3-70b-versatile",
			Temperature:      0.2,
			MaxTokens:        4000,
			BatchSize:        10,
			BatchDelaySec:    65,
			BodyPreviewRunes: 800,
			TimeoutSec:       120,
		},
		Notion: NotionConfig{
			BaseURL:    "https://api.notion.com/v1",
			Version:    "2022-06-28",
			PageSize:   100,
			TimeoutSec: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// setDefaults mirrors DefaultAppConfig into v so that missing keys
// resolve to sensible values.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("mail.host", d.Mail.Host)
	v.SetDefault("mail.port", d.Mail.Port)
	v.SetDefault("mail.link_template", d.Mail.LinkTemplate)
	v.SetDefault("mail.search_link_template", d.Mail.SearchLinkTemplate)
	v.SetDefault("mail.dial_timeout_sec", d.Mail.DialTimeoutSec)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.batch_size", d.LLM.BatchSize)
	v.SetDefault("llm.batch_delay_sec", d.LLM.BatchDelaySec)
	v.SetDefault("llm.body_preview_runes", d.LLM.BodyPreviewRunes)
	v.SetDefault("llm.timeout_sec", d.LLM.TimeoutSec)
	v.SetDefault("notion.base_url", d.Notion.BaseURL)
	v.SetDefault("notion.version", d.Notion.Version)
	v.SetDefault("notion.page_size", d.Notion.PageSize)
	v.SetDefault("notion.timeout_sec", d.Notion.TimeoutSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// LoadConfig reads the optional YAML file at path and overlays the
// environment variables listed in envBindings. A missing file is not an
// error; an unreadable or malformed one is.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s to %s: %w", key, env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SecretLookup resolves a named secret from an external store.
type SecretLookup func(name string) (string, error)

// FillSecrets fills empty secret fields from lookup. Lookup failures are
// ignored; validation reports whatever is still missing.
func (c *AppConfig) FillSecrets(lookup SecretLookup) {
	if lookup == nil {
		return
	}
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if value, err := lookup(name); err == nil {
			*dst = value
		}
	}
	fill(&c.Mail.Password, SecretMailPassword)
	fill(&c.LLM.APIKey, SecretLLMAPIKey)
	fill(&c.Notion.Token, SecretNotionToken)
}

// Validate checks the mail settings required to authenticate.
func (m MailConfig) Validate() error {
	var problems []error
	if m.Host == "" {
		problems = append(problems, missingSetting("mail.host", ""))
	}
	if m.Username == "" {
		problems = append(problems, missingSetting("mail username", "GMAIL_EMAIL"))
	}
	if m.Password == "" {
		problems = append(problems, missingSetting("mail app password", "GMAIL_APP_PASSWORD"))
	}
	return NewConfigError("mail", joinHint(
		"Generate an App Password at https://myaccount.google.com/apppasswords",
		"or store it with: newsdigest --set-credential "+SecretMailPassword,
	), problems)
}

// DialTimeout returns the IMAP dial timeout.
func (m MailConfig) DialTimeout() time.Duration {
	return time.Duration(m.DialTimeoutSec) * time.Second
}

// Validate checks the settings required to call the chat endpoint.
func (l LLMConfig) Validate() error {
	var problems []error
	if l.APIKey == "" {
		problems = append(problems, missingSetting("LLM API key", "GROQ_API_KEY"))
	}
	if l.Endpoint == "" {
		problems = append(problems, missingSetting("llm.endpoint", ""))
	}
	if l.Model == "" {
		problems = append(problems, missingSetting("llm.model", "GROQ_MODEL"))
	}
	if l.BatchSize < 1 {
		problems = append(problems, fmt.Errorf("llm.batch_size must be positive, got %d", l.BatchSize))
	}
	return NewConfigError("summarizer", joinHint(
		"Get a free API key at https://console.groq.com/keys",
		"or store it with: newsdigest --set-credential "+SecretLLMAPIKey,
	), problems)
}

// BatchDelay returns the minimum pause between summarization batches.
func (l LLMConfig) BatchDelay() time.Duration {
	return time.Duration(l.BatchDelaySec) * time.Second
}

// Timeout returns the HTTP timeout for chat requests.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// Configured reports whether both the token and the database ID are set.
func (n NotionConfig) Configured() bool {
	return n.Token != "" && n.DatabaseID != ""
}

// Timeout returns the HTTP timeout for Notion requests.
func (n NotionConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSec) * time.Second
}
