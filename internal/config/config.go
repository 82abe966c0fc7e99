// ABOUTME: Configuration loading and parsing for slack-connector
// ABOUTME: Supports YAML files with environment variable expansion, env overlays and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/2389/slack-connector/internal/lang"
)

// Config represents the complete slack-connector configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Session      SessionConfig      `yaml:"session"`
	Logging      LoggingConfig      `yaml:"logging"`
	Lang         string             `yaml:"lang"`
	Strings      map[string]string  `yaml:"strings"`
	Slack        SlackConfig        `yaml:"slack"`
	API          APIConfig          `yaml:"api"`
	Conversation ConversationConfig `yaml:"conversation"`
	Chat         ChatConfig         `yaml:"chat"`
	Messenger    MessengerConfig    `yaml:"messenger"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"CONNECTOR_HTTP_ADDR"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" env:"CONNECTOR_DATABASE_PATH"`
}

// SessionConfig controls how long idle conversations are kept
type SessionConfig struct {
	TTL           time.Duration `yaml:"-"`
	TTLRaw        string        `yaml:"ttl"`
	PruneSchedule string        `yaml:"prune_schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CONNECTOR_LOG_LEVEL"`
	Format string `yaml:"format"`
}

// SlackConfig holds Slack Web API configuration
type SlackConfig struct {
	AccessToken string `yaml:"access_token" env:"SLACK_ACCESS_TOKEN"`

	// APIURL overrides https://slack.com/api/, mainly for tests
	APIURL string `yaml:"api_url"`
}

// APIConfig holds the answer API credentials
type APIConfig struct {
	Key     string        `yaml:"key" env:"INBENTA_API_KEY"`
	Secret  string        `yaml:"secret" env:"INBENTA_API_SECRET"`
	AuthURL string        `yaml:"auth_url"`
	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// ConversationConfig holds answer API conversation settings
type ConversationConfig struct {
	Source         string               `yaml:"source"`
	UserType       int                  `yaml:"user_type"`
	Environment    string               `yaml:"environment"`
	ContentRatings ContentRatingsConfig `yaml:"content_ratings"`
	Digester       DigesterConfig       `yaml:"digester"`
	Answers        AnswersConfig        `yaml:"answers"`
}

// AnswersConfig is forwarded to the answer API when a conversation starts
type AnswersConfig struct {
	SideBubbleAttributes []string `yaml:"side_bubble_attributes"`
	AnswerAttributes     []string `yaml:"answer_attributes"`
	MaxOptions           int      `yaml:"max_options"`
	MaxRelatedContents   int      `yaml:"max_related_contents"`
}

// ContentRatingsConfig controls the rating prompt shown after answers
type ContentRatingsConfig struct {
	Enabled bool           `yaml:"enabled"`
	Ratings []RatingOption `yaml:"ratings"`
}

// RatingOption is one button of the rating prompt
type RatingOption struct {
	ID         int    `yaml:"id"`
	Label      string `yaml:"label"`
	Comment    bool   `yaml:"comment"`
	IsNegative bool   `yaml:"is_negative"`
	Style      string `yaml:"style"` // primary, danger or empty
}

// DigesterConfig tunes how answers are rendered
type DigesterConfig struct {
	// ButtonTitle names the attribute holding a custom option title
	ButtonTitle string           `yaml:"button_title"`
	URLButtons  URLButtonsConfig `yaml:"url_buttons"`
}

// URLButtonsConfig describes the attribute carrying URL buttons
type URLButtonsConfig struct {
	AttributeName  string `yaml:"attribute_name"`
	ButtonTitleVar string `yaml:"button_title_var"`
	ButtonURLVar   string `yaml:"button_url_var"`
}

// ChatConfig holds live-agent escalation settings
type ChatConfig struct {
	Enabled                         bool   `yaml:"enabled"`
	RoomID                          int    `yaml:"room_id"`
	Source                          int    `yaml:"source"`
	GuestName                       string `yaml:"guest_name"`
	GuestContact                    string `yaml:"guest_contact"`
	TriesBeforeEscalation           int    `yaml:"tries_before_escalation"`
	NegativeRatingsBeforeEscalation int    `yaml:"negative_ratings_before_escalation"`
}

// MessengerConfig holds the ticketing side-channel credentials
type MessengerConfig struct {
	AuthURL       string `yaml:"auth_url"`
	Key           string `yaml:"key" env:"MESSENGER_KEY"`
	Secret        string `yaml:"secret" env:"MESSENGER_SECRET"`
	WebhookSecret string `yaml:"webhook_secret" env:"MESSENGER_WEBHOOK_SECRET"`
}

// Enabled reports whether the ticketing side-channel is configured.
func (m MessengerConfig) Enabled() bool {
	return m.AuthURL != "" && m.Key != "" && m.Secret != ""
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded, then variables
// named in env tags override whatever the file set.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config populated with values matching a stock install.
func defaults() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: "0.0.0.0:8080"},
		Database: DatabaseConfig{Path: "./data/sessions.db"},
		Session: SessionConfig{
			TTLRaw:        "24h",
			PruneSchedule: "@every 10m",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Lang:    lang.DefaultLanguage,
		API: APIConfig{
			AuthURL:    "https://api.inbenta.io/v1/auth",
			TimeoutRaw: "10s",
		},
		Conversation: ConversationConfig{
			Source:      "slack",
			Environment: "production",
			ContentRatings: ContentRatingsConfig{
				Enabled: true,
				Ratings: []RatingOption{
					{ID: 1, Label: "yes", Style: "primary"},
					{ID: 2, Label: "no", IsNegative: true, Style: "danger"},
				},
			},
			Answers: AnswersConfig{
				AnswerAttributes:   []string{"ANSWER_TEXT"},
				MaxOptions:         3,
				MaxRelatedContents: 2,
			},
		},
		Chat: ChatConfig{RoomID: 1, Source: 3},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Slack.AccessToken == "" {
		return fmt.Errorf("slack.access_token is required")
	}

	if c.API.Key == "" || c.API.Secret == "" {
		return fmt.Errorf("api.key and api.secret are required")
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if !supportedLanguage(c.Lang) {
		return fmt.Errorf("lang %q is not supported (have %v)", c.Lang, lang.Languages())
	}

	seen := make(map[int]bool)
	for _, r := range c.Conversation.ContentRatings.Ratings {
		if seen[r.ID] {
			return fmt.Errorf("conversation.content_ratings: duplicate rating id %d", r.ID)
		}
		seen[r.ID] = true

		if r.Style != "" && r.Style != "primary" && r.Style != "danger" {
			return fmt.Errorf("conversation.content_ratings: rating %d has invalid style %q", r.ID, r.Style)
		}
	}
	if c.Conversation.ContentRatings.Enabled && len(c.Conversation.ContentRatings.Ratings) == 0 {
		return fmt.Errorf("conversation.content_ratings.ratings is required when ratings are enabled")
	}

	if c.Chat.TriesBeforeEscalation < 0 || c.Chat.NegativeRatingsBeforeEscalation < 0 {
		return fmt.Errorf("chat escalation thresholds must not be negative")
	}

	if c.Messenger.WebhookSecret != "" && !c.Messenger.Enabled() {
		return fmt.Errorf("messenger.webhook_secret requires messenger auth_url, key and secret")
	}

	return nil
}

func supportedLanguage(l string) bool {
	for _, have := range lang.Languages() {
		if have == l {
			return true
		}
	}
	return false
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.TTLRaw != "" {
		cfg.Session.TTL, err = time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session.ttl %q: %w", cfg.Session.TTLRaw, err)
		}
	}

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	return nil
}
