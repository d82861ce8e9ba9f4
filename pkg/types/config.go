package types

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "learning-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4-turbo-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	// Empty means the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxTokens caps the completion length per request (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// FetchConfig holds settings for the discovery stage. MaxItems and
// MaxAgeHours also bound the quality filter, so the two stages agree on
// what "recent" and "enough" mean.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxItems is the maximum number of candidates kept per topic (default 5).
	MaxItems int `json:"max_items" yaml:"max_items"`

	// MaxAgeHours is the age cutoff for candidates (default 48).
	MaxAgeHours int `json:"max_age_hours" yaml:"max_age_hours"`

	// EnablePerplexity controls whether the primary discovery backend is used.
	EnablePerplexity bool `json:"enable_perplexity" yaml:"enable_perplexity"`

	// PerplexityAPIKey authenticates against the Perplexity API.
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty" yaml:"perplexity_api_key,omitempty"`

	// PerplexityModel is the search-tuned model queried for discovery (default "sonar").
	PerplexityModel string `json:"perplexity_model" yaml:"perplexity_model"`

	// Feeds maps a topic to its fallback RSS/Atom feed URLs. Topics absent
	// from the map use the built-in feed sets.
	Feeds map[string][]string `json:"feeds,omitempty" yaml:"feeds,omitempty"`

	// TopicsFile is an optional YAML file of topic definitions merged over
	// the built-in feed sets.
	TopicsFile string `json:"topics_file,omitempty" yaml:"topics_file,omitempty"`

	// InterTopicDelay is the pause between topics (default 1s).
	InterTopicDelay time.Duration `json:"inter_topic_delay" yaml:"inter_topic_delay"`
}

// SummarizeConfig holds settings for the summarization stage.
type SummarizeConfig struct {
	AIConfig `yaml:",inline"`

	// SentenceCount is the requested summary length in sentences (default 4).
	SentenceCount int `json:"sentence_count" yaml:"sentence_count"`

	// QuizCount is the number of question/answer pairs per item (default 2).
	QuizCount int `json:"quiz_count" yaml:"quiz_count"`

	// FlashcardCount is the number of flashcards per item (default 3).
	FlashcardCount int `json:"flashcard_count" yaml:"flashcard_count"`

	// MaxInputChars truncates article text sent to the model (default 6000).
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`
}

// NotionConfig holds settings for the persistence stage.
type NotionConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the Notion integration token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DatabaseID identifies the target database.
	DatabaseID string `json:"database_id" yaml:"database_id"`

	// ParentPageID is the page under which "notion setup" creates the
	// database when DatabaseID is empty.
	ParentPageID string `json:"parent_page_id,omitempty" yaml:"parent_page_id,omitempty"`

	// RequestsPerSecond caps the Notion API call rate (default 3).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ScheduleConfig holds settings for the scheduler.
type ScheduleConfig struct {
	// Cron is a 5-field cron expression for run triggers (default "0 8 * * *").
	Cron string `json:"cron" yaml:"cron"`

	// WeekdaysOnly skips triggers that land on Saturday or Sunday.
	WeekdaysOnly bool `json:"weekdays_only" yaml:"weekdays_only"`

	// RetryAttempts is how many times a failed run is retried (default 3).
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts"`

	// RetryDelay is the wait between retries of a failed run (default 30m).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// LedgerConfig holds settings for the local run-history database.
type LedgerConfig struct {
	// Path is the SQLite file location (default "learning.db").
	Path string `json:"path" yaml:"path"`
}

// Config groups all stage configurations. It is built once at process start
// and passed into constructors; nothing reads configuration ambiently.
type Config struct {
	// Topics are the subject labels queried each run.
	Topics []string `json:"topics" yaml:"topics"`

	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Summarize SummarizeConfig `json:"summarize" yaml:"summarize"`
	Notion    NotionConfig    `json:"notion" yaml:"notion"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
}

// DefaultConfig returns a Config with every knob at its default value.
// API keys and the database ID are left empty; they come from secrets
// or the environment.
func DefaultConfig() Config {
	return Config{
		Topics: []string{"machine learning", "software development"},
		Fetch: FetchConfig{
			HTTPConfig:       HTTPConfig{Timeout: 30 * time.Second, UserAgent: "learning-engine/0.1"},
			MaxItems:         5,
			MaxAgeHours:      48,
			EnablePerplexity: true,
			PerplexityModel:  "sonar",
			InterTopicDelay:  time.Second,
		},
		Summarize: SummarizeConfig{
			AIConfig:       AIConfig{Model: "gpt-4-turbo-preview", MaxRetries: 3, MaxTokens: 1000},
			SentenceCount:  4,
			QuizCount:      2,
			FlashcardCount: 3,
			MaxInputChars:  6000,
		},
		Notion: NotionConfig{
			HTTPConfig:        HTTPConfig{Timeout: 30 * time.Second, UserAgent: "learning-engine/0.1"},
			RequestsPerSecond: 3,
		},
		Schedule: ScheduleConfig{
			Cron:          "0 8 * * *",
			RetryAttempts: 3,
			RetryDelay:    30 * time.Minute,
		},
		Ledger: LedgerConfig{Path: "learning.db"},
	}
}

// Validate checks the configuration and returns a *ConfigurationError listing
// every problem found, or nil when the configuration is usable.
func (c Config) Validate() error {
	var problems []string

	if len(c.Topics) == 0 {
		problems = append(problems, "topics: at least one topic is required")
	}
	for i, t := range c.Topics {
		if strings.TrimSpace(t) == "" {
			problems = append(problems, fmt.Sprintf("topics[%d]: empty topic", i))
		}
	}
	if c.Fetch.MaxItems <= 0 {
		problems = append(problems, "fetch.max_items: must be positive")
	}
	if c.Fetch.MaxAgeHours <= 0 {
		problems = append(problems, "fetch.max_age_hours: must be positive")
	}
	if c.Summarize.SentenceCount <= 0 {
		problems = append(problems, "summarize.sentence_count: must be positive")
	}
	if c.Summarize.QuizCount < 0 {
		problems = append(problems, "summarize.quiz_count: must not be negative")
	}
	if c.Summarize.FlashcardCount < 0 {
		problems = append(problems, "summarize.flashcard_count: must not be negative")
	}
	if c.Summarize.Model == "" {
		problems = append(problems, "summarize.model: model identifier is required")
	}
	if c.Notion.RequestsPerSecond <= 0 {
		problems = append(problems, "notion.requests_per_second: must be positive")
	}
	if c.Schedule.Cron == "" {
		problems = append(problems, "schedule.cron: expression is required")
	}
	if c.Schedule.RetryAttempts < 0 {
		problems = append(problems, "schedule.retry_attempts: must not be negative")
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}
