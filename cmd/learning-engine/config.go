// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/learning-engine/internal/fetch"
	"github.com/pdiddy/learning-engine/internal/ledger"
	"github.com/pdiddy/learning-engine/internal/notion"
	"github.com/pdiddy/learning-engine/internal/pipeline"
	"github.com/pdiddy/learning-engine/internal/secrets"
	"github.com/pdiddy/learning-engine/internal/summarize"
	"github.com/pdiddy/learning-engine/pkg/types"
)

// loadConfig builds the effective configuration: defaults, overridden by the
// config file and environment, with API keys falling back to the secrets
// directory. It returns a *types.ConfigurationError when the result is not
// usable.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()

	if viper.IsSet("topics") {
		cfg.Topics = viper.GetStringSlice("topics")
	}

	if viper.IsSet("fetch.timeout") {
		cfg.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	}
	if viper.IsSet("fetch.user_agent") {
		cfg.Fetch.UserAgent = viper.GetString("fetch.user_agent")
	}
	if viper.IsSet("fetch.max_items") {
		cfg.Fetch.MaxItems = viper.GetInt("fetch.max_items")
	}
	if viper.IsSet("fetch.max_age_hours") {
		cfg.Fetch.MaxAgeHours = viper.GetInt("fetch.max_age_hours")
	}
	if viper.IsSet("fetch.enable_perplexity") {
		cfg.Fetch.EnablePerplexity = viper.GetBool("fetch.enable_perplexity")
	}
	if viper.IsSet("fetch.perplexity_api_key") {
		cfg.Fetch.PerplexityAPIKey = viper.GetString("fetch.perplexity_api_key")
	}
	if viper.IsSet("fetch.perplexity_model") {
		cfg.Fetch.PerplexityModel = viper.GetString("fetch.perplexity_model")
	}
	if viper.IsSet("fetch.feeds") {
		cfg.Fetch.Feeds = viper.GetStringMapStringSlice("fetch.feeds")
	}
	if viper.IsSet("fetch.topics_file") {
		cfg.Fetch.TopicsFile = viper.GetString("fetch.topics_file")
	}
	if viper.IsSet("fetch.inter_topic_delay") {
		cfg.Fetch.InterTopicDelay = viper.GetDuration("fetch.inter_topic_delay")
	}

	if viper.IsSet("summarize.model") {
		cfg.Summarize.Model = viper.GetString("summarize.model")
	}
	if viper.IsSet("summarize.api_key") {
		cfg.Summarize.APIKey = viper.GetString("summarize.api_key")
	}
	if viper.IsSet("summarize.base_url") {
		cfg.Summarize.BaseURL = viper.GetString("summarize.base_url")
	}
	if viper.IsSet("summarize.max_retries") {
		cfg.Summarize.MaxRetries = viper.GetInt("summarize.max_retries")
	}
	if viper.IsSet("summarize.max_tokens") {
		cfg.Summarize.MaxTokens = viper.GetInt("summarize.max_tokens")
	}
	if viper.IsSet("summarize.sentence_count") {
		cfg.Summarize.SentenceCount = viper.GetInt("summarize.sentence_count")
	}
	if viper.IsSet("summarize.quiz_count") {
		cfg.Summarize.QuizCount = viper.GetInt("summarize.quiz_count")
	}
	if viper.IsSet("summarize.flashcard_count") {
		cfg.Summarize.FlashcardCount = viper.GetInt("summarize.flashcard_count")
	}
	if viper.IsSet("summarize.max_input_chars") {
		cfg.Summarize.MaxInputChars = viper.GetInt("summarize.max_input_chars")
	}

	if viper.IsSet("notion.api_key") {
		cfg.Notion.APIKey = viper.GetString("notion.api_key")
	}
	if viper.IsSet("notion.database_id") {
		cfg.Notion.DatabaseID = viper.GetString("notion.database_id")
	}
	if viper.IsSet("notion.parent_page_id") {
		cfg.Notion.ParentPageID = viper.GetString("notion.parent_page_id")
	}
	if viper.IsSet("notion.requests_per_second") {
		cfg.Notion.RequestsPerSecond = viper.GetFloat64("notion.requests_per_second")
	}

	if viper.IsSet("schedule.cron") {
		cfg.Schedule.Cron = viper.GetString("schedule.cron")
	}
	if viper.IsSet("schedule.weekdays_only") {
		cfg.Schedule.WeekdaysOnly = viper.GetBool("schedule.weekdays_only")
	}
	if viper.IsSet("schedule.retry_attempts") {
		cfg.Schedule.RetryAttempts = viper.GetInt("schedule.retry_attempts")
	}
	if viper.IsSet("schedule.retry_delay") {
		cfg.Schedule.RetryDelay = viper.GetDuration("schedule.retry_delay")
	}

	if viper.IsSet("ledger.path") {
		cfg.Ledger.Path = viper.GetString("ledger.path")
	}

	cfg.Fetch.PerplexityAPIKey = secrets.Fallback(cfg.Fetch.PerplexityAPIKey, loadedSecrets, "perplexity-api-key")
	cfg.Summarize.APIKey = secrets.Fallback(cfg.Summarize.APIKey, loadedSecrets, "openai-api-key")
	cfg.Notion.APIKey = secrets.Fallback(cfg.Notion.APIKey, loadedSecrets, "notion-api-key")
	cfg.Notion.DatabaseID = secrets.Fallback(cfg.Notion.DatabaseID, loadedSecrets, "notion-database-id")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveTopics returns the topic list and feed overrides, honoring an
// optional topics file. Topics named in the file replace the configured
// list; its feeds are merged over the config-file feeds.
func resolveTopics(cfg types.Config) ([]string, map[string][]fetch.Feed, error) {
	feeds := make(map[string][]fetch.Feed)
	for topic, urls := range cfg.Fetch.Feeds {
		for _, u := range urls {
			feeds[topic] = append(feeds[topic], fetch.Feed{Label: u, URL: u})
		}
	}

	topics := cfg.Topics
	if cfg.Fetch.TopicsFile != "" {
		tf, err := fetch.LoadTopicsFile(cfg.Fetch.TopicsFile)
		if err != nil {
			return nil, nil, &types.ConfigurationError{
				Problems: []string{fmt.Sprintf("fetch.topics_file: %v", err)},
			}
		}
		if names := tf.Names(); len(names) > 0 {
			topics = names
		}
		for topic, fs := range tf.FeedOverrides() {
			feeds[topic] = fs
		}
	}
	if len(feeds) == 0 {
		feeds = nil
	}
	return topics, feeds, nil
}

// buildFetcher wires the discovery adapter: Perplexity primary (when
// enabled and keyed) with RSS fallback.
func buildFetcher(cfg types.Config, feeds map[string][]fetch.Feed) *fetch.Adapter {
	client := &http.Client{Timeout: cfg.Fetch.Timeout}

	var primary fetch.Source
	if cfg.Fetch.EnablePerplexity && cfg.Fetch.PerplexityAPIKey != "" {
		primary = &fetch.PerplexityBackend{
			Client: client,
			APIKey: cfg.Fetch.PerplexityAPIKey,
			Model:  cfg.Fetch.PerplexityModel,
		}
	}

	return &fetch.Adapter{
		Primary:  primary,
		Fallback: &fetch.RSSBackend{Client: client, Feeds: feeds, Log: os.Stderr},
		Cfg:      cfg.Fetch,
		Log:      os.Stderr,
	}
}

// buildRunner assembles the full pipeline. The returned store is nil when
// the ledger could not be opened; the pipeline still runs, it just is not
// recorded.
func buildRunner(cfg types.Config, feeds map[string][]fetch.Feed, dryRun bool) (*pipeline.Runner, *ledger.Store) {
	runner := &pipeline.Runner{
		Fetch:     buildFetcher(cfg, feeds),
		Summarize: summarize.New(summarize.NewOpenAIBackend(cfg.Summarize.AIConfig), cfg.Summarize),
		Persist:   notion.NewClient(cfg.Notion),
		Cfg:       cfg,
		DryRun:    dryRun,
	}

	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run history disabled: %v\n", err)
		return runner, nil
	}
	runner.Ledger = store
	return runner, store
}
