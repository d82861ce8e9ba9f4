// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "strings"

// Feed is one RSS/Atom source: a short label for candidate attribution and
// the feed URL.
type Feed struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// builtinFeeds maps topics to their curated fallback feeds. Topics not
// listed here fall back to generalFeeds.
var builtinFeeds = map[string][]Feed{
	"artificial intelligence": {
		{Label: "O'Reilly Radar", URL: "https://feeds.feedburner.com/oreilly/radar"},
		{Label: "Machine Learning Mastery", URL: "https://machinelearningmastery.com/feed/"},
	},
	"machine learning": {
		{Label: "Machine Learning Mastery", URL: "https://machinelearningmastery.com/feed/"},
		{Label: "Distill", URL: "https://distill.pub/rss.xml"},
	},
	"software development": {
		{Label: "O'Reilly Radar", URL: "https://feeds.feedburner.com/oreilly/radar"},
		{Label: "DEV Community", URL: "https://dev.to/feed"},
	},
	"data science": {
		{Label: "Towards Data Science", URL: "https://towardsdatascience.com/feed"},
		{Label: "Kaggle Learn", URL: "https://www.kaggle.com/learn-posts.atom"},
	},
}

// generalFeeds serves topics without a curated set. Keyword matching narrows
// the broad feeds down to on-topic entries.
var generalFeeds = []Feed{
	{Label: "O'Reilly Radar", URL: "https://feeds.feedburner.com/oreilly/radar"},
	{Label: "DEV Community", URL: "https://dev.to/feed"},
}

// FeedsForTopic resolves the feed set for a topic: the override map wins,
// then the built-in set, then the general feeds. Topic lookup is
// case-insensitive.
func FeedsForTopic(topic string, override map[string][]Feed) []Feed {
	key := strings.ToLower(strings.TrimSpace(topic))
	if feeds, ok := override[key]; ok && len(feeds) > 0 {
		return feeds
	}
	if feeds, ok := builtinFeeds[key]; ok {
		return feeds
	}
	return generalFeeds
}
