// Package trending aggregates tech headlines from Hacker News and RSS feeds
// so topic proposals can lean on what is being discussed right now.
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/cache"
	"go.uber.org/zap"
)

const (
	cacheKey      = "trending:topics"
	cacheTTL      = time.Hour
	minTitleLen   = 10
	summaryPerSrc = 5
)

// Service collects, ranks and caches trending topics.
type Service struct {
	hn     *HNClient
	rss    *RSSClient
	feeds  []FeedSource
	cache  cache.Store
	logger *zap.Logger
}

func NewService(hn *HNClient, rss *RSSClient, feeds []FeedSource, store cache.Store, logger *zap.Logger) *Service {
	return &Service{
		hn:     hn,
		rss:    rss,
		feeds:  feeds,
		cache:  store,
		logger: logger.Named("Trending"),
	}
}

// Topics returns the highest-ranked topics across all sources, capped at
// limit. Results are cached for an hour; source failures degrade to whatever
// the remaining sources produced.
func (s *Service) Topics(ctx context.Context, limit int) ([]Topic, error) {
	topics, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

// Summary renders topics grouped by source for prompt injection. An empty
// string means no topics were available.
func (s *Service) Summary(ctx context.Context) string {
	topics, err := s.collect(ctx)
	if err != nil || len(topics) == 0 {
		return ""
	}

	grouped := make(map[string][]Topic)
	var order []string
	for _, t := range topics {
		if len(grouped[t.Source]) >= summaryPerSrc {
			continue
		}
		if _, seen := grouped[t.Source]; !seen {
			order = append(order, t.Source)
		}
		grouped[t.Source] = append(grouped[t.Source], t)
	}

	var b strings.Builder
	for _, source := range order {
		fmt.Fprintf(&b, "From %s:\n", source)
		for _, t := range grouped[source] {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) collect(ctx context.Context) ([]Topic, error) {
	if cached, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var topics []Topic
		if err := json.Unmarshal([]byte(cached), &topics); err == nil {
			return topics, nil
		}
	}

	var topics []Topic
	if s.hn != nil {
		hnTopics, err := s.hn.TopStories(ctx)
		if err != nil {
			s.logger.Warn("hacker news fetch failed", zap.Error(err))
		} else {
			topics = append(topics, hnTopics...)
		}
	}
	for _, feed := range s.feeds {
		feedTopics, err := s.rss.Fetch(ctx, feed)
		if err != nil {
			s.logger.Warn("feed fetch failed", zap.String("feed", feed.Name), zap.Error(err))
			continue
		}
		topics = append(topics, feedTopics...)
	}

	topics = rank(topics)
	if len(topics) > 0 {
		if encoded, err := json.Marshal(topics); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(encoded), cacheTTL); err != nil {
				s.logger.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	return topics, nil
}

// rank drops short and duplicate titles, then orders by score descending.
// Dedupe is case-insensitive; the first occurrence wins.
func rank(topics []Topic) []Topic {
	seen := make(map[string]struct{}, len(topics))
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if len(t.Title) < minTitleLen {
			continue
		}
		key := strings.ToLower(t.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
