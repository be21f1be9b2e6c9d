package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHNEndpoint = "https://hacker-news.firebaseio.com/v0"
	hnStoryLimit      = 20
	hnItemTimeout     = 5 * time.Second
)

// Meta threads are noise for topic mining.
var hnSkipPrefixes = []string{"Ask HN:", "Tell HN:", "Show HN:", "Hiring:"}

// HNClient reads top stories from the Hacker News Firebase API.
type HNClient struct {
	endpoint string
	http     *http.Client
}

func NewHNClient(endpoint string) *HNClient {
	if endpoint == "" {
		endpoint = defaultHNEndpoint
	}
	return &HNClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type hnItem struct {
	Title string `json:"title"`
	Score int    `json:"score"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// TopStories fetches the leading story ids and resolves them concurrently.
// Individual item failures are dropped rather than failing the batch.
func (c *HNClient) TopStories(ctx context.Context) ([]Topic, error) {
	var ids []int
	if err := c.getJSON(ctx, c.endpoint+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > hnStoryLimit {
		ids = ids[:hnStoryLimit]
	}

	topics := make([]*Topic, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(gctx, hnItemTimeout)
			defer cancel()

			var item hnItem
			url := fmt.Sprintf("%s/item/%d.json", c.endpoint, id)
			if err := c.getJSON(itemCtx, url, &item); err != nil {
				return nil
			}
			if item.Type != "story" || skipHNTitle(item.Title) {
				return nil
			}
			topics[i] = &Topic{Title: item.Title, Source: "Hacker News", URL: item.URL, Score: item.Score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (c *HNClient) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apperr.RemoteError{Service: "hackernews", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, dst)
}

func skipHNTitle(title string) bool {
	for _, prefix := range hnSkipPrefixes {
		if strings.HasPrefix(title, prefix) {
			return true
		}
	}
	return false
}
