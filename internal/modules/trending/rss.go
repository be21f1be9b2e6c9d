package trending

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
)

const rssItemLimit = 10

// FeedSource is one configured RSS feed.
type FeedSource struct {
	Name string
	URL  string
}

// RSSClient fetches and parses RSS 2.0 feeds.
type RSSClient struct {
	http *http.Client
}

func NewRSSClient() *RSSClient {
	return &RSSClient{http: &http.Client{Timeout: 10 * time.Second}}
}

type rssDocument struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Fetch reads one feed and returns its leading items as topics. RSS items
// carry no vote counts, so rank is positional.
func (c *RSSClient) Fetch(ctx context.Context, source FeedSource) ([]Topic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "autoblog/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &apperr.RemoteError{Service: "rss:" + source.Name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.Name, err)
	}

	items := doc.Channel.Items
	if len(items) > rssItemLimit {
		items = items[:rssItemLimit]
	}
	topics := make([]Topic, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		topics = append(topics, Topic{
			Title:  title,
			Source: source.Name,
			URL:    strings.TrimSpace(item.Link),
			Score:  rssItemLimit - i,
		})
	}
	return topics, nil
}
