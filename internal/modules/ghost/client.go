// Package ghost is the publish gateway for the Ghost Admin API.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nohatek/autoblog/internal/modules/enricher"
	"github.com/nohatek/autoblog/internal/pkg/apperr"
	"github.com/nohatek/autoblog/internal/pkg/ghostjwt"
	"go.uber.org/zap"
)

// Post is the subset of the remote post document the pipeline consumes.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

// Client publishes and reads posts. A fresh admin token is signed for every
// call; tokens are never cached past their expiry.
type Client struct {
	baseURL string
	key     ghostjwt.Key
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewClient parses the split admin key and builds the gateway.
func NewClient(baseURL, adminKey string, logger *zap.Logger) (*Client, error) {
	key, err := ghostjwt.ParseKey(adminKey)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Named("Ghost"),
		now:     time.Now,
	}, nil
}

// Publish creates a post from enriched content. status is "draft" or
// "published". The hero image, when present, becomes the feature image with
// its attribution as caption.
func (c *Client) Publish(ctx context.Context, enriched *enricher.EnrichedArticle, status string) (*Post, error) {
	article := enriched.Article

	tags := make([]map[string]string, 0, len(article.Tags))
	for _, tag := range article.Tags {
		tags = append(tags, map[string]string{"name": tag})
	}

	post := map[string]interface{}{
		"title":            article.Title,
		"slug":             article.Slug,
		"html":             enriched.HTML,
		"status":           status,
		"meta_description": article.MetaDescription,
		"custom_excerpt":   article.MetaDescription,
		"tags":             tags,
	}
	if enriched.Hero != nil {
		post["feature_image"] = enriched.Hero.URL
		post["feature_image_alt"] = enriched.Hero.AltText
		post["feature_image_caption"] = enriched.Hero.AttributionHTML()
	}

	created, err := c.doPost(ctx, http.MethodPost, "/ghost/api/admin/posts/?source=html", post)
	if err != nil {
		return nil, err
	}
	c.logger.Info("published post", zap.String("title", created.Title), zap.String("id", created.ID))
	return created, nil
}

// Update modifies an existing post. The current post is re-read first so the
// payload echoes its latest revision timestamp; the server rejects updates
// carrying a stale one.
func (c *Client) Update(ctx context.Context, postID string, fields map[string]interface{}) (*Post, error) {
	current, err := c.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["updated_at"] = current.UpdatedAt

	updated, err := c.doPost(ctx, http.MethodPut, "/ghost/api/admin/posts/"+postID+"/?source=html", payload)
	if err != nil {
		return nil, err
	}
	c.logger.Info("updated post", zap.String("id", updated.ID))
	return updated, nil
}

// Get reads one post by id.
func (c *Client) Get(ctx context.Context, postID string) (*Post, error) {
	body, err := c.do(ctx, http.MethodGet, "/ghost/api/admin/posts/"+postID+"/", nil)
	if err != nil {
		return nil, err
	}
	return firstPost(body)
}

// Delete removes a post by id.
func (c *Client) Delete(ctx context.Context, postID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/ghost/api/admin/posts/"+postID+"/", nil)
	if err != nil {
		return err
	}
	c.logger.Info("deleted post", zap.String("id", postID))
	return nil
}

// ListRecent returns the newest posts up to limit.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]Post, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ghost/api/admin/posts/?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("ghost list response: %w", err)
	}
	return envelope.Posts, nil
}

// RecentTitles returns recent post titles for topic deduplication.
func (c *Client) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	posts, err := c.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return titles, nil
}

// TestConnection reports whether the API answers an authenticated read.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.ListRecent(ctx, 1)
	if err != nil {
		c.logger.Warn("connection test failed", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) doPost(ctx context.Context, method, path string, post map[string]interface{}) (*Post, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"posts": []map[string]interface{}{post},
	})
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	return firstPost(body)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	token, err := ghostjwt.Sign(c.key, c.now())
	if err != nil {
		return nil, fmt.Errorf("sign admin token: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, &apperr.RemoteError{Service: "ghost", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func firstPost(body []byte) (*Post, error) {
	var envelope struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("ghost post response: %w", err)
	}
	if len(envelope.Posts) == 0 {
		return nil, fmt.Errorf("ghost response contained no posts")
	}
	return &envelope.Posts[0], nil
}
