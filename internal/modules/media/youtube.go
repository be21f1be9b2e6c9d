package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
)

const defaultYouTubeEndpoint = "https://www.googleapis.com/youtube/v3"

// YouTubeClient talks to the video search service.
type YouTubeClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewYouTubeClient builds a client. endpoint may be empty for production.
func NewYouTubeClient(apiKey, endpoint string) *YouTubeClient {
	if endpoint == "" {
		endpoint = defaultYouTubeEndpoint
	}
	return &YouTubeClient{
		apiKey:   apiKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns embeddable, safe-search videos for the query. Empty results
// are a normal outcome.
func (c *YouTubeClient) Search(ctx context.Context, query string, maxResults int) ([]*Video, error) {
	params := neturl.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("videoEmbeddable", "true")
	params.Set("safeSearch", "moderate")
	params.Set("relevanceLanguage", "en")
	params.Set("order", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

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
		return nil, &apperr.RemoteError{Service: "youtube", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					High struct {
						URL string `json:"url"`
					} `json:"high"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("youtube search response: %w", err)
	}

	videos := make([]*Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, &Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
		})
	}
	return videos, nil
}
