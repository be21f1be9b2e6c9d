package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
)

const defaultUnsplashEndpoint = "https://api.unsplash.com"

// UnsplashClient talks to the image search service.
type UnsplashClient struct {
	accessKey string
	endpoint  string
	http      *http.Client
}

// NewUnsplashClient builds a client. endpoint may be empty for production.
func NewUnsplashClient(accessKey, endpoint string) *UnsplashClient {
	if endpoint == "" {
		endpoint = defaultUnsplashEndpoint
	}
	return &UnsplashClient{
		accessKey: accessKey,
		endpoint:  endpoint,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type unsplashPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Regular string `json:"regular"`
		Thumb   string `json:"thumb"`
	} `json:"urls"`
	Links struct {
		HTML             string `json:"html"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	AltDescription string `json:"alt_description"`
	Description    string `json:"description"`
}

func (p unsplashPhoto) toImage(fallbackAlt string) *Image {
	alt := p.AltDescription
	if alt == "" {
		alt = p.Description
	}
	if alt == "" {
		alt = fallbackAlt
	}
	return &Image{
		ID:               p.ID,
		URL:              p.URLs.Regular,
		ThumbURL:         p.URLs.Thumb,
		DownloadURL:      p.Links.DownloadLocation,
		PhotographerName: p.User.Name,
		PhotographerURL:  p.User.Links.HTML,
		PageURL:          p.Links.HTML,
		AltText:          alt,
	}
}

// Search returns landscape, safe-content photos matching the query. An empty
// result set is a normal outcome.
func (c *UnsplashClient) Search(ctx context.Context, query string, perPage int) ([]*Image, error) {
	params := neturl.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")

	body, err := c.get(ctx, "/search/photos", params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Results []unsplashPhoto `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unsplash search response: %w", err)
	}

	images := make([]*Image, 0, len(result.Results))
	for _, photo := range result.Results {
		images = append(images, photo.toImage(query))
	}
	return images, nil
}

// Random returns one random photo matching the query, or nil when the
// service has none.
func (c *UnsplashClient) Random(ctx context.Context, query string) (*Image, error) {
	params := neturl.Values{}
	params.Set("query", query)
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")

	body, err := c.get(ctx, "/photos/random", params)
	if err != nil {
		var remote *apperr.RemoteError
		if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var photo unsplashPhoto
	if err := json.Unmarshal(body, &photo); err != nil {
		return nil, fmt.Errorf("unsplash random response: %w", err)
	}
	return photo.toImage(query), nil
}

// TriggerDownload invokes the provider's download-tracking callback, required
// when an image is actually used. Callers log errors and move on.
func (c *UnsplashClient) TriggerDownload(ctx context.Context, img *Image) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.DownloadURL, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("download trigger returned %d", resp.StatusCode)
	}
	return nil
}

func (c *UnsplashClient) get(ctx context.Context, path string, params neturl.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

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
		return nil, &apperr.RemoteError{Service: "unsplash", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *UnsplashClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")
}
