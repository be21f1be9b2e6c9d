package ghost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nohatek/autoblog/internal/modules/enricher"
	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"github.com/nohatek/autoblog/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminKey = "6410a34b1d:deadbeefcafe"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, testAdminKey, zap.NewNop())
	require.NoError(t, err)
	return client, srv
}

func testEnriched() *enricher.EnrichedArticle {
	return &enricher.EnrichedArticle{
		Article: &synthesizer.Article{
			Title:           "Terraform State Deep Dive",
			Slug:            "terraform-state-deep-dive",
			MetaDescription: "What actually lives in your state file.",
			Tags:            []string{"terraform", "iac"},
		},
		Hero: &media.Image{
			URL:     "https://images.example.com/hero.jpg",
			AltText: "terraform",
		},
		HTML: "<p>body</p>",
	}
}

func writePosts(w http.ResponseWriter, posts ...Post) {
	_ = json.NewEncoder(w).Encode(map[string][]Post{"posts": posts})
}

func TestPublish(t *testing.T) {
	var captured map[string][]map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ghost/api/admin/posts/", r.URL.Path)
		assert.Equal(t, "html", r.URL.Query().Get("source"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Ghost "))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writePosts(w, Post{ID: "p1", Title: "Terraform State Deep Dive", Status: "published", URL: "https://blog.example.com/terraform-state-deep-dive/"})
	}))

	post, err := client.Publish(context.Background(), testEnriched(), "published")
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)

	require.Len(t, captured["posts"], 1)
	sent := captured["posts"][0]
	assert.Equal(t, "Terraform State Deep Dive", sent["title"])
	assert.Equal(t, "<p>body</p>", sent["html"])
	assert.Equal(t, "published", sent["status"])
	assert.Equal(t, "https://images.example.com/hero.jpg", sent["feature_image"])
	assert.NotEmpty(t, sent["feature_image_caption"])
}

func TestPublishWithoutHeroOmitsFeatureImage(t *testing.T) {
	var captured map[string][]map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writePosts(w, Post{ID: "p1"})
	}))

	enriched := testEnriched()
	enriched.Hero = nil
	_, err := client.Publish(context.Background(), enriched, "draft")
	require.NoError(t, err)

	sent := captured["posts"][0]
	assert.NotContains(t, sent, "feature_image")
}

func TestUpdateEchoesCurrentRevision(t *testing.T) {
	revision := 0
	var lastSentUpdatedAt string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writePosts(w, Post{ID: "p1", UpdatedAt: fmt.Sprintf("rev-%d", revision)})
		case http.MethodPut:
			var body map[string][]map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			lastSentUpdatedAt, _ = body["posts"][0]["updated_at"].(string)
			if lastSentUpdatedAt != fmt.Sprintf("rev-%d", revision) {
				w.WriteHeader(http.StatusConflict)
				return
			}
			revision++
			writePosts(w, Post{ID: "p1", UpdatedAt: fmt.Sprintf("rev-%d", revision)})
		}
	}))

	// Two consecutive updates must each re-read, or the second one would
	// carry a stale revision and conflict.
	for i := 0; i < 2; i++ {
		_, err := client.Update(context.Background(), "p1", map[string]interface{}{"status": "published"})
		require.NoError(t, err, "update %d", i+1)
	}
	assert.Equal(t, "rev-1", lastSentUpdatedAt)
}

func TestRecentTitles(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writePosts(w, Post{Title: "First"}, Post{Title: "Second"})
	}))

	titles, err := client.RecentTitles(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, titles)
}

func TestNon2xxSurfacesRemoteError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad token"}]}`))
	}))

	_, err := client.ListRecent(context.Background(), 1)
	require.Error(t, err)

	var remote *apperr.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "ghost", remote.Service)
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Contains(t, remote.Body, "bad token")
}

func TestTestConnection(t *testing.T) {
	healthy, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePosts(w)
	}))
	assert.True(t, healthy.TestConnection(context.Background()))

	broken, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	assert.False(t, broken.TestConnection(context.Background()))
}

func TestDelete(t *testing.T) {
	deleted := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/ghost/api/admin/posts/p1/", r.URL.Path)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.Delete(context.Background(), "p1"))
	assert.True(t, deleted)
}
