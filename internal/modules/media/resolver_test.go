package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nohatek/autoblog/internal/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unsplashStub serves /search/photos with canned results per query and
// counts download triggers.
type unsplashStub struct {
	results   map[string][]string // query -> photo ids
	searches  []string
	downloads atomic.Int32
}

func (u *unsplashStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/photos", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		u.searches = append(u.searches, query)

		photos := make([]map[string]interface{}, 0)
		for _, id := range u.results[query] {
			photos = append(photos, map[string]interface{}{
				"id":   id,
				"urls": map[string]string{"regular": "https://img/" + id, "thumb": "https://thumb/" + id},
				"links": map[string]string{
					"html":              "https://page/" + id,
					"download_location": "http://" + r.Host + "/download/" + id,
				},
				"user":            map[string]interface{}{"name": "Ada", "links": map[string]string{"html": "https://ada"}},
				"alt_description": "alt " + id,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": photos})
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		u.downloads.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/photos/random", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		ids := u.results[query]
		if len(ids) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   ids[0],
			"urls": map[string]string{"regular": "https://img/" + ids[0]},
			"links": map[string]string{
				"download_location": "http://" + r.Host + "/download/" + ids[0],
			},
		})
	})
	return mux
}

func youtubeStub(videoIDs ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]interface{}, 0)
		for _, id := range videoIDs {
			items = append(items, map[string]interface{}{
				"id":      map[string]string{"videoId": id},
				"snippet": map[string]interface{}{"title": "video " + id, "channelTitle": "chan"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	})
}

func newTestResolver(t *testing.T, images http.Handler, videos http.Handler) *Resolver {
	t.Helper()
	imgSrv := httptest.NewServer(images)
	vidSrv := httptest.NewServer(videos)
	t.Cleanup(imgSrv.Close)
	t.Cleanup(vidSrv.Close)
	return NewResolver(
		NewUnsplashClient("test-key", imgSrv.URL),
		NewYouTubeClient("test-key", vidSrv.URL),
		cache.NewMemory(),
		zap.NewNop(),
	)
}

func TestResolveImageFirstHitWins(t *testing.T) {
	stub := &unsplashStub{results: map[string][]string{
		"gitops workflows": {"img-1"},
	}}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	img := r.ResolveImage(context.Background(), "gitops workflows", []string{"never tried"})
	require.NotNil(t, img)
	assert.Equal(t, "img-1", img.ID)
	// Title matched, so keywords and fallbacks are never queried.
	assert.Equal(t, []string{"gitops workflows"}, stub.searches)
	assert.EqualValues(t, 1, stub.downloads.Load())
}

func TestResolveImageFallsBackThroughKeywords(t *testing.T) {
	stub := &unsplashStub{results: map[string][]string{
		"containers": {"img-kw"},
	}}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	img := r.ResolveImage(context.Background(), "An Unphotogenic Title", []string{"nothing here", "containers"})
	require.NotNil(t, img)
	assert.Equal(t, "img-kw", img.ID)
	assert.Equal(t, []string{"An Unphotogenic Title", "nothing here", "containers"}, stub.searches)
}

func TestResolveImageExhaustedReturnsNil(t *testing.T) {
	stub := &unsplashStub{results: map[string][]string{}}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	img := r.ResolveImage(context.Background(), "title", []string{"kw"})
	assert.Nil(t, img)
	// Generic fallback vocabulary was tried before giving up.
	assert.Contains(t, stub.searches, "technology")
}

func TestResolveImageCachesPositiveResults(t *testing.T) {
	stub := &unsplashStub{results: map[string][]string{
		"docker": {"img-1"},
	}}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	first := r.ResolveImage(context.Background(), "docker", nil)
	second := r.ResolveImage(context.Background(), "Docker", nil)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	// One remote search; case-folded key served the second call.
	assert.Equal(t, []string{"docker"}, stub.searches)
}

func TestResolveVideoTopHitAndRetry(t *testing.T) {
	calls := 0
	videos := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Composed query finds nothing; bare title retry succeeds.
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
			return
		}
		youtubeStub("vid-1", "vid-2").ServeHTTP(w, r)
	})
	stub := &unsplashStub{}
	r := newTestResolver(t, stub.handler(), videos)

	video := r.ResolveVideo(context.Background(), "Service Meshes", []string{"istio"})
	require.NotNil(t, video)
	assert.Equal(t, "vid-1", video.ID)
	assert.Equal(t, 2, calls)
}

func TestResolveVideoNoneFound(t *testing.T) {
	stub := &unsplashStub{}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	assert.Nil(t, r.ResolveVideo(context.Background(), "title", nil))
}

func TestRandomImageBypassesCache(t *testing.T) {
	stub := &unsplashStub{results: map[string][]string{
		"kubernetes": {"img-r"},
	}}
	r := newTestResolver(t, stub.handler(), youtubeStub())

	img := r.RandomImage(context.Background(), "kubernetes")
	require.NotNil(t, img)
	assert.Equal(t, "img-r", img.ID)

	assert.Nil(t, r.RandomImage(context.Background(), "no results"), "404 means no image, not an error")
}

func TestAttributionHTML(t *testing.T) {
	img := &Image{PhotographerName: "Ada", PhotographerURL: "https://u/ada", PageURL: "https://u/photo"}
	got := img.AttributionHTML()
	assert.Contains(t, got, "Photo by")
	assert.Contains(t, got, "utm_source=autoblog")
	assert.Contains(t, got, fmt.Sprintf(">%s</a>", "Ada"))
}
