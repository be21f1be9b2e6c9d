package media

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/cache"
	"go.uber.org/zap"
)

// fallbackTerms is tried when no domain-specific query returns an image.
var fallbackTerms = []string{"technology", "coding", "computer", "digital"}

const cacheTTL = time.Hour

// Resolver finds best-effort media for a topic. Absence is success: both
// Resolve methods return nil without error when nothing is found.
type Resolver struct {
	images *UnsplashClient
	videos *YouTubeClient
	cache  cache.Store
	logger *zap.Logger
}

// NewResolver wires the search clients with a TTL cache.
func NewResolver(images *UnsplashClient, videos *YouTubeClient, store cache.Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		images: images,
		videos: videos,
		cache:  store,
		logger: logger.Named("MediaResolver"),
	}
}

// ResolveImage tries the title, then up to three keywords, then the generic
// fallback vocabulary. The first query with any result wins. A found image
// triggers the provider's download event; that call failing is logged only.
func (r *Resolver) ResolveImage(ctx context.Context, title string, keywords []string) *Image {
	queries := []string{title}
	for i, kw := range keywords {
		if i == 3 {
			break
		}
		queries = append(queries, kw)
	}
	queries = append(queries, fallbackTerms...)

	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		img := r.searchCached(ctx, query)
		if img == nil {
			continue
		}
		if err := r.images.TriggerDownload(ctx, img); err != nil {
			r.logger.Warn("download trigger failed", zap.String("image", img.ID), zap.Error(err))
		}
		return img
	}

	r.logger.Info("no image found", zap.String("title", title))
	return nil
}

// RandomImage fetches one fresh random image for the query, bypassing the
// cache. Used by the swap-media approval action.
func (r *Resolver) RandomImage(ctx context.Context, query string) *Image {
	img, err := r.images.Random(ctx, query)
	if err != nil {
		r.logger.Warn("random image lookup failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if img == nil {
		return nil
	}
	if err := r.images.TriggerDownload(ctx, img); err != nil {
		r.logger.Warn("download trigger failed", zap.String("image", img.ID), zap.Error(err))
	}
	return img
}

// ResolveVideo builds one query from the title, up to two keywords and an
// explainer qualifier, takes the top result, and retries once with the bare
// title before giving up.
func (r *Resolver) ResolveVideo(ctx context.Context, title string, keywords []string) *Video {
	terms := []string{title}
	for i, kw := range keywords {
		if i == 2 {
			break
		}
		terms = append(terms, kw)
	}
	query := strings.Join(terms, " ") + " tutorial explained"

	for _, q := range []string{query, title} {
		videos, err := r.videos.Search(ctx, q, 3)
		if err != nil {
			r.logger.Warn("video search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if len(videos) > 0 {
			r.logger.Info("selected video", zap.String("title", videos[0].Title))
			return videos[0]
		}
	}

	r.logger.Info("no video found", zap.String("title", title))
	return nil
}

func (r *Resolver) searchCached(ctx context.Context, query string) *Image {
	key := "img:" + strings.ToLower(query)
	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		var img Image
		if json.Unmarshal([]byte(cached), &img) == nil {
			return &img
		}
	}

	images, err := r.images.Search(ctx, query, 3)
	if err != nil {
		r.logger.Warn("image search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(images) == 0 {
		return nil
	}

	img := images[0]
	if encoded, err := json.Marshal(img); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), cacheTTL); err != nil {
			r.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return img
}
