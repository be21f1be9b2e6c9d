// Package pipeline drives a full content run: pick a topic, write the
// article, attach media, and either publish it or stage it for review.
package pipeline

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/nohatek/autoblog/internal/modules/enricher"
	"github.com/nohatek/autoblog/internal/modules/ghost"
	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"go.uber.org/zap"
)

// ModeAuto publishes straight to the blog; ModeApproval stages drafts for a
// Telegram review first.
const (
	ModeAuto     = "auto"
	ModeApproval = "approval"
)

// Blog is the publishing surface a run needs.
type Blog interface {
	RecentTitles(ctx context.Context, limit int) ([]string, error)
	Publish(ctx context.Context, enriched *enricher.EnrichedArticle, status string) (*ghost.Post, error)
}

// Composer proposes topics and writes articles.
type Composer interface {
	ProposeTopic(ctx context.Context, excludeTitles []string, trendingSummary string) (string, error)
	ComposeArticle(ctx context.Context, topic string) (*synthesizer.Article, error)
}

// MediaSource finds images and videos for an article.
type MediaSource interface {
	ResolveImage(ctx context.Context, title string, keywords []string) *media.Image
	ResolveVideo(ctx context.Context, title string, keywords []string) *media.Video
}

// TrendSource supplies a digest of current headlines for the topic prompt.
type TrendSource interface {
	Summary(ctx context.Context) string
}

// Stager hands a finished draft to the review workflow.
type Stager interface {
	Stage(ctx context.Context, topic string, enriched *enricher.EnrichedArticle) error
}

// Notifier reports run outcomes to the operator.
type Notifier interface {
	SendMessage(ctx context.Context, text string) (int64, error)
}

// Options tune one runner. Zero values fall back to the documented defaults.
type Options struct {
	Mode             string
	MaxRetries       int
	RetryDelay       time.Duration
	RecentTitleLimit int
}

// Runner executes content runs.
type Runner struct {
	blog     Blog
	composer Composer
	mediaSrc MediaSource
	trends   TrendSource
	stager   Stager
	notifier Notifier
	opts     Options
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRunner(blog Blog, composer Composer, mediaSrc MediaSource, trends TrendSource, stager Stager, notifier Notifier, opts Options, logger *zap.Logger) *Runner {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.RecentTitleLimit <= 0 {
		opts.RecentTitleLimit = 20
	}
	return &Runner{
		blog:     blog,
		composer: composer,
		mediaSrc: mediaSrc,
		trends:   trends,
		stager:   stager,
		notifier: notifier,
		opts:     opts,
		logger:   logger.Named("Pipeline"),
		sleep:    sleepCtx,
	}
}

// Run performs one pipeline pass. An empty topic means the runner proposes
// one, steering away from recent post titles and toward current headlines.
func (r *Runner) Run(ctx context.Context, topic string) error {
	start := time.Now()

	if topic == "" {
		recent, err := r.blog.RecentTitles(ctx, r.opts.RecentTitleLimit)
		if err != nil {
			// Dedup is best-effort; a blog read failure should not stop a run.
			r.logger.Warn("recent titles unavailable", zap.Error(err))
		}
		summary := ""
		if r.trends != nil {
			summary = r.trends.Summary(ctx)
		}
		topic, err = r.composer.ProposeTopic(ctx, recent, summary)
		if err != nil {
			return fmt.Errorf("propose topic: %w", err)
		}
	}
	r.logger.Info("run started", zap.String("topic", topic))

	article, err := r.composer.ComposeArticle(ctx, topic)
	if err != nil {
		return fmt.Errorf("compose article: %w", err)
	}

	enriched := enricher.Enrich(article, r.resolveMedia(ctx, article))

	if r.opts.Mode == ModeApproval {
		if err := r.stager.Stage(ctx, topic, enriched); err != nil {
			return fmt.Errorf("stage draft: %w", err)
		}
		r.logger.Info("draft staged for review", zap.String("title", article.Title), zap.Duration("took", time.Since(start)))
		return nil
	}

	post, err := r.blog.Publish(ctx, enriched, "published")
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	r.logger.Info("run finished", zap.String("title", post.Title), zap.Duration("took", time.Since(start)))
	r.notify(ctx, fmt.Sprintf("✅ Published: <b>%s</b>\n%s", html.EscapeString(post.Title), post.URL))
	return nil
}

// RunWithRetry wraps Run in the scheduled-run retry envelope: a fixed delay
// between attempts, a warning to the operator per failure, and a final
// notice when all attempts are spent.
func (r *Runner) RunWithRetry(ctx context.Context) error {
	attempts := r.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = r.Run(ctx, "")
		if lastErr == nil {
			return nil
		}
		r.logger.Error("run failed", zap.Int("attempt", attempt), zap.Int("max_attempts", attempts), zap.Error(lastErr))

		if attempt < attempts {
			r.notify(ctx, fmt.Sprintf("⚠️ Content run failed (attempt %d of %d). Retrying shortly.", attempt, attempts))
			if err := r.sleep(ctx, r.opts.RetryDelay); err != nil {
				return err
			}
			continue
		}
		r.notify(ctx, "❌ Content run failed after all retries. Send /generate to trigger one manually.")
	}
	return lastErr
}

func (r *Runner) resolveMedia(ctx context.Context, article *synthesizer.Article) enricher.ResolvedMedia {
	resolved := enricher.ResolvedMedia{
		Hero:  r.mediaSrc.ResolveImage(ctx, article.Title, article.ImageKeywords),
		Video: r.mediaSrc.ResolveVideo(ctx, article.Title, article.VideoKeywords),
	}
	for _, section := range article.Sections {
		var keywords []string
		if section.ImageKeyword != "" {
			keywords = []string{section.ImageKeyword}
		}
		resolved.SectionImages = append(resolved.SectionImages, r.mediaSrc.ResolveImage(ctx, section.Heading, keywords))
	}
	return resolved
}

func (r *Runner) notify(ctx context.Context, text string) {
	if r.notifier == nil {
		return
	}
	if _, err := r.notifier.SendMessage(ctx, text); err != nil {
		r.logger.Warn("notification failed", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
