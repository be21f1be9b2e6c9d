// Package approval stages generated drafts for human review over Telegram
// and acts on the reviewer's decision.
package approval

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nohatek/autoblog/internal/modules/enricher"
	"github.com/nohatek/autoblog/internal/modules/ghost"
	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"github.com/nohatek/autoblog/internal/modules/telegram"
	"go.uber.org/zap"
)

const (
	actionApprove  = "approve"
	actionReject   = "reject"
	actionRegen    = "regenerate"
	actionNewImage = "new_image"
)

// Publisher creates posts on the blog.
type Publisher interface {
	Publish(ctx context.Context, enriched *enricher.EnrichedArticle, status string) (*ghost.Post, error)
}

// Composer writes articles.
type Composer interface {
	RegenerateWithFeedback(ctx context.Context, topic, feedback string) (*synthesizer.Article, error)
}

// regenerateFeedback is the standing instruction attached when the reviewer
// asks for another take on the same topic.
const regenerateFeedback = "The previous draft was declined by the editor. Take a different angle on the topic and vary the structure."

// MediaSource finds images and videos for an article.
type MediaSource interface {
	ResolveImage(ctx context.Context, title string, keywords []string) *media.Image
	ResolveVideo(ctx context.Context, title string, keywords []string) *media.Video
	RandomImage(ctx context.Context, query string) *media.Image
}

// Messenger is the Telegram surface the workflow needs.
type Messenger interface {
	SendMessage(ctx context.Context, text string) (int64, error)
	SendMessageWithKeyboard(ctx context.Context, text string, keyboard telegram.Keyboard) (int64, error)
	SendPhoto(ctx context.Context, photoURL, caption string, keyboard telegram.Keyboard) (int64, error)
	EditReplyMarkup(ctx context.Context, messageID int64, keyboard telegram.Keyboard) error
}

// Service runs the review workflow: stage a draft, present it with action
// buttons, and resolve the reviewer's choice.
type Service struct {
	store     *Store
	publisher Publisher
	composer  Composer
	mediaSrc  MediaSource
	messenger Messenger
	logger    *zap.Logger
}

func NewService(store *Store, publisher Publisher, composer Composer, mediaSrc MediaSource, messenger Messenger, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		composer:  composer,
		mediaSrc:  mediaSrc,
		messenger: messenger,
		logger:    logger.Named("Approval"),
	}
}

// Pending reports how many drafts await review.
func (s *Service) Pending() int { return s.store.Len() }

// Stage records a draft and sends its review prompt. The draft is stored
// before the prompt goes out so a fast button press always finds it.
func (s *Service) Stage(ctx context.Context, topic string, enriched *enricher.EnrichedArticle) error {
	draft := Draft{
		ID:        uuid.NewString(),
		Topic:     topic,
		Enriched:  enriched,
		CreatedAt: time.Now(),
	}
	s.store.Put(draft)

	messageID, err := s.sendPrompt(ctx, draft)
	if err != nil {
		s.store.Take(draft.ID)
		return fmt.Errorf("send review prompt: %w", err)
	}
	s.store.Rebind(draft.ID, messageID)
	s.logger.Info("draft staged", zap.String("draft_id", draft.ID), zap.String("title", enriched.Article.Title))
	return nil
}

// HandleCallback resolves one button press. The returned string is shown to
// the reviewer as the callback toast.
func (s *Service) HandleCallback(ctx context.Context, messageID int64, data string) string {
	action, id, ok := strings.Cut(data, ":")
	if !ok {
		return "Malformed action."
	}

	switch action {
	case actionApprove:
		return s.approve(ctx, id)
	case actionReject:
		return s.reject(ctx, id)
	case actionRegen:
		return s.regenerate(id)
	case actionNewImage:
		return s.newImage(ctx, id)
	default:
		return "Unknown action."
	}
}

// approve consumes the draft first, so a publish failure cannot be retried
// against stale content; the reviewer is told to regenerate instead.
func (s *Service) approve(ctx context.Context, id string) string {
	draft, ok := s.store.Take(id)
	if !ok {
		return "This draft has expired or was already processed."
	}
	s.disarm(ctx, draft.MessageID)

	post, err := s.publisher.Publish(ctx, draft.Enriched, "published")
	if err != nil {
		s.logger.Error("publish failed", zap.String("draft_id", id), zap.Error(err))
		s.notify(ctx, fmt.Sprintf("❌ Failed to publish <b>%s</b>. The draft is gone; use /generate to start over.", html.EscapeString(draft.Enriched.Article.Title)))
		return "Publish failed."
	}

	s.notify(ctx, fmt.Sprintf("✅ Published: <b>%s</b>\n%s", html.EscapeString(post.Title), post.URL))
	return "Published."
}

func (s *Service) reject(ctx context.Context, id string) string {
	draft, ok := s.store.Take(id)
	if !ok {
		return "This draft has expired or was already processed."
	}
	s.disarm(ctx, draft.MessageID)
	s.logger.Info("draft rejected", zap.String("draft_id", id))
	s.notify(ctx, fmt.Sprintf("🗑 Rejected: <b>%s</b>", html.EscapeString(draft.Enriched.Article.Title)))
	return "Rejected."
}

// regenerate consumes the draft and rebuilds from its topic in the
// background, since composition takes far longer than the callback window.
func (s *Service) regenerate(id string) string {
	draft, ok := s.store.Take(id)
	if !ok {
		return "This draft has expired or was already processed."
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		s.disarm(ctx, draft.MessageID)
		topic := topicFromTitle(draft.Enriched.Article.Title)
		s.logger.Info("regenerating draft", zap.String("draft_id", id), zap.String("topic", topic))

		article, err := s.composer.RegenerateWithFeedback(ctx, topic, regenerateFeedback)
		if err != nil {
			s.logger.Error("regeneration failed", zap.Error(err))
			s.notify(ctx, "❌ Regeneration failed. Use /generate to try again.")
			return
		}

		enriched := enricher.Enrich(article, s.resolveMedia(ctx, article))
		if err := s.Stage(ctx, topic, enriched); err != nil {
			s.logger.Error("staging regenerated draft failed", zap.Error(err))
		}
	}()
	return "Regenerating…"
}

// newImage keeps the draft alive, swaps in a random hero image, and re-sends
// the preview under the same draft id. The rebuilt content is worked on a
// local copy and installed through the store, so concurrent readers only ever
// see the old rendering or the new one.
func (s *Service) newImage(ctx context.Context, id string) string {
	draft, ok := s.store.Get(id)
	if !ok {
		return "This draft has expired or was already processed."
	}

	article := draft.Enriched.Article
	query := article.Title
	if len(article.ImageKeywords) > 0 {
		query = article.ImageKeywords[0]
	}

	image := s.mediaSrc.RandomImage(ctx, query)
	if image == nil {
		return "No alternative image found."
	}

	resolved := enricher.ResolvedMedia{
		Hero:          image,
		SectionImages: draft.Enriched.SectionImages,
		Video:         draft.Enriched.Video,
	}
	draft.Enriched = enricher.Enrich(article, resolved)

	oldMessageID := draft.MessageID
	messageID, err := s.sendPrompt(ctx, draft)
	if err != nil {
		s.logger.Error("resending prompt failed", zap.Error(err))
		return "Failed to update preview."
	}
	if !s.store.SwapEnriched(id, draft.Enriched, messageID) {
		s.disarm(ctx, messageID)
		return "This draft has expired or was already processed."
	}
	s.disarm(ctx, oldMessageID)
	return "Image swapped."
}

func (s *Service) resolveMedia(ctx context.Context, article *synthesizer.Article) enricher.ResolvedMedia {
	resolved := enricher.ResolvedMedia{
		Hero:  s.mediaSrc.ResolveImage(ctx, article.Title, article.ImageKeywords),
		Video: s.mediaSrc.ResolveVideo(ctx, article.Title, article.VideoKeywords),
	}
	for _, section := range article.Sections {
		var keywords []string
		if section.ImageKeyword != "" {
			keywords = []string{section.ImageKeyword}
		}
		resolved.SectionImages = append(resolved.SectionImages, s.mediaSrc.ResolveImage(ctx, section.Heading, keywords))
	}
	return resolved
}

func (s *Service) sendPrompt(ctx context.Context, draft Draft) (int64, error) {
	keyboard := telegram.Keyboard{
		{
			{Text: "✅ Approve", Data: actionApprove + ":" + draft.ID},
			{Text: "❌ Reject", Data: actionReject + ":" + draft.ID},
		},
		{
			{Text: "🔄 Regenerate", Data: actionRegen + ":" + draft.ID},
			{Text: "🖼 New image", Data: actionNewImage + ":" + draft.ID},
		},
	}

	text := previewText(draft.Enriched)
	if hero := draft.Enriched.Hero; hero != nil && hero.ThumbURL != "" {
		return s.messenger.SendPhoto(ctx, hero.ThumbURL, text, keyboard)
	}
	return s.messenger.SendMessageWithKeyboard(ctx, text, keyboard)
}

func (s *Service) disarm(ctx context.Context, messageID int64) {
	if messageID == 0 {
		return
	}
	if err := s.messenger.EditReplyMarkup(ctx, messageID, nil); err != nil {
		s.logger.Warn("removing keyboard failed", zap.Int64("message_id", messageID), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, text string) {
	if _, err := s.messenger.SendMessage(ctx, text); err != nil {
		s.logger.Warn("notification failed", zap.Error(err))
	}
}

func previewText(enriched *enricher.EnrichedArticle) string {
	article := enriched.Article
	var b strings.Builder
	fmt.Fprintf(&b, "📝 <b>%s</b>\n\n", html.EscapeString(article.Title))
	fmt.Fprintf(&b, "<i>%s</i>\n\n", html.EscapeString(article.MetaDescription))
	for _, section := range article.Sections {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(section.Heading))
	}
	if len(article.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", html.EscapeString(strings.Join(article.Tags, ", ")))
	}
	if enriched.Video != nil {
		fmt.Fprintf(&b, "\n🎬 %s", html.EscapeString(enriched.Video.Title))
	}
	return b.String()
}

// topicFromTitle recovers the underlying topic from a headline like
// "Kubernetes in 2026: What Changed". Text after the last colon reads as the
// subject; without one the whole title serves.
func topicFromTitle(title string) string {
	if idx := strings.LastIndex(title, ":"); idx >= 0 {
		if topic := strings.TrimSpace(title[idx+1:]); topic != "" {
			return topic
		}
	}
	return strings.TrimSpace(title)
}
