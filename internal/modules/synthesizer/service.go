package synthesizer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Service generates topics and full articles through a Completer.
type Service struct {
	completer  Completer
	focusAreas []string
	logger     *zap.Logger
}

// NewService builds a synthesizer around the given backend.
func NewService(completer Completer, focusAreas []string, logger *zap.Logger) *Service {
	return &Service{
		completer:  completer,
		focusAreas: focusAreas,
		logger:     logger.Named("Synthesizer"),
	}
}

// ProposeTopic asks the backend for a single topic title, avoiding the given
// recent titles. trendingSummary may be empty. The exclusion is prompt-level
// only; the backend ignoring it is an accepted risk.
func (s *Service) ProposeTopic(ctx context.Context, excludeTitles []string, trendingSummary string) (string, error) {
	prompt := buildTopicPrompt(s.focusAreas, excludeTitles, trendingSummary)
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	topic := strings.Trim(strings.TrimSpace(raw), "\"'")
	s.logger.Info("proposed topic", zap.String("topic", topic))
	return topic, nil
}

// ProposeTopics generates n distinct candidates, feeding each earlier
// candidate back into the exclusion list.
func (s *Service) ProposeTopics(ctx context.Context, n int, excludeTitles []string) ([]string, error) {
	topics := make([]string, 0, n)
	for i := 0; i < n; i++ {
		topic, err := s.ProposeTopic(ctx, append(excludeTitles, topics...), "")
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// ComposeArticle generates a full structured article for the topic.
func (s *Service) ComposeArticle(ctx context.Context, topic string) (*Article, error) {
	return s.compose(ctx, topic, buildArticlePrompt(topic))
}

// RegenerateWithFeedback re-composes the article incorporating free-text
// operator feedback.
func (s *Service) RegenerateWithFeedback(ctx context.Context, topic, feedback string) (*Article, error) {
	return s.compose(ctx, topic, buildRegeneratePrompt(topic, feedback))
}

func (s *Service) compose(ctx context.Context, topic, prompt string) (*Article, error) {
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	article, err := ParseArticle(raw, topic)
	if err != nil {
		s.logger.Error("article parse failed",
			zap.Error(err),
			zap.String("response_head", head(raw, 500)),
		)
		return nil, err
	}

	s.logger.Info("composed article",
		zap.String("title", article.Title),
		zap.Int("sections", len(article.Sections)),
	)
	return article, nil
}

type rawArticle struct {
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	MetaDescription *string   `json:"meta_description"`
	Intro           string    `json:"intro"`
	Sections        []Section `json:"sections"`
	Conclusion      string    `json:"conclusion"`
	Tags            []string  `json:"tags"`
	ImageKeywords   []string  `json:"image_keywords"`
	VideoKeywords   []string  `json:"video_keywords"`
}

// ParseArticle sanitizes and parses a backend response into an Article.
// Required fields missing after sanitization surface as MalformedResponse;
// tags, keywords, intro and conclusion fall back to safe defaults.
func ParseArticle(raw, topic string) (*Article, error) {
	cleaned := stripFences(raw)
	if obj := extractJSONObject(cleaned); obj != "" {
		cleaned = obj
	}
	cleaned = repairControlChars(cleaned)

	var parsed rawArticle
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, apperr.Malformed("invalid JSON: %v", err)
	}

	if parsed.Title == nil || strings.TrimSpace(*parsed.Title) == "" {
		return nil, apperr.Malformed("missing field %q", "title")
	}
	if parsed.Slug == nil || strings.TrimSpace(*parsed.Slug) == "" {
		return nil, apperr.Malformed("missing field %q", "slug")
	}
	if parsed.MetaDescription == nil || strings.TrimSpace(*parsed.MetaDescription) == "" {
		return nil, apperr.Malformed("missing field %q", "meta_description")
	}
	if len(parsed.Sections) == 0 {
		return nil, apperr.Malformed("missing field %q", "sections")
	}
	for i, sec := range parsed.Sections {
		if strings.TrimSpace(sec.Heading) == "" || strings.TrimSpace(sec.Content) == "" {
			return nil, apperr.Malformed("section %d missing heading or content", i)
		}
	}

	article := &Article{
		Title:           strings.TrimSpace(*parsed.Title),
		Slug:            slugify(*parsed.Slug),
		MetaDescription: strings.TrimSpace(*parsed.MetaDescription),
		Intro:           parsed.Intro,
		Sections:        parsed.Sections,
		Conclusion:      parsed.Conclusion,
		Tags:            capStrings(parsed.Tags, maxTags),
		ImageKeywords:   capStrings(parsed.ImageKeywords, maxImageKeywords),
		VideoKeywords:   capStrings(parsed.VideoKeywords, maxVideoKeywords),
	}

	if strings.TrimSpace(article.Intro) == "" {
		article.Intro = "<p></p>"
	}
	if strings.TrimSpace(article.Conclusion) == "" {
		article.Conclusion = "<p></p>"
	}
	if len(article.ImageKeywords) == 0 {
		article.ImageKeywords = []string{topic}
	}
	if len(article.VideoKeywords) == 0 {
		article.VideoKeywords = []string{topic}
	}
	return article, nil
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func capStrings(in []string, max int) []string {
	out := make([]string, 0, max)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

func head(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
