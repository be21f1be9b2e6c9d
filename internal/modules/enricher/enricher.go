// Package enricher merges a synthesized article with resolved media into the
// final publishable markup. It performs no network calls; all media must be
// resolved before Enrich runs.
package enricher

import (
	"fmt"
	"html"
	"strings"

	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
)

// ResolvedMedia is the best-effort media for one article. Hero and Video may
// be nil; SectionImages is parallel to the article's sections and individual
// entries may be nil.
type ResolvedMedia struct {
	Hero          *media.Image
	SectionImages []*media.Image
	Video         *media.Video
}

// EnrichedArticle is an article plus media plus the assembled HTML document.
// Built once, immutable, handed directly to the publish gateway.
type EnrichedArticle struct {
	Article       *synthesizer.Article
	Hero          *media.Image
	SectionImages []*media.Image
	Video         *media.Video
	HTML          string
}

// Enrich assembles the document: intro, optional video embed, then each
// section's heading, optional image and body, then the conclusion. A section
// whose image resolution failed simply renders without one.
func Enrich(article *synthesizer.Article, resolved ResolvedMedia) *EnrichedArticle {
	parts := make([]string, 0, 4+3*len(article.Sections))

	parts = append(parts, normalizeBlock(article.Intro))

	if resolved.Video != nil {
		parts = append(parts, videoEmbedHTML(resolved.Video))
	}

	kept := make([]*media.Image, 0, len(resolved.SectionImages))
	for i, section := range article.Sections {
		parts = append(parts, "<h2>"+html.EscapeString(section.Heading)+"</h2>")

		if i < len(resolved.SectionImages) && resolved.SectionImages[i] != nil {
			img := resolved.SectionImages[i]
			parts = append(parts, imageFigureHTML(img, section.Heading))
			kept = append(kept, img)
		}

		parts = append(parts, normalizeBlock(section.Content))
	}

	parts = append(parts, normalizeBlock(article.Conclusion))

	return &EnrichedArticle{
		Article:       article,
		Hero:          resolved.Hero,
		SectionImages: kept,
		Video:         resolved.Video,
		HTML:          strings.Join(parts, "\n\n"),
	}
}

func imageFigureHTML(img *media.Image, altContext string) string {
	alt := img.AltText
	if alt == "" {
		alt = altContext
	}
	return fmt.Sprintf(
		`<figure class="kg-card kg-image-card kg-card-hascaption"><img src="%s" alt="%s" loading="lazy"><figcaption>%s</figcaption></figure>`,
		img.URL, html.EscapeString(alt), img.AttributionHTML(),
	)
}

func videoEmbedHTML(v *media.Video) string {
	title := html.EscapeString(v.Title)
	return fmt.Sprintf(
		`<figure class="kg-card kg-embed-card"><iframe width="560" height="315" src="%s" title="%s" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share" allowfullscreen></iframe><figcaption>%s - %s</figcaption></figure>`,
		v.EmbedURL(), title, title, html.EscapeString(v.ChannelTitle),
	)
}
