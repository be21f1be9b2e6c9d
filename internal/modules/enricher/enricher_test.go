package enricher

import (
	"strings"
	"testing"

	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArticle() *synthesizer.Article {
	return &synthesizer.Article{
		Title:           "Postgres Connection Pooling",
		Slug:            "postgres-connection-pooling",
		MetaDescription: "meta",
		Intro:           "<p>Pools matter.</p>",
		Sections: []synthesizer.Section{
			{Heading: "Why pool at all", Content: "<p>Connections are costly.</p>"},
			{Heading: "PgBouncer & friends", Content: "<p>Use a pooler.</p>"},
		},
		Conclusion: "<p>Pool responsibly.</p>",
	}
}

func TestEnrichOrdering(t *testing.T) {
	video := &media.Video{ID: "v1", Title: "Pooling Explained", ChannelTitle: "DB Weekly"}
	sectionImg := &media.Image{ID: "i1", URL: "https://img/i1", AltText: "pipes"}

	enriched := Enrich(testArticle(), ResolvedMedia{
		Hero:          &media.Image{ID: "hero"},
		SectionImages: []*media.Image{sectionImg, nil},
		Video:         video,
	})

	html := enriched.HTML
	introIdx := strings.Index(html, "Pools matter")
	videoIdx := strings.Index(html, "youtube.com/embed/v1")
	firstHeadingIdx := strings.Index(html, "<h2>Why pool at all</h2>")
	imgIdx := strings.Index(html, "https://img/i1")
	secondHeadingIdx := strings.Index(html, "PgBouncer")
	conclusionIdx := strings.Index(html, "Pool responsibly")

	for name, idx := range map[string]int{
		"intro": introIdx, "video": videoIdx, "first heading": firstHeadingIdx,
		"section image": imgIdx, "second heading": secondHeadingIdx, "conclusion": conclusionIdx,
	} {
		require.GreaterOrEqual(t, idx, 0, "%s missing from document", name)
	}

	// Video sits between the intro and the first section; the image belongs
	// to the first section.
	assert.Less(t, introIdx, videoIdx)
	assert.Less(t, videoIdx, firstHeadingIdx)
	assert.Less(t, firstHeadingIdx, imgIdx)
	assert.Less(t, imgIdx, secondHeadingIdx)
	assert.Less(t, secondHeadingIdx, conclusionIdx)

	// The heading with raw markup characters is escaped.
	assert.Contains(t, html, "PgBouncer &amp; friends")
	// Only the resolved section image is kept.
	require.Len(t, enriched.SectionImages, 1)
	assert.Equal(t, "i1", enriched.SectionImages[0].ID)
}

func TestEnrichWithoutMedia(t *testing.T) {
	enriched := Enrich(testArticle(), ResolvedMedia{})

	assert.NotContains(t, enriched.HTML, "<figure")
	assert.NotContains(t, enriched.HTML, "iframe")
	assert.Nil(t, enriched.Hero)
	assert.Nil(t, enriched.Video)
	assert.Empty(t, enriched.SectionImages)
}

func TestNormalizeBlockPassesHTMLThrough(t *testing.T) {
	in := "<p>Already <strong>HTML</strong>.</p>"
	assert.Equal(t, in, normalizeBlock(in))
}

func TestNormalizeBlockRendersMarkdown(t *testing.T) {
	out := normalizeBlock("Some **bold** text with a [link](https://example.com).")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, `<a href="https://example.com">link</a>`)
}

func TestNormalizeBlockEmpty(t *testing.T) {
	assert.Equal(t, "", normalizeBlock("   \n  "))
}
