package approval

import (
	"testing"
	"time"

	"github.com/nohatek/autoblog/internal/modules/enricher"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichedWith(title string) *enricher.EnrichedArticle {
	return enricher.Enrich(&synthesizer.Article{
		Title:           title,
		Slug:            "slug",
		MetaDescription: "m",
		Sections:        []synthesizer.Section{{Heading: "h", Content: "<p>c</p>"}},
	}, enricher.ResolvedMedia{})
}

func TestStoreListReturnsSnapshots(t *testing.T) {
	store := NewStore()
	store.Put(Draft{ID: "d1", Topic: "kubernetes", Enriched: enrichedWith("One"), MessageID: 10, CreatedAt: time.Now()})

	listed := store.List()
	require.Len(t, listed, 1)

	// Scribbling on the snapshot must not reach the stored draft.
	listed[0].Topic = "scribbled"
	listed[0].MessageID = 999
	listed[0].Enriched = enrichedWith("Replaced")

	kept, ok := store.Get("d1")
	require.True(t, ok)
	assert.Equal(t, "kubernetes", kept.Topic)
	assert.EqualValues(t, 10, kept.MessageID)
	assert.Equal(t, "One", kept.Enriched.Article.Title)
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewStore()
	store.Put(Draft{ID: "d1", Topic: "go", Enriched: enrichedWith("One"), CreatedAt: time.Now()})

	got, ok := store.Get("d1")
	require.True(t, ok)
	got.Enriched = enrichedWith("Mutated")

	kept, ok := store.Get("d1")
	require.True(t, ok)
	assert.Equal(t, "One", kept.Enriched.Article.Title)
}

func TestStoreSwapEnriched(t *testing.T) {
	store := NewStore()
	store.Put(Draft{ID: "d1", Enriched: enrichedWith("Before"), MessageID: 10, CreatedAt: time.Now()})

	require.True(t, store.SwapEnriched("d1", enrichedWith("After"), 20))

	kept, ok := store.Get("d1")
	require.True(t, ok)
	assert.Equal(t, "After", kept.Enriched.Article.Title)
	assert.EqualValues(t, 20, kept.MessageID)

	// The old message id no longer resolves; a consumed draft cannot be
	// swapped at all.
	taken, ok := store.Take("d1")
	require.True(t, ok)
	assert.EqualValues(t, 20, taken.MessageID)
	assert.False(t, store.SwapEnriched("d1", enrichedWith("Late"), 30))
}

func TestStoreListNewestFirst(t *testing.T) {
	store := NewStore()
	base := time.Now()
	store.Put(Draft{ID: "old", Enriched: enrichedWith("Old"), CreatedAt: base.Add(-time.Hour)})
	store.Put(Draft{ID: "new", Enriched: enrichedWith("New"), CreatedAt: base})

	listed := store.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "new", listed[0].ID)
	assert.Equal(t, "old", listed[1].ID)
}
