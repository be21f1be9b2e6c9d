package approval

import (
	"sort"
	"sync"
	"time"

	"github.com/nohatek/autoblog/internal/modules/enricher"
)

// Draft is a staged article awaiting a human decision. Enriched is never
// mutated once stored; swapping media installs a freshly built value via
// SwapEnriched.
type Draft struct {
	ID        string
	Topic     string
	Enriched  *enricher.EnrichedArticle
	MessageID int64
	CreatedAt time.Time
}

// Store holds pending drafts in memory, addressable by draft id and by the
// Telegram message that presented them. All mutation happens inside the
// store; accessors hand out copies, so callers never share live draft state.
// Drafts do not survive a restart; anything unreviewed at shutdown is simply
// re-proposed on the next run.
type Store struct {
	mu        sync.Mutex
	drafts    map[string]*Draft
	byMessage map[int64]string
}

func NewStore() *Store {
	return &Store{
		drafts:    make(map[string]*Draft),
		byMessage: make(map[int64]string),
	}
}

func (s *Store) Put(draft Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = &draft
	if draft.MessageID != 0 {
		s.byMessage[draft.MessageID] = draft.ID
	}
}

func (s *Store) Get(id string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return Draft{}, false
	}
	return *draft, true
}

// Take removes the draft and its message index entry, returning it. A second
// Take for the same id finds nothing, which is what makes repeated button
// presses harmless.
func (s *Store) Take(id string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return Draft{}, false
	}
	delete(s.drafts, id)
	if draft.MessageID != 0 {
		delete(s.byMessage, draft.MessageID)
	}
	return *draft, true
}

// Rebind moves a draft's message index to a new Telegram message, after a
// media swap re-sends the preview.
func (s *Store) Rebind(id string, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return
	}
	if draft.MessageID != 0 {
		delete(s.byMessage, draft.MessageID)
	}
	draft.MessageID = messageID
	s.byMessage[messageID] = id
}

// SwapEnriched replaces a draft's rendered content and moves its message
// index to the new preview, in one critical section. It reports false when
// the draft was consumed in the meantime.
func (s *Store) SwapEnriched(id string, enriched *enricher.EnrichedArticle, messageID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok {
		return false
	}
	draft.Enriched = enriched
	if draft.MessageID != 0 {
		delete(s.byMessage, draft.MessageID)
	}
	draft.MessageID = messageID
	s.byMessage[messageID] = id
	return true
}

// List snapshots the pending drafts, newest first.
func (s *Store) List() []Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Draft, 0, len(s.drafts))
	for _, draft := range s.drafts {
		out = append(out, *draft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
