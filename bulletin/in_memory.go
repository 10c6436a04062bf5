package bulletin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/hupe1980/schoolmesh/core"
)

// stopwords are ignored when matching queries so that question phrasing
// ("when is the ...") does not match every bulletin.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "are": {}, "at": {}, "for": {}, "in": {},
	"is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"there": {}, "to": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"will": {}, "with": {}, "about": {}, "tell": {}, "upcoming": {}, "next": {},
}

// InMemoryStore is a process-local BulletinStore.
//
// Search tokenises the query, drops stopwords and matches the remaining
// terms case-insensitively against title and body. The score is the share
// of query terms found. Results are ordered by date, then id. A query
// without terms lists every bulletin of the kind.
//
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu        sync.RWMutex
	bulletins map[string]core.Bulletin
	counter   int
}

// NewInMemoryStore creates a store seeded with bulletins.
func NewInMemoryStore(seed ...core.Bulletin) (*InMemoryStore, error) {
	s := &InMemoryStore{bulletins: make(map[string]core.Bulletin)}
	for _, b := range seed {
		if _, err := s.Post(b); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Post stores b and returns its id. An empty id is generated from the kind.
func (s *InMemoryStore) Post(b core.Bulletin) (string, error) {
	if b.Kind != core.BulletinEvent && b.Kind != core.BulletinAnnouncement {
		return "", fmt.Errorf("unknown bulletin kind %q", b.Kind)
	}
	if strings.TrimSpace(b.Title) == "" {
		return "", fmt.Errorf("bulletin title is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		s.counter++
		b.ID = fmt.Sprintf("%s_%d", b.Kind, s.counter)
	}
	if _, exists := s.bulletins[b.ID]; exists {
		return "", fmt.Errorf("bulletin %q already exists", b.ID)
	}
	b.GradeLevels = append([]int(nil), b.GradeLevels...)
	s.bulletins[b.ID] = b
	return b.ID, nil
}

// List returns every bulletin of kind ordered by date, then id.
func (s *InMemoryStore) List(kind core.BulletinKind) []core.Bulletin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Bulletin, 0, len(s.bulletins))
	for _, b := range s.bulletins {
		if b.Kind == kind {
			b.GradeLevels = append([]int(nil), b.GradeLevels...)
			out = append(out, b)
		}
	}
	sortBulletins(out)
	return out
}

// Search returns matching bulletins of kind. limit <= 0 means unlimited.
func (s *InMemoryStore) Search(kind core.BulletinKind, query string, limit int) ([]core.SearchResult, error) {
	terms := Terms(query)
	candidates := s.List(kind)

	results := make([]core.SearchResult, 0, len(candidates))
	for _, b := range candidates {
		score := 1.0
		if len(terms) > 0 {
			score = match(terms, b)
			if score == 0 {
				continue
			}
		}
		results = append(results, toResult(b, score))
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Terms splits query into lower-case search terms without stopwords.
func Terms(query string) []string {
	fields := tokens(query)
	terms := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// match scores b by the share of terms found as whole words in its title
// and body. A trailing plural "s" is ignored on both sides.
func match(terms []string, b core.Bulletin) float64 {
	words := make(map[string]struct{})
	for _, w := range tokens(b.Title + " " + b.Body) {
		words[w] = struct{}{}
		words[singular(w)] = struct{}{}
	}
	hits := 0
	for _, t := range terms {
		if _, ok := words[t]; ok {
			hits++
			continue
		}
		if _, ok := words[singular(t)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

func toResult(b core.Bulletin, score float64) core.SearchResult {
	md := map[string]any{
		"kind":  string(b.Kind),
		"title": b.Title,
	}
	if !b.Date.IsZero() {
		md["date"] = b.Date.Format("2006-01-02")
	}
	if len(b.GradeLevels) > 0 {
		md["gradeLevels"] = append([]int(nil), b.GradeLevels...)
	}
	return core.SearchResult{
		ID:       b.ID,
		Content:  b.Title + ": " + b.Body,
		Score:    score,
		Metadata: md,
	}
}

func sortBulletins(bs []core.Bulletin) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].Date.Equal(bs[j].Date) {
			return bs[i].Date.Before(bs[j].Date)
		}
		return bs[i].ID < bs[j].ID
	})
}
