package bulletin

import (
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/schoolmesh/core"
)

// Interface compliance (compile-time assertions)
var _ core.BulletinStore = (*InMemoryStore)(nil)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seeded(t *testing.T) *InMemoryStore {
	t.Helper()
	s, err := NewInMemoryStore(
		core.Bulletin{ID: "e2", Kind: core.BulletinEvent, Title: "Spring Concert", Body: "Choir and band perform in the gym.", Date: day("2026-05-03")},
		core.Bulletin{ID: "e1", Kind: core.BulletinEvent, Title: "Science Fair", Body: "Projects due for grades 4-6.", Date: day("2026-04-10"), GradeLevels: []int{4, 5, 6}},
		core.Bulletin{ID: "e3", Kind: core.BulletinEvent, Title: "Soccer Game", Body: "Home game against Westside.", Date: day("2026-05-03")},
		core.Bulletin{ID: "a1", Kind: core.BulletinAnnouncement, Title: "Picture Day", Body: "Wear your school shirt.", Date: day("2026-03-01")},
	)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return s
}

func TestInMemoryStore_ListOrderedByDateThenID(t *testing.T) {
	s := seeded(t)
	got := s.List(core.BulletinEvent)
	want := []string{"e1", "e2", "e3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, b := range got {
		if b.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], b.ID)
		}
	}
	if n := len(s.List(core.BulletinAnnouncement)); n != 1 {
		t.Fatalf("expected 1 announcement, got %d", n)
	}
}

func TestInMemoryStore_Search(t *testing.T) {
	s := seeded(t)

	res, err := s.Search(core.BulletinEvent, "When is the CONCERT?", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(res) != 1 || res[0].ID != "e2" || res[0].Score != 1.0 {
		t.Fatalf("unexpected results %#v", res)
	}
	if res[0].Metadata["date"] != "2026-05-03" {
		t.Fatalf("unexpected metadata %#v", res[0].Metadata)
	}

	// stopword-only query lists everything of that kind
	all, _ := s.Search(core.BulletinEvent, "what is next?", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}

	limited, _ := s.Search(core.BulletinEvent, "", 2)
	if len(limited) != 2 || limited[0].ID != "e1" {
		t.Fatalf("unexpected limited results %#v", limited)
	}

	partial, _ := s.Search(core.BulletinEvent, "soccer concert", 0)
	if len(partial) != 2 || partial[0].Score != 0.5 {
		t.Fatalf("unexpected partial results %#v", partial)
	}

	none, _ := s.Search(core.BulletinAnnouncement, "concert", 0)
	if len(none) != 0 {
		t.Fatalf("kinds must not mix: %#v", none)
	}
}

func TestInMemoryStore_SearchMatchesWholeWords(t *testing.T) {
	s, err := NewInMemoryStore(
		core.Bulletin{ID: "e1", Kind: core.BulletinEvent, Title: "Art Show", Body: "Student paintings in the hall.", Date: day("2026-05-01")},
		core.Bulletin{ID: "e2", Kind: core.BulletinEvent, Title: "Class Party", Body: "The party starts at noon.", Date: day("2026-05-02")},
		core.Bulletin{ID: "e3", Kind: core.BulletinEvent, Title: "Soccer Game", Body: "Home game.", Date: day("2026-05-03")},
	)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, _ := s.Search(core.BulletinEvent, "art", 0)
	if len(res) != 1 || res[0].ID != "e1" {
		t.Fatalf("expected only the art show, got %#v", res)
	}

	plural, _ := s.Search(core.BulletinEvent, "games", 0)
	if len(plural) != 1 || plural[0].ID != "e3" {
		t.Fatalf("expected plural to match singular, got %#v", plural)
	}

	singularQuery, _ := s.Search(core.BulletinEvent, "painting", 0)
	if len(singularQuery) != 1 || singularQuery[0].ID != "e1" {
		t.Fatalf("expected singular to match plural, got %#v", singularQuery)
	}
}

func TestInMemoryStore_PostValidation(t *testing.T) {
	s := seeded(t)
	if _, err := s.Post(core.Bulletin{Kind: "memo", Title: "x"}); err == nil {
		t.Fatal("expected unknown kind error")
	}
	if _, err := s.Post(core.Bulletin{Kind: core.BulletinEvent}); err == nil {
		t.Fatal("expected empty title error")
	}
	if _, err := s.Post(core.Bulletin{ID: "e1", Kind: core.BulletinEvent, Title: "dup"}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	id, err := s.Post(core.Bulletin{Kind: core.BulletinAnnouncement, Title: "Snow day"})
	if err != nil || id == "" {
		t.Fatalf("post failed: %v %q", err, id)
	}
}

func TestInMemoryStore_CopyIsolation(t *testing.T) {
	s := seeded(t)
	got := s.List(core.BulletinEvent)
	got[0].GradeLevels[0] = 99
	if s.List(core.BulletinEvent)[0].GradeLevels[0] != 4 {
		t.Fatal("List leaked internal state")
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s, _ := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Post(core.Bulletin{Kind: core.BulletinEvent, Title: "Event"})
			_, _ = s.Search(core.BulletinEvent, "event", 5)
		}()
	}
	wg.Wait()
	if n := len(s.List(core.BulletinEvent)); n != 20 {
		t.Fatalf("expected 20 events, got %d", n)
	}
}

func TestTerms(t *testing.T) {
	got := Terms("When is the Spring-Concert?")
	if len(got) != 2 || got[0] != "spring" || got[1] != "concert" {
		t.Fatalf("unexpected terms %#v", got)
	}
}
