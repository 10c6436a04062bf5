package core

import "time"

// BulletinKind separates school calendar entries from announcements.
type BulletinKind string

const (
	// BulletinEvent is a dated calendar entry (concert, field trip, ...).
	BulletinEvent BulletinKind = "event"
	// BulletinAnnouncement is a general notice from the school.
	BulletinAnnouncement BulletinKind = "announcement"
)

// Bulletin is one school-wide notice. GradeLevels restricts the audience;
// empty means every grade.
type Bulletin struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        BulletinKind `json:"kind" yaml:"kind"`
	Title       string       `json:"title" yaml:"title"`
	Body        string       `json:"body" yaml:"body"`
	Date        time.Time    `json:"date" yaml:"date"`
	GradeLevels []int        `json:"gradeLevels,omitempty" yaml:"gradeLevels"`
}

// BulletinStore holds school notices searched by the events and
// announcements capabilities. Implementations can back search with keywords,
// embeddings or any heuristic.
type BulletinStore interface {
	Post(b Bulletin) (string, error)
	Search(kind BulletinKind, query string, limit int) ([]SearchResult, error)
	List(kind BulletinKind) []Bulletin
}

// AppliesTo reports whether the bulletin targets grade.
func (b Bulletin) AppliesTo(grade int) bool {
	if len(b.GradeLevels) == 0 {
		return true
	}
	for _, g := range b.GradeLevels {
		if g == grade {
			return true
		}
	}
	return false
}
