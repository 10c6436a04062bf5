package core

import (
	"fmt"
	"strings"
)

// Dependent is one child (or other dependent party) of the household subject.
type Dependent struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	GradeLevel int      `json:"gradeLevel" yaml:"gradeLevel"`
	Activities []string `json:"activities" yaml:"activities"`
}

func (d Dependent) clone() Dependent {
	c := d
	c.Activities = append([]string(nil), d.Activities...)
	return c
}

// Household is the immutable snapshot of user/domain state that seeds a
// session: the requesting guardian and their dependents. Construct it with
// NewHousehold; every accessor returns copies so a Household can be shared
// read-only by all capabilities invoked within a session.
type Household struct {
	subjectID   string
	subjectName string
	dependents  []Dependent
}

// NewHousehold builds a Household snapshot. The dependents slice (and each
// dependent's activities) is copied, so later mutation by the caller is not
// observed. NewHousehold never fails; callers reject malformed input before
// construction (see Validate).
func NewHousehold(subjectID, subjectName string, dependents ...Dependent) Household {
	deps := make([]Dependent, len(dependents))
	for i, d := range dependents {
		deps[i] = d.clone()
	}
	return Household{subjectID: subjectID, subjectName: subjectName, dependents: deps}
}

// SubjectID returns the identifier of the requesting party.
func (h Household) SubjectID() string { return h.subjectID }

// SubjectName returns the display name of the requesting party.
func (h Household) SubjectName() string { return h.subjectName }

// Dependents returns a copy of the ordered dependent records.
func (h Household) Dependents() []Dependent {
	deps := make([]Dependent, len(h.dependents))
	for i, d := range h.dependents {
		deps[i] = d.clone()
	}
	return deps
}

// Dependent looks a dependent up by id.
func (h Household) Dependent(id string) (Dependent, bool) {
	for _, d := range h.dependents {
		if d.ID == id {
			return d.clone(), true
		}
	}
	return Dependent{}, false
}

// FindDependent resolves a dependent by id or by case-insensitive name.
func (h Household) FindDependent(nameOrID string) (Dependent, bool) {
	if d, ok := h.Dependent(nameOrID); ok {
		return d, true
	}
	needle := strings.TrimSpace(nameOrID)
	for _, d := range h.dependents {
		if strings.EqualFold(d.Name, needle) {
			return d.clone(), true
		}
	}
	return Dependent{}, false
}

// Validate reports structural problems a loader must reject before building
// sessions: empty or duplicate dependent ids and negative grade levels.
func (h Household) Validate() error {
	if strings.TrimSpace(h.subjectID) == "" {
		return fmt.Errorf("household subject id is empty")
	}
	seen := make(map[string]struct{}, len(h.dependents))
	for i, d := range h.dependents {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("dependent %d has an empty id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate dependent id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.GradeLevel < 0 {
			return fmt.Errorf("dependent %q has negative grade level %d", d.ID, d.GradeLevel)
		}
	}
	return nil
}

// TemplateData exposes the household as a plain map for instruction templates.
func (h Household) TemplateData() map[string]any {
	deps := make([]map[string]any, 0, len(h.dependents))
	for _, d := range h.dependents {
		deps = append(deps, map[string]any{
			"ID":         d.ID,
			"Name":       d.Name,
			"GradeLevel": d.GradeLevel,
			"Activities": append([]string(nil), d.Activities...),
		})
	}
	return map[string]any{
		"SubjectID":   h.subjectID,
		"SubjectName": h.subjectName,
		"Dependents":  deps,
	}
}
