package testutil

import (
	"fmt"

	"github.com/hupe1980/schoolmesh/core"
)

// HouseholdBuilder provides a fluent helper for constructing households.
// Example:
//
//	h := NewHouseholdBuilder("g-1", "Dana").Child("Maya", 4, "soccer").Build()
//
// Dependent ids default to c-1, c-2, ... in insertion order.
type HouseholdBuilder struct {
	subjectID   string
	subjectName string
	dependents  []core.Dependent
}

// NewHouseholdBuilder creates a builder for the given guardian.
func NewHouseholdBuilder(subjectID, subjectName string) *HouseholdBuilder {
	return &HouseholdBuilder{subjectID: subjectID, subjectName: subjectName}
}

// Child appends a dependent with a generated id (chainable).
func (b *HouseholdBuilder) Child(name string, grade int, activities ...string) *HouseholdBuilder {
	id := fmt.Sprintf("c-%d", len(b.dependents)+1)
	return b.Dependent(core.Dependent{ID: id, Name: name, GradeLevel: grade, Activities: activities})
}

// Dependent appends a fully specified dependent (chainable).
func (b *HouseholdBuilder) Dependent(d core.Dependent) *HouseholdBuilder {
	b.dependents = append(b.dependents, d)
	return b
}

// Build returns the household.
func (b *HouseholdBuilder) Build() core.Household {
	return core.NewHousehold(b.subjectID, b.subjectName, b.dependents...)
}

// SampleHousehold is the household most tests use: one guardian, two children.
func SampleHousehold() core.Household {
	return NewHouseholdBuilder("g-1", "Dana Whitfield").
		Child("Maya", 4, "soccer", "choir").
		Child("Leo", 7, "robotics").
		Build()
}
