package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmesh/bulletin"
	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/internal/testutil"
	"github.com/hupe1980/schoolmesh/router"
	"github.com/hupe1980/schoolmesh/tool"
)

func TestRoster(t *testing.T) {
	h := testutil.SampleHousehold()

	all := Roster(h, "who are my kids?")
	assert.Equal(t, "Dana Whitfield has 2 children:\n- Maya, grade 4, activities: soccer, choir\n- Leo, grade 7, activities: robotics", all)
	assert.Equal(t, all, Roster(h, "who are my kids?"), "roster is deterministic")

	assert.Equal(t, "- Leo, grade 7, activities: robotics", Roster(h, "What activities does Leo have?"))
	assert.Equal(t, "- Maya, grade 4, activities: soccer, choir", Roster(h, "Maya's activities"))

	empty := testutil.NewHouseholdBuilder("g-2", "Sam").Build()
	assert.Equal(t, "No children are registered for Sam.", Roster(empty, "kids"))

	solo := testutil.NewHouseholdBuilder("g-3", "Ana").Child("Tom", 1).Build()
	assert.Equal(t, "Ana has 1 child:\n- Tom, grade 1, no activities", Roster(solo, "roster"))
}

func TestRosterCapability(t *testing.T) {
	c := NewRoster()
	reply, err := c.Invoke(context.Background(), newInvocation("list Leo's activities"))
	require.NoError(t, err)

	fragments, msgs, err := drain(t, reply)
	require.NoError(t, err)
	assert.Empty(t, fragments)
	require.Len(t, msgs, 1)
	assert.Equal(t, RosterName, msgs[0].Author)
	assert.Equal(t, "- Leo, grade 7, activities: robotics", msgs[0].Text())
}

func TestFunc_Error(t *testing.T) {
	boom := errors.New("boom")
	c := NewFunc("broken", "always fails", func(context.Context, *core.Invocation) (string, error) {
		return "", boom
	})
	assert.Equal(t, "broken", c.Name())
	assert.Equal(t, "always fails", c.Description())

	reply, err := c.Invoke(context.Background(), newInvocation("hi"))
	require.NoError(t, err)
	_, _, err = drain(t, reply)
	assert.ErrorIs(t, err, boom)
}

func TestDomainCapabilities_Tools(t *testing.T) {
	board, err := bulletin.NewInMemoryStore()
	require.NoError(t, err)
	llm := testutil.NewScriptedModel()

	assert.Equal(t, []string{tool.DependentLookupToolName}, NewGrades(llm).Tools())
	assert.Equal(t, []string{"search_events", tool.DependentLookupToolName}, NewEvents(llm, board).Tools())
	assert.Equal(t, []string{"search_announcements", tool.DependentLookupToolName}, NewAnnouncements(llm, board).Tools())
	assert.Len(t, NewGeneral(llm, board).Tools(), 3)

	custom := NewGrades(llm, func(o *ModelOptions) { o.Description = "custom" })
	assert.Equal(t, "custom", custom.Description())
	assert.Equal(t, GradesName, custom.Name())
}

func TestDefaultRouter(t *testing.T) {
	board, err := bulletin.NewInMemoryStore()
	require.NoError(t, err)

	r, err := DefaultRouter(testutil.NewScriptedModel(), board, nil)
	require.NoError(t, err)

	tests := []struct {
		utterance string
		want      string
	}{
		{"What grade is Leo in?", GradesName},
		{"When is the next concert?", EventsName},
		{"Any news from the school?", AnnouncementsName},
		{"List my kids and their activities", RosterName},
		{"Hello there", GeneralName},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			c, err := r.Route(newInvocation(tt.utterance))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}

	var names []string
	for _, c := range r.Capabilities() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{GradesName, EventsName, AnnouncementsName, RosterName, GeneralName}, names)
}

func TestDefaultRouter_Sticky(t *testing.T) {
	board, err := bulletin.NewInMemoryStore()
	require.NoError(t, err)

	r, err := DefaultRouter(testutil.NewScriptedModel(), board, []func(o *router.Options){
		func(o *router.Options) { o.Sticky = true },
	})
	require.NoError(t, err)

	history := []core.Message{core.NewUserMessage("next game?"), core.NewAgentMessage(EventsName, "Saturday.")}
	c, err := r.Route(newInvocation("and after that?", history...))
	require.NoError(t, err)
	assert.Equal(t, EventsName, c.Name())
}
