package capability

import (
	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/model"
	"github.com/hupe1980/schoolmesh/router"
	"github.com/hupe1980/schoolmesh/tool"
)

// Names of the school domain capabilities.
const (
	GradesName        = "grades"
	EventsName        = "events"
	AnnouncementsName = "announcements"
	GeneralName       = "general"
)

const householdPreamble = `You are a school assistant for {{.SubjectName}}.
Their children:
{{range .Dependents}}- {{.Name}} (grade {{.GradeLevel}}{{if .Activities}}, activities: {{join ", " .Activities}}{{end}})
{{end}}Answer briefly and only about this household.`

const (
	gradesInstruction = householdPreamble + `
You answer questions about grade levels, classes and school progress.
Use the lookup_dependent tool when you need details about a child. If you do
not know a fact, say so instead of guessing.`

	eventsInstruction = householdPreamble + `
You answer questions about upcoming school events, games and the calendar.
Use search_events to find events and pass the child's name when a question
is about one child. Mention dates.`

	announcementsInstruction = householdPreamble + `
You answer questions about school announcements and notices.
Use search_announcements to find them and summarise what matters to this
family.`

	generalInstruction = householdPreamble + `
You answer any other question about the household's school life. Use the
available tools to look up children, events and announcements.`
)

// NewGrades returns the capability answering grade level and class questions.
func NewGrades(llm model.Model, optFns ...func(o *ModelOptions)) *Model {
	return NewModel(GradesName, llm, withDefaults(
		"Answers questions about the children's grade levels and classes.",
		gradesInstruction,
		[]tool.Tool{tool.NewDependentLookupTool()},
		optFns,
	)...)
}

// NewEvents returns the capability answering school calendar questions.
func NewEvents(llm model.Model, board core.BulletinStore, optFns ...func(o *ModelOptions)) *Model {
	return NewModel(EventsName, llm, withDefaults(
		"Answers questions about upcoming school events.",
		eventsInstruction,
		[]tool.Tool{
			tool.NewBulletinSearchTool(board, core.BulletinEvent),
			tool.NewDependentLookupTool(),
		},
		optFns,
	)...)
}

// NewAnnouncements returns the capability answering questions about school notices.
func NewAnnouncements(llm model.Model, board core.BulletinStore, optFns ...func(o *ModelOptions)) *Model {
	return NewModel(AnnouncementsName, llm, withDefaults(
		"Answers questions about school announcements.",
		announcementsInstruction,
		[]tool.Tool{
			tool.NewBulletinSearchTool(board, core.BulletinAnnouncement),
			tool.NewDependentLookupTool(),
		},
		optFns,
	)...)
}

// NewGeneral returns the fallback capability with every tool registered.
func NewGeneral(llm model.Model, board core.BulletinStore, optFns ...func(o *ModelOptions)) *Model {
	return NewModel(GeneralName, llm, withDefaults(
		"Answers general questions about the household's school life.",
		generalInstruction,
		[]tool.Tool{
			tool.NewDependentLookupTool(),
			tool.NewBulletinSearchTool(board, core.BulletinEvent),
			tool.NewBulletinSearchTool(board, core.BulletinAnnouncement),
		},
		optFns,
	)...)
}

// withDefaults prepends the domain defaults so caller options override them.
func withDefaults(description, instruction string, tools []tool.Tool, optFns []func(o *ModelOptions)) []func(o *ModelOptions) {
	return append([]func(o *ModelOptions){func(o *ModelOptions) {
		o.Description = description
		o.Instruction = NewInstructionFromText(instruction)
		o.Tools = tools
	}}, optFns...)
}

// Keywords routed to each domain capability.
var (
	GradesKeywords        = []string{"grade", "grades", "class", "classes", "teacher", "homework", "report", "progress"}
	EventsKeywords        = []string{"event", "events", "calendar", "game", "games", "concert", "trip", "fair", "schedule", "upcoming"}
	AnnouncementsKeywords = []string{"announcement", "announcements", "news", "notice", "notices", "newsletter", "closure", "closed"}
	RosterKeywords        = []string{"children", "kids", "roster", "activities", "activity"}
)

// DefaultRouter builds the school router: grades, events, announcements and
// roster are keyword routed, general answers everything else.
func DefaultRouter(
	llm model.Model,
	board core.BulletinStore,
	routerOptFns []func(o *router.Options),
	capOptFns ...func(o *ModelOptions),
) (*router.Router, error) {
	r := router.New(routerOptFns...)

	entries := []struct {
		capability core.Capability
		keywords   []string
	}{
		{NewGrades(llm, capOptFns...), GradesKeywords},
		{NewEvents(llm, board, capOptFns...), EventsKeywords},
		{NewAnnouncements(llm, board, capOptFns...), AnnouncementsKeywords},
		{NewRoster(), RosterKeywords},
	}
	for _, e := range entries {
		if err := r.Register(e.capability, e.keywords...); err != nil {
			return nil, err
		}
	}
	r.SetDefault(NewGeneral(llm, board, capOptFns...))
	return r, nil
}
