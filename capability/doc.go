// Package capability provides the concrete capabilities a router dispatches
// to: model-backed capabilities with a tool loop, plain function
// capabilities and the model-free household roster.
//
// DefaultRouter wires the school domain set (grades, events, announcements,
// roster, general) into a keyword router.
package capability
