// Package router implements the routing agent: the single point of decision
// for which capability answers an utterance.
//
// Capabilities are registered with keywords. Route tokenises the utterance,
// scores every registered capability by the number of its keywords present
// and picks the unique best. No match, or a tie at the top, falls back to the
// default capability. With sticky follow-ups enabled an unmatched utterance
// goes to the capability that answered the previous turn instead.
//
// Routing is a pure function of the utterance, the history and the
// registration table, so the same input always selects the same capability.
//
//	r := router.New(func(o *router.Options) { o.Sticky = true })
//	r.Register(grades, "grade", "grades", "report")
//	r.SetDefault(general)
//	reply, err := r.Dispatch(ctx, inv)
package router
