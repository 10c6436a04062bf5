package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/logging"
)

// Options configures a Router.
type Options struct {
	// Sticky routes unmatched follow-up utterances to the capability that
	// authored the most recent agent message.
	Sticky bool
	Logger logging.Logger
}

type route struct {
	capability core.Capability
	keywords   []string
}

// Router selects and invokes capabilities. Registration is safe for
// concurrent use with routing, although tables are normally built once at
// startup.
type Router struct {
	routes   []route
	byName   map[string]int
	fallback core.Capability

	sticky bool
	logger logging.Logger

	mu sync.RWMutex
}

// New creates an empty Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Router{
		byName: make(map[string]int),
		sticky: opts.Sticky,
		logger: opts.Logger,
	}
}

// Register adds a capability with its routing keywords. Registering a name
// twice replaces the keywords but keeps the original position.
func (r *Router) Register(c core.Capability, keywords ...string) error {
	if c == nil {
		return fmt.Errorf("capability is nil")
	}
	if c.Name() == "" {
		return fmt.Errorf("capability name is empty")
	}

	kws := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		kws = append(kws, kw)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.byName[c.Name()]; ok {
		r.routes[i] = route{capability: c, keywords: kws}
		return nil
	}
	r.byName[c.Name()] = len(r.routes)
	r.routes = append(r.routes, route{capability: c, keywords: kws})
	return nil
}

// SetDefault designates the capability used when no keyword rule decides.
// The default does not need to be registered with keywords.
func (r *Router) SetDefault(c core.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = c
}

// Capabilities returns the registered capabilities in registration order,
// followed by the default when it is not registered itself.
func (r *Router) Capabilities() []core.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Capability, 0, len(r.routes)+1)
	for _, rt := range r.routes {
		out = append(out, rt.capability)
	}
	if r.fallback != nil {
		if _, ok := r.byName[r.fallback.Name()]; !ok {
			out = append(out, r.fallback)
		}
	}
	return out
}

// Route selects the capability for inv.
func (r *Router) Route(inv *core.Invocation) (core.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := tokenize(inv.Utterance)

	best, bestScore, tied := -1, 0, false
	for i, rt := range r.routes {
		score := 0
		for _, kw := range rt.keywords {
			if _, ok := tokens[kw]; ok {
				score++
			}
		}
		switch {
		case score == 0:
		case score > bestScore:
			best, bestScore, tied = i, score, false
		case score == bestScore:
			tied = true
		}
	}

	if best >= 0 && !tied {
		c := r.routes[best].capability
		r.logger.Debug("router.route.selected", "capability", c.Name(), "score", bestScore, "reason", "keyword")
		return c, nil
	}

	if best < 0 && r.sticky {
		if author := inv.LastAuthor(); author != "" {
			if i, ok := r.byName[author]; ok {
				c := r.routes[i].capability
				r.logger.Debug("router.route.selected", "capability", c.Name(), "reason", "sticky")
				return c, nil
			}
		}
	}

	if r.fallback != nil {
		reason := "default"
		if tied {
			reason = "tie"
		}
		r.logger.Debug("router.route.selected", "capability", r.fallback.Name(), "reason", reason)
		return r.fallback, nil
	}

	r.logger.Warn("router.route.failed", "tied", tied, "routes", len(r.routes))
	return nil, core.ErrNoCapability
}

// Dispatch routes inv and invokes the selected capability. Invocation
// failures are returned as *core.CapabilityError; nothing is retried.
func (r *Router) Dispatch(ctx context.Context, inv *core.Invocation) (core.Capability, *core.Reply, error) {
	c, err := r.Route(inv)
	if err != nil {
		return nil, nil, err
	}

	reply, err := c.Invoke(ctx, inv)
	if err != nil {
		r.logger.Error("router.invoke.failed", "capability", c.Name(), "error", err)
		return c, nil, core.NewCapabilityError(c.Name(), err)
	}
	if reply == nil {
		return c, nil, core.NewCapabilityError(c.Name(), fmt.Errorf("capability returned no reply"))
	}
	return c, reply, nil
}

// tokenize lower-cases s and splits it on anything that is not a letter or
// digit.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
