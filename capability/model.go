package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/logging"
	"github.com/hupe1980/schoolmesh/model"
	"github.com/hupe1980/schoolmesh/tool"
)

// ModelOptions configures a model-backed capability.
type ModelOptions struct {
	Description string
	Instruction Instruction

	// EnableStreaming forwards text deltas as reply fragments.
	EnableStreaming bool
	// EnableFunctionCalling offers the registered tools to the model.
	EnableFunctionCalling bool
	// ToolTimeout bounds a single tool call. Zero disables the bound.
	ToolTimeout time.Duration
	// MaxHistoryMessages keeps only the most recent messages of the session
	// history. Zero or negative sends the full history.
	MaxHistoryMessages int
	// MaxModelCalls bounds the generate/tool loop of one turn.
	MaxModelCalls int
	// MaxParallelTools limits concurrently running tool calls of one batch.
	MaxParallelTools int

	Tools  []tool.Tool
	Logger logging.Logger
}

// Model is a capability that answers with a language model, optionally
// calling tools before it produces the final answer.
type Model struct {
	name        string
	description string
	instruction Instruction
	llm         model.Model
	tools       map[string]tool.Tool
	toolOrder   []string
	opts        ModelOptions
	logger      logging.Logger
}

var _ core.Capability = (*Model)(nil)

// NewModel constructs a model-backed capability.
func NewModel(name string, llm model.Model, optFns ...func(o *ModelOptions)) *Model {
	opts := ModelOptions{
		EnableStreaming:       true,
		EnableFunctionCalling: true,
		ToolTimeout:           30 * time.Second,
		MaxHistoryMessages:    20,
		MaxModelCalls:         8,
		MaxParallelTools:      4,
		Logger:                logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	m := &Model{
		name:        name,
		description: opts.Description,
		instruction: opts.Instruction,
		llm:         llm,
		tools:       make(map[string]tool.Tool),
		opts:        opts,
		logger:      opts.Logger,
	}
	for _, t := range opts.Tools {
		m.RegisterTool(t)
	}
	return m
}

// Name returns the capability name.
func (m *Model) Name() string { return m.name }

// Description returns the capability description.
func (m *Model) Description() string { return m.description }

// RegisterTool adds or replaces a tool. Not safe to call concurrently with Invoke.
func (m *Model) RegisterTool(t tool.Tool) {
	if _, exists := m.tools[t.Name()]; !exists {
		m.toolOrder = append(m.toolOrder, t.Name())
	}
	m.tools[t.Name()] = t
}

// Tools returns the registered tool names in registration order.
func (m *Model) Tools() []string {
	return append([]string(nil), m.toolOrder...)
}

// Invoke resolves the instruction synchronously and runs the model loop in
// the background. Instruction failures are returned directly; model and
// stream failures fail the reply.
func (m *Model) Invoke(ctx context.Context, inv *core.Invocation) (*core.Reply, error) {
	instructions, err := m.instruction.Resolve(inv)
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	m.logger.Debug("capability.model.invoke", "capability", m.name, "invocation_id", inv.ID, "model", m.llm.Info().Name, "tools", len(m.toolOrder))

	reply, w := core.NewReply(0)
	go m.run(ctx, inv, instructions, w)
	return reply, nil
}

func (m *Model) run(ctx context.Context, inv *core.Invocation, instructions string, w *core.ReplyWriter) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.Discarded():
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	limiter := core.NewModelLimiter(m.opts.MaxModelCalls)
	conversation := append(m.history(inv), core.NewUserMessage(inv.Utterance))

	var (
		transcript []core.Message
		streamed   strings.Builder
	)
	for {
		if err := limiter.Acquire(); err != nil {
			m.fail(inv, w, err)
			return
		}

		req := model.Request{
			Instructions: instructions,
			Messages:     append(append([]core.Message(nil), conversation...), transcript...),
			Stream:       m.opts.EnableStreaming,
		}
		if m.opts.EnableFunctionCalling {
			req.Tools = m.toolDefinitions()
		}

		msg, err := m.generate(ctx, req, w, &streamed)
		if err != nil {
			m.fail(inv, w, err)
			return
		}
		msg.Author = m.name
		msg = assignCallIDs(msg)
		transcript = append(transcript, msg)

		calls := msg.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		transcript = append(transcript, m.executeTools(ctx, inv, calls)...)
		if err := ctx.Err(); err != nil {
			m.fail(inv, w, err)
			return
		}
	}

	// Fragments from every round form the answer the consumer has already seen.
	if streamed.Len() > 0 && transcript[len(transcript)-1].Text() != streamed.String() {
		transcript = append(transcript, core.NewAgentMessage(m.name, streamed.String()))
	}

	w.CloseStream(nil)
	w.Resolve(transcript...)

	inv.LogDebug(
		"capability.model.complete",
		"capability", m.name,
		"invocation_id", inv.ID,
		"model_calls", limiter.Count(),
		"messages", len(transcript),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (m *Model) fail(inv *core.Invocation, w *core.ReplyWriter, err error) {
	select {
	case <-w.Discarded():
		err = core.ErrReplyDiscarded
	default:
	}
	inv.LogError("capability.model.failed", "capability", m.name, "invocation_id", inv.ID, "error", err)
	w.Fail(err)
}

// history returns the tail of the session history sent to the model.
func (m *Model) history(inv *core.Invocation) []core.Message {
	h := inv.History
	if limit := m.opts.MaxHistoryMessages; limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]core.Message(nil), h...)
}

func (m *Model) toolDefinitions() []model.ToolDefinition {
	if len(m.toolOrder) == 0 {
		return nil
	}
	tools := make([]tool.Tool, 0, len(m.toolOrder))
	for _, name := range m.toolOrder {
		tools = append(tools, m.tools[name])
	}
	return tool.Definitions(tools...)
}

// generate consumes one model response. Partial text is emitted as fragments
// and appended to streamed; the final message is returned.
func (m *Model) generate(ctx context.Context, req model.Request, w *core.ReplyWriter, streamed *strings.Builder) (core.Message, error) {
	respCh, errCh := m.llm.Generate(ctx, req)

	var (
		final    core.Message
		hasFinal bool
	)
	for resp := range respCh {
		if !resp.Partial {
			final = resp.Message
			hasFinal = true
			continue
		}
		text := resp.Message.Text()
		if text == "" {
			continue
		}
		if err := w.Emit(ctx, text); err != nil {
			return core.Message{}, err
		}
		streamed.WriteString(text)
	}
	if err := <-errCh; err != nil {
		return core.Message{}, err
	}
	if !hasFinal {
		return core.Message{}, fmt.Errorf("model %s returned no final response", m.llm.Info().Name)
	}
	return final, nil
}

// assignCallIDs gives every function call without an id a fresh one so
// responses can be matched to their calls.
func assignCallIDs(msg core.Message) core.Message {
	parts := make([]core.Part, len(msg.Parts))
	for i, p := range msg.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
			fc.FunctionCall.ID = core.NewID()
			p = fc
		}
		parts[i] = p
	}
	msg.Parts = parts
	return msg
}

// executeTools runs one batch of calls and returns one response message per
// call in call order.
func (m *Model) executeTools(ctx context.Context, inv *core.Invocation, calls []core.FunctionCall) []core.Message {
	results := make([]core.Message, len(calls))

	var g errgroup.Group
	if m.opts.MaxParallelTools > 0 {
		g.SetLimit(m.opts.MaxParallelTools)
	}
	for i, fc := range calls {
		g.Go(func() error {
			results[i] = m.executeTool(ctx, inv, fc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Model) executeTool(ctx context.Context, inv *core.Invocation, fc core.FunctionCall) core.Message {
	if m.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.ToolTimeout)
		defer cancel()
	}
	toolCtx := core.NewToolContext(ctx, inv, m.name, fc.ID)

	start := time.Now()
	var (
		result any
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				inv.LogError("capability.function.panic", "capability", m.name, "function", fc.Name, "recover", r)
			}
		}()
		result, err = m.callTool(toolCtx, fc)
	}()

	inv.LogInfo(
		"capability.function.executed",
		"capability", m.name,
		"function", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)
	return core.NewFunctionResponseMessage(m.name, fc.ID, fc.Name, result, err)
}

func (m *Model) callTool(toolCtx *core.ToolContext, fc core.FunctionCall) (any, error) {
	t, ok := m.tools[fc.Name]
	if !ok {
		return nil, tool.NewToolError(fc.Name, "tool not found", tool.CodeNotFound)
	}
	args := map[string]any{}
	if strings.TrimSpace(fc.Arguments) != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			return nil, tool.NewToolError(fc.Name, fmt.Sprintf("invalid arguments: %v", err), tool.CodeValidation)
		}
	}
	return t.Call(toolCtx, args)
}

func panicError(r any) error {
	return fmt.Errorf("panic: %v\n%s", r, debug.Stack())
}
