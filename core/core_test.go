package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func sampleHousehold() Household {
	return NewHousehold("g-1", "Dana Whitfield",
		Dependent{ID: "c-1", Name: "Maya", GradeLevel: 4, Activities: []string{"soccer", "choir"}},
		Dependent{ID: "c-2", Name: "Leo", GradeLevel: 7, Activities: []string{"robotics"}},
	)
}

func TestHousehold_CopiesInput(t *testing.T) {
	deps := []Dependent{{ID: "c-1", Name: "Maya", Activities: []string{"soccer"}}}
	h := NewHousehold("g-1", "Dana", deps...)

	deps[0].Name = "changed"
	deps[0].Activities[0] = "changed"

	got := h.Dependents()
	if got[0].Name != "Maya" || got[0].Activities[0] != "soccer" {
		t.Fatalf("household observed caller mutation: %+v", got[0])
	}

	got[0].Activities[0] = "mutated"
	if again := h.Dependents(); again[0].Activities[0] != "soccer" {
		t.Fatalf("accessor did not return a copy: %+v", again[0])
	}
}

func TestHousehold_Lookups(t *testing.T) {
	h := sampleHousehold()

	if d, ok := h.Dependent("c-2"); !ok || d.Name != "Leo" {
		t.Fatalf("Dependent(c-2) = %+v, %v", d, ok)
	}
	if d, ok := h.FindDependent("maya"); !ok || d.ID != "c-1" {
		t.Fatalf("FindDependent(maya) = %+v, %v", d, ok)
	}
	if _, ok := h.FindDependent("nobody"); ok {
		t.Fatal("expected no match")
	}
	if h.SubjectID() != "g-1" || h.SubjectName() != "Dana Whitfield" {
		t.Fatalf("unexpected subject: %s %s", h.SubjectID(), h.SubjectName())
	}
}

func TestHousehold_Validate(t *testing.T) {
	if err := sampleHousehold().Validate(); err != nil {
		t.Fatalf("valid household rejected: %v", err)
	}

	cases := map[string]Household{
		"empty subject":  NewHousehold("", "x"),
		"duplicate id":   NewHousehold("g", "x", Dependent{ID: "a"}, Dependent{ID: "a"}),
		"empty dep id":   NewHousehold("g", "x", Dependent{ID: " "}),
		"negative grade": NewHousehold("g", "x", Dependent{ID: "a", GradeLevel: -1}),
	}
	for name, h := range cases {
		if err := h.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestSession_CommitTurnAndCopies(t *testing.T) {
	s := NewSession("s-1", sampleHousehold())
	if s.Len() != 0 {
		t.Fatalf("new session should be empty, got %d", s.Len())
	}

	s.CommitTurn(NewUserMessage("hi"), NewAgentMessage("general", "hello"))
	s.CommitTurn(NewUserMessage("grades?"), NewAgentMessage("grades", "A"))

	h := s.History()
	if len(h) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(h))
	}
	wantRoles := []Role{RoleUser, RoleAgent, RoleUser, RoleAgent}
	for i, m := range h {
		if m.Role != wantRoles[i] {
			t.Fatalf("message %d role = %s, want %s", i, m.Role, wantRoles[i])
		}
	}

	h[0] = NewUserMessage("tampered")
	if txt, _ := s.History()[0].FirstText(); txt != "hi" {
		t.Fatalf("History did not return a copy, got %q", txt)
	}
}

func TestSession_IndependentHistories(t *testing.T) {
	h := sampleHousehold()
	a := NewSession("a", h)
	b := NewSession("b", h)

	a.CommitTurn(NewUserMessage("q"), NewAgentMessage("general", "a"))

	if b.Len() != 0 {
		t.Fatalf("sessions share history: %d", b.Len())
	}
}

func TestMessage_TextHelpers(t *testing.T) {
	m := NewMessage(RoleAgent, "grades",
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "lookup"}},
		TextPart{Text: "a"},
		TextPart{Text: "b"},
	)
	if txt, ok := m.FirstText(); !ok || txt != "a" {
		t.Fatalf("FirstText = %q, %v", txt, ok)
	}
	if m.Text() != "ab" {
		t.Fatalf("Text = %q", m.Text())
	}
	if calls := m.FunctionCalls(); len(calls) != 1 || calls[0].Name != "lookup" {
		t.Fatalf("FunctionCalls = %+v", calls)
	}

	resp := NewFunctionResponseMessage("grades", "1", "lookup", nil, errors.New("boom"))
	if rs := resp.FunctionResponses(); len(rs) != 1 || rs[0].Error != "boom" || resp.Role != RoleTool {
		t.Fatalf("FunctionResponses = %+v", rs)
	}

	if _, ok := LastAgentMessage([]Message{NewUserMessage("x")}); ok {
		t.Fatal("expected no agent message")
	}
}

func TestReply_OrderAndStreamError(t *testing.T) {
	reply, w := NewReply(4)
	boom := errors.New("boom")
	go func() {
		for _, s := range []string{"a", "b", "c"} {
			_ = w.Emit(context.Background(), s)
		}
		w.Fail(boom)
	}()

	var got []Fragment
	for f := range reply.Fragments() {
		got = append(got, f)
	}
	if len(got) != 3 || got[0].Text != "a" || got[2].Seq != 2 {
		t.Fatalf("unexpected fragments: %+v", got)
	}
	if !errors.Is(reply.StreamErr(), boom) {
		t.Fatalf("StreamErr = %v", reply.StreamErr())
	}
	if _, err := reply.Final().Await(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Final err = %v", err)
	}
}

func TestReply_FinalSettlesOnce(t *testing.T) {
	reply, w := NewReply(0)
	w.Resolve(NewAgentMessage("x", "first"))
	w.Resolve(NewAgentMessage("x", "second"))
	w.Reject(errors.New("late"))

	msgs, err := reply.Final().Await(context.Background())
	if err != nil || len(msgs) != 1 {
		t.Fatalf("Await = %+v, %v", msgs, err)
	}
	if txt, _ := msgs[0].FirstText(); txt != "first" {
		t.Fatalf("future settled more than once: %q", txt)
	}
}

func TestReply_DiscardUnblocksProducer(t *testing.T) {
	reply, w := NewReply(0)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Emit(context.Background(), "blocked") }()

	time.Sleep(10 * time.Millisecond)
	reply.Discard()
	reply.Discard()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrReplyDiscarded) {
			t.Fatalf("Emit err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Emit still blocked after Discard")
	}
}

func TestReply_EmitHonoursContext(t *testing.T) {
	_, w := NewReply(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Emit(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Emit err = %v", err)
	}
}

func TestResolvedReply(t *testing.T) {
	reply := ResolvedReply(NewAgentMessage("x", "done"))
	if _, open := <-reply.Fragments(); open {
		t.Fatal("expected closed fragment stream")
	}
	if reply.StreamErr() != nil {
		t.Fatalf("unexpected stream error %v", reply.StreamErr())
	}
}

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)
	if err := l.Acquire(); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(); !errors.Is(err, ErrModelCallLimit) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if l.Count() != 2 || l.Remaining() != 0 {
		t.Fatalf("count=%d remaining=%d", l.Count(), l.Remaining())
	}

	unlimited := NewModelLimiter(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = unlimited.Acquire()
		}()
	}
	wg.Wait()
	if unlimited.Count() != 10 || unlimited.Remaining() != -1 {
		t.Fatalf("unlimited count=%d remaining=%d", unlimited.Count(), unlimited.Remaining())
	}
}

func TestCapabilityError(t *testing.T) {
	cause := errors.New("boom")
	err := NewCapabilityError("grades", cause)
	if !errors.Is(err, cause) || err.Error() != "capability grades failed: boom" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestToolContext(t *testing.T) {
	inv := NewInvocation("s-1", sampleHousehold(), []Message{NewUserMessage("x")}, "hi", nil)
	tc := NewToolContext(context.Background(), inv, "grades", "call-1")
	if err := tc.Validate(); err != nil {
		t.Fatal(err)
	}
	if tc.SessionID() != "s-1" || tc.Capability() != "grades" || tc.FunctionCallID() != "call-1" {
		t.Fatalf("unexpected tool context %+v", tc)
	}
	if len(tc.Household().Dependents()) != 2 || len(tc.History()) != 1 {
		t.Fatal("tool context does not expose invocation data")
	}
	if err := NewToolContext(context.Background(), inv, "grades", "").Validate(); err == nil {
		t.Fatal("expected invalid tool context")
	}
}
