package core

import (
	"context"
	"sync"
)

// Fragment is one incremental piece of answer text. Fragments of a reply are
// delivered in emission order; Seq starts at zero.
type Fragment struct {
	Seq  int
	Text string
}

// Final is a single-resolution future carrying the ordered messages a
// capability produced for one turn (tool calls, tool results, answer).
type Final struct {
	done chan struct{}
	once sync.Once
	msgs []Message
	err  error
}

func newFinal() *Final { return &Final{done: make(chan struct{})} }

func (f *Final) settle(msgs []Message, err error) bool {
	settled := false
	f.once.Do(func() {
		f.msgs = append([]Message(nil), msgs...)
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Done returns a channel closed once the future settles.
func (f *Final) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx is cancelled.
func (f *Final) Await(ctx context.Context) ([]Message, error) {
	select {
	case <-f.done:
		return f.msgs, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply is the consumer side of a capability invocation: a finite ordered
// stream of fragments plus a deferred final transcript. The two signals are
// independent; a streaming capability may close the stream without ever
// settling Final.
type Reply struct {
	fragments chan Fragment
	discarded chan struct{}
	final     *Final

	streamErr   error
	discardOnce sync.Once
}

// ReplyWriter is the producer side handed to capability implementations.
// Emit may only be called from one goroutine.
type ReplyWriter struct {
	reply     *Reply
	seq       int
	closeOnce sync.Once
}

// NewReply creates a connected Reply / ReplyWriter pair. buffer sizes the
// fragment channel; zero makes every Emit rendezvous with the consumer.
func NewReply(buffer int) (*Reply, *ReplyWriter) {
	if buffer < 0 {
		buffer = 0
	}
	r := &Reply{
		fragments: make(chan Fragment, buffer),
		discarded: make(chan struct{}),
		final:     newFinal(),
	}
	return r, &ReplyWriter{reply: r}
}

// ResolvedReply builds a reply for a non-streaming capability: the fragment
// stream is already closed and Final is settled with msgs.
func ResolvedReply(msgs ...Message) *Reply {
	r, w := NewReply(0)
	w.CloseStream(nil)
	w.Resolve(msgs...)
	return r
}

// FailedReply builds a reply whose stream and Final both carry err.
func FailedReply(err error) *Reply {
	r, w := NewReply(0)
	w.Fail(err)
	return r
}

// Fragments returns the fragment channel. It is closed when the stream ends.
func (r *Reply) Fragments() <-chan Fragment { return r.fragments }

// StreamErr reports the error the stream ended with. Only meaningful after
// the Fragments channel is closed.
func (r *Reply) StreamErr() error { return r.streamErr }

// Final returns the deferred transcript.
func (r *Reply) Final() *Final { return r.final }

// Discard signals that the consumer abandoned the reply. Pending and future
// Emit calls return ErrReplyDiscarded. Safe to call more than once.
func (r *Reply) Discard() {
	r.discardOnce.Do(func() { close(r.discarded) })
}

// Discarded returns a channel closed once the consumer abandoned the reply.
func (r *Reply) Discarded() <-chan struct{} { return r.discarded }

// Emit delivers one fragment. It blocks until the consumer accepts it, the
// consumer discards the reply, or ctx is cancelled.
func (w *ReplyWriter) Emit(ctx context.Context, text string) error {
	select {
	case <-w.reply.discarded:
		return ErrReplyDiscarded
	default:
	}
	f := Fragment{Seq: w.seq, Text: text}
	select {
	case w.reply.fragments <- f:
		w.seq++
		return nil
	case <-w.reply.discarded:
		return ErrReplyDiscarded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseStream ends the fragment stream. A non-nil err marks the stream as
// failed. Only the first call has an effect; Emit must not be called after it.
func (w *ReplyWriter) CloseStream(err error) {
	w.closeOnce.Do(func() {
		w.reply.streamErr = err
		close(w.reply.fragments)
	})
}

// Resolve settles Final with the turn's transcript. Later settlements are ignored.
func (w *ReplyWriter) Resolve(msgs ...Message) { w.reply.final.settle(msgs, nil) }

// Reject settles Final with an error. Later settlements are ignored.
func (w *ReplyWriter) Reject(err error) { w.reply.final.settle(nil, err) }

// Fail ends the stream and rejects Final with the same error.
func (w *ReplyWriter) Fail(err error) {
	w.CloseStream(err)
	w.Reject(err)
}

// Discarded returns a channel closed once the consumer abandoned the reply.
func (w *ReplyWriter) Discarded() <-chan struct{} { return w.reply.discarded }
