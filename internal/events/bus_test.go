package events

import (
	"context"
	"errors"
	"testing"
)

type recordingHandler struct {
	id       string
	kinds    []Kind
	priority int
	calls    *[]string
	fail     bool
}

func (h *recordingHandler) ID() string     { return h.id }
func (h *recordingHandler) Handles() []Kind { return h.kinds }
func (h *recordingHandler) Priority() int  { return h.priority }

func (h *recordingHandler) Handle(ctx context.Context, event *Event, result *Result) error {
	*h.calls = append(*h.calls, h.id)
	if h.fail {
		return errors.New("boom")
	}
	return nil
}

func TestDispatchOrdersByPriority(t *testing.T) {
	var calls []string
	b := New()
	b.Register(&recordingHandler{id: "late", kinds: []Kind{KindStarted}, priority: 10, calls: &calls})
	b.Register(&recordingHandler{id: "early", kinds: []Kind{KindStarted}, priority: 0, calls: &calls})

	_, err := b.Dispatch(context.Background(), &Event{Kind: KindStarted, OperationID: "op-1", Fn: "row.create"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(calls) != 2 || calls[0] != "early" || calls[1] != "late" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestDispatchSkipsNonMatchingKind(t *testing.T) {
	var calls []string
	b := New()
	b.Register(&recordingHandler{id: "h1", kinds: []Kind{KindFailed}, calls: &calls})

	_, err := b.Dispatch(context.Background(), &Event{Kind: KindStarted, OperationID: "op-1", Fn: "row.create"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no handler calls, got %v", calls)
	}
}

func TestDispatchContinuesAfterHandlerError(t *testing.T) {
	var calls []string
	b := New()
	b.Register(&recordingHandler{id: "failing", kinds: []Kind{KindStarted}, priority: 0, calls: &calls, fail: true})
	b.Register(&recordingHandler{id: "ok", kinds: []Kind{KindStarted}, priority: 1, calls: &calls})

	_, err := b.Dispatch(context.Background(), &Event{Kind: KindStarted, OperationID: "op-1", Fn: "row.create"})
	if err != nil {
		t.Fatalf("Dispatch returned error even though delivery is best-effort: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected both handlers invoked despite the first failing, got %v", calls)
	}
}

func TestDispatchNilEvent(t *testing.T) {
	b := New()
	if _, err := b.Dispatch(context.Background(), nil); err == nil {
		t.Fatal("expected error dispatching nil event")
	}
}

func TestUnregister(t *testing.T) {
	b := New()
	h := &recordingHandler{id: "h1", kinds: []Kind{KindStarted}}
	b.Register(h)
	if !b.Unregister("h1") {
		t.Fatal("expected Unregister to report removal")
	}
	if b.Unregister("h1") {
		t.Fatal("expected second Unregister to report no-op")
	}
	if len(b.Handlers()) != 0 {
		t.Fatalf("expected no handlers left, got %d", len(b.Handlers()))
	}
}

func TestDispatchContextCanceled(t *testing.T) {
	var calls []string
	b := New()
	b.Register(&recordingHandler{id: "h1", kinds: []Kind{KindStarted}, calls: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Dispatch(ctx, &Event{Kind: KindStarted, OperationID: "op-1", Fn: "row.create"})
	if err == nil {
		t.Fatal("expected error dispatching on a canceled context")
	}
}
