package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bus dispatches events to registered handlers and mirrors every event to a
// structured logger. Delivery is best-effort: a handler error is logged and
// the chain continues, since the event sink must never gate the correctness
// of the repository operation that raised the event.
type Bus struct {
	handlers []Handler
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// New creates a new event bus that mirrors dispatched events to the global
// zerolog logger.
func New() *Bus {
	return &Bus{logger: log.Logger}
}

// WithLogger returns a copy of the bus that logs to l instead of the
// global logger. Useful for tests that want to capture emitted events.
func (b *Bus) WithLogger(l zerolog.Logger) *Bus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	nb := &Bus{logger: l, handlers: append([]Handler(nil), b.handlers...)}
	return nb
}

// Register adds a handler to the bus. Handlers are sorted by priority on
// each Dispatch call, so registration order does not matter.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes a handler by ID. Returns true if a handler was removed.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.ID() == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Dispatch sends an event to all registered handlers that handle its kind,
// then mirrors it to the structured logger. Handlers are called sequentially
// in priority order (lowest first); handler errors are logged but never stop
// the chain or propagate to the caller.
func (b *Bus) Dispatch(ctx context.Context, event *Event) (*Result, error) {
	if event == nil {
		return nil, fmt.Errorf("events: nil event")
	}

	b.mu.RLock()
	matching := b.matchingHandlers(event.Kind)
	logger := b.logger
	b.mu.RUnlock()

	result := &Result{}

	for _, h := range matching {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("events: context canceled: %w", err)
		}
		if err := h.Handle(ctx, event, result); err != nil {
			logger.Warn().Err(err).Str("handler", h.ID()).Str("kind", string(event.Kind)).Msg("event handler failed")
		}
	}

	logEvent(logger, event)
	return result, nil
}

func logEvent(logger zerolog.Logger, event *Event) {
	e := logger.Info()
	if event.Kind == KindFailed {
		e = logger.Error()
	}
	e = e.Str("kind", string(event.Kind)).
		Str("operation_id", event.OperationID).
		Str("fn", event.Fn)
	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.Tool != "" {
		e = e.Str("tool", event.Tool)
	}
	for k, v := range event.Fields {
		e = e.Interface(k, v)
	}
	e.Msg("ldm event")
}

// Handlers returns all registered handlers (for introspection/status reporting).
func (b *Bus) Handlers() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// matchingHandlers returns handlers that handle the given event kind, sorted
// by priority (lowest first). Must be called with at least a read lock held.
func (b *Bus) matchingHandlers(kind Kind) []Handler {
	var matched []Handler
	for _, h := range b.handlers {
		for _, k := range h.Handles() {
			if k == kind {
				matched = append(matched, h)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Priority() < matched[j].Priority()
	})
	return matched
}
