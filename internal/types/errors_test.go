package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := NewError(NotFound, "row 5 not found", "id", int64(5))
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is to match ErrNotFound by kind")
	}
	if errors.Is(err, ErrNameCollision) {
		t.Fatal("did not expect a different kind to match")
	}
}

func TestKindOf(t *testing.T) {
	err := NewError(CycleWouldBeIntroduced, "folder 2 is an ancestor of folder 9")
	kind, ok := KindOf(err)
	if !ok || kind != CycleWouldBeIntroduced {
		t.Fatalf("expected CycleWouldBeIntroduced, got %v ok=%v", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain error")); ok {
		t.Fatal("expected plain errors to report ok=false")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Transient, cause, "insert failed")
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected wrapped error to match ErrTransient")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose the original cause")
	}
}

func TestErrorContext(t *testing.T) {
	err := NewError(NameCollision, "name taken", "name", "Alpha", "scope", "platform")
	if err.Context["name"] != "Alpha" || err.Context["scope"] != "platform" {
		t.Fatalf("unexpected context: %v", err.Context)
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := NewError(InvalidScope, "more than one scope set")
	if got := err.Error(); got != fmt.Sprintf("%s: more than one scope set", InvalidScope) {
		t.Fatalf("unexpected message: %q", got)
	}
}
