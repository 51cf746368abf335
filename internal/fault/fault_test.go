package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(Reject, "Image too blurry (score %.2f < %.2f).", 12.5, 80.0)

	kind, ok := KindOf(err)
	if !ok || kind != Reject {
		t.Fatalf("expected reject kind, got %v (%v)", kind, ok)
	}
	if err.Error() != "Image too blurry (score 12.50 < 80.00)." {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := Wrap(ModelCall, errors.New("connection refused"), "model call failed after retries")
	outer := fmt.Errorf("pipeline stage: %w", inner)

	kind, ok := KindOf(outer)
	if !ok || kind != ModelCall {
		t.Fatalf("expected model-call kind through wrapping, got %v (%v)", kind, ok)
	}
	if !errors.Is(outer, errors.Unwrap(errors.Unwrap(outer))) {
		t.Fatal("expected the cause chain to be preserved")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("status 400: bad request")
	err := Wrap(ModelCall, cause, "model endpoint rejected request")

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the cause, got %v", err)
	}

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected a failure, got %T", err)
	}
	if failure.Kind != ModelCall {
		t.Fatalf("unexpected kind %v", failure.Kind)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("expected plain errors to carry no kind")
	}
}
