package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestRequestFailureKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("classify: %w", RequestFailure(cause))

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if got := KindOf(err); got != KindRequestFailure {
		t.Fatalf("expected kind %q, got %q", KindRequestFailure, got)
	}
	if got := StatusOf(err); got != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", got)
	}
	if RequestFailure(nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestIsMatchesKind(t *testing.T) {
	if !errors.Is(Busy(), Busy()) {
		t.Fatalf("expected busy errors to match by kind")
	}
	if errors.Is(Busy(), InvalidInput(nil)) {
		t.Fatalf("did not expect busy to match invalid input")
	}
}

func TestWrapRedis(t *testing.T) {
	if WrapRedis(nil) != nil {
		t.Fatalf("expected nil")
	}
	if got := StatusOf(WrapRedis(redis.Nil)); got != http.StatusNotFound {
		t.Fatalf("expected 404 for redis.Nil, got %d", got)
	}
	if got := StatusOf(WrapRedis(errors.New("boom"))); got != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", got)
	}
}

func TestDefaultsForPlainErrors(t *testing.T) {
	err := errors.New("plain")
	if KindOf(err) != KindInternal {
		t.Fatalf("expected internal kind")
	}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500")
	}
	if MessageOf(err) != SystemErrorMessage {
		t.Fatalf("expected system message")
	}
}
