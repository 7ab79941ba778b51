package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPredictContext_BaseCancelAndTimeout(t *testing.T) {
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	SetPredictTimeout(time.Minute)
	t.Cleanup(func() {
		SetBaseContext(context.Background())
		SetPredictTimeout(0)
	})

	r := httptest.NewRequest(http.MethodPost, "/predict", nil)
	ctx, cancel := predictContext(r)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected the prediction timeout to set a deadline")
	}
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("prediction context did not cancel on shutdown")
	}
}

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	a, ac := context.WithCancel(context.Background())
	b, bc := context.WithCancel(context.Background())
	defer bc()
	j, cancelJ := joinContexts(a, b)
	defer cancelJ()
	// cancel A and expect joined canceled
	ac()
	select {
	case <-j.Done():
		// ok
	case <-time.After(500 * time.Millisecond):
		t.Fatal("joined context did not cancel when first parent canceled")
	}
}

type ctxKey struct{}

func TestJoinContexts_KeepsRequestValues(t *testing.T) {
	b := context.WithValue(context.Background(), ctxKey{}, "rid-1")
	j, cancel := joinContexts(context.Background(), b)
	defer cancel()
	if got := j.Value(ctxKey{}); got != "rid-1" {
		t.Fatalf("expected request value to survive join, got %v", got)
	}
}
