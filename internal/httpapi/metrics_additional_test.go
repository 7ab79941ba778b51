package httpapi

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementRejected_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(rejectionsTotal.WithLabelValues("bad_json"))
	IncrementRejected("bad_json")
	IncrementRejected("bad_json")
	if got := testutil.ToFloat64(rejectionsTotal.WithLabelValues("bad_json")); got < baseline+2 {
		t.Fatalf("expected rejections counter >= %v, got %v", baseline+2, got)
	}

	// Empty reason should default to "unspecified"
	before := testutil.ToFloat64(rejectionsTotal.WithLabelValues("unspecified"))
	IncrementRejected("")
	after := testutil.ToFloat64(rejectionsTotal.WithLabelValues("unspecified"))
	if after < before+1 {
		t.Fatalf("expected unspecified reason to increment by at least 1: before=%v after=%v", before, after)
	}
}

func TestPredict_InvalidInputCountsRejection(t *testing.T) {
	h := NewMux(newService(t, "price", true))
	before := testutil.ToFloat64(rejectionsTotal.WithLabelValues("invalid_input"))
	postJSON(h, "/predict", `{"fields":{"miles":-1}}`)
	if got := testutil.ToFloat64(rejectionsTotal.WithLabelValues("invalid_input")); got != before+1 {
		t.Fatalf("expected invalid_input to increment: before=%v after=%v", before, got)
	}
}
