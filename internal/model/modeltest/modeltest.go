// Package modeltest carries small fitted artifacts for tests across packages.
package modeltest

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"
)

//go:embed price.json
var PriceJSON []byte

//go:embed risk.yaml
var RiskYAML []byte

// PriceIntercept and friends mirror price.json so tests can compute the
// expected estimate.
const (
	PriceIntercept = -1990000.0
	PriceMiles     = -0.05
	PriceYear      = 1000.0
	PriceEngine    = 800.0
)

// WriteFile writes an artifact into a temp dir and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}
