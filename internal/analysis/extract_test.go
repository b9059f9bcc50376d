package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtractNumber(t *testing.T) {
	attrs := map[string]interface{}{
		"float":   42.5,
		"int":     7,
		"int64":   int64(9),
		"string":  "19.99",
		"garbage": "not-a-number",
		"object":  map[string]interface{}{},
	}

	mustExtract := func(name string, want decimal.Decimal) {
		t.Helper()
		got, ok := extractNumber(attrs, name)
		require.True(t, ok, "attribute %q", name)
		require.True(t, got.Equal(want), "attribute %q: got %s", name, got)
	}
	mustMiss := func(m map[string]interface{}, name string) {
		t.Helper()
		got, ok := extractNumber(m, name)
		require.False(t, ok, "attribute %q", name)
		require.True(t, got.IsZero(), "attribute %q: got %s", name, got)
	}

	mustExtract("float", decimal.NewFromFloat(42.5))
	mustExtract("int", decimal.NewFromInt(7))
	mustExtract("int64", decimal.NewFromInt(9))
	mustExtract("string", decimal.RequireFromString("19.99"))

	mustMiss(attrs, "garbage")
	mustMiss(attrs, "object")
	mustMiss(attrs, "missing")
	mustMiss(nil, "float")
	mustMiss(attrs, "")
}
