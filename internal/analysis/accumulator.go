// Package analysis derives rolling per-user metrics, qualitative behavioral
// patterns, and anomaly alerts from accumulated signal history.
package analysis

import "strings"

// Accumulator is the in-memory keyed aggregate scoped to one analysis run:
// numeric counters and gauges, distinct-value sets, and last-seen free
// attributes. Keys are opaque dot-delimited strings constructed by each
// projector; no collision detection is performed, so projector authors must
// namespace carefully. Not shared across concurrent analyses: one instance
// per invocation, discarded after the insight or alerts are produced.
type Accumulator struct {
	values map[string]float64
	sets   map[string]map[string]struct{}
	attrs  map[string]string
}

// NewAccumulator creates an empty accumulator for one analysis pass.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		values: make(map[string]float64),
		sets:   make(map[string]map[string]struct{}),
		attrs:  make(map[string]string),
	}
}

// Increment adds 1 to the keyed counter.
func (a *Accumulator) Increment(key string) {
	a.values[key]++
}

// Add folds amount into the keyed counter.
func (a *Accumulator) Add(key string, amount float64) {
	a.values[key] += amount
}

// Set overwrites the keyed gauge.
func (a *Accumulator) Set(key string, value float64) {
	a.values[key] = value
}

// Value returns the keyed numeric value, 0 if absent.
func (a *Accumulator) Value(key string) float64 {
	return a.values[key]
}

// AddDistinct records value into the keyed distinct-value set.
func (a *Accumulator) AddDistinct(key, value string) {
	set, ok := a.sets[key]
	if !ok {
		set = make(map[string]struct{})
		a.sets[key] = set
	}
	set[value] = struct{}{}
}

// DistinctCount returns the size of the keyed distinct-value set.
func (a *Accumulator) DistinctCount(key string) int {
	return len(a.sets[key])
}

// SetAttribute records a free string value (e.g. a last-seen timestamp).
func (a *Accumulator) SetAttribute(key, value string) {
	a.attrs[key] = value
}

// Attribute returns the keyed free string value, "" if absent.
func (a *Accumulator) Attribute(key string) string {
	return a.attrs[key]
}

// Values returns the live numeric map. Callers must treat it as read-only.
func (a *Accumulator) Values() map[string]float64 {
	return a.values
}

// SanitizeKeyPart makes an arbitrary value safe for use as a key fragment:
// characters outside ASCII alnum / '.' / '_' / '-' become '_', and
// empty or blank inputs degrade to the literal "unknown".
func SanitizeKeyPart(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '.' || c == '_' || c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
