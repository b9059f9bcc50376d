package analysis

import "github.com/shopspring/decimal"

// extractNumber pulls a numeric value from the signal's attribute map by name.
// The second return reports whether a numeric value was actually present;
// missing, empty, or unrecognized attributes yield (decimal.Zero, false).
// JSON numbers unmarshal to float64, which is the common path.
func extractNumber(attrs map[string]interface{}, name string) (decimal.Decimal, bool) {
	if name == "" || attrs == nil {
		return decimal.Zero, false
	}
	v, ok := attrs[name]
	if !ok {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat(float64(val)), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
