package schema

import (
	"fmt"
	"strings"
	"time"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

// Validator validates and normalizes raw signals against their registered
// schema before acceptance. It performs no I/O and holds no mutable state
// beyond the read-only registry, so it is safe to call from any goroutine.
type Validator struct {
	registry      *Registry
	maxAttributes int
	now           func() time.Time
}

// NewValidator creates a validator bound to a registry.
// maxAttributes caps the attribute map size per signal.
func NewValidator(registry *Registry, maxAttributes int) *Validator {
	if registry == nil {
		panic("schema: validator requires a registry")
	}
	if maxAttributes <= 0 {
		maxAttributes = 50
	}
	return &Validator{
		registry:      registry,
		maxAttributes: maxAttributes,
		now:           time.Now,
	}
}

// Validate checks the signal against its schema and fills in defaults
// (timestamp, ingested-at, version) in place. Returns the same instance on
// success. Already-populated timestamp/version fields are never changed, so
// re-validating an accepted signal is idempotent.
func (v *Validator) Validate(sig *v1.Signal) (*v1.Signal, error) {
	if sig == nil {
		return nil, &ValidationError{Message: "signal must not be nil"}
	}

	if sig.UserID == "" && sig.SessionID == "" {
		return nil, &ValidationError{Message: "either user_id or session_id is required"}
	}

	if sig.SchemaID == "" {
		return nil, &ValidationError{Message: "schema_id is required"}
	}
	def, err := v.registry.Get(sig.SchemaID)
	if err != nil {
		return nil, err
	}

	if len(sig.Attributes) > v.maxAttributes {
		return nil, newValidationError(def.ID, def.Version, "",
			fmt.Sprintf("attribute count exceeds maximum of %d", v.maxAttributes))
	}

	for i := range def.Attributes {
		attr := &def.Attributes[i]
		value, present := sig.Attributes[attr.Name]

		if !present {
			if attr.Required {
				return nil, newValidationError(def.ID, def.Version, attr.Name, "required attribute is missing")
			}
			continue
		}

		if err := validateValue(def, attr, value); err != nil {
			return nil, err
		}
	}

	now := v.now().UTC()
	if sig.Timestamp.IsZero() {
		sig.Timestamp = now
	}
	if sig.IngestedAt.IsZero() {
		sig.IngestedAt = now
	}
	if sig.Version == 0 {
		sig.Version = def.Version
	}

	return sig, nil
}

// validateValue checks one present attribute value against its definition:
// type first, then bounds.
func validateValue(def *Definition, attr *AttributeDefinition, value interface{}) error {
	switch attr.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return typeMismatch(def, attr, "string", value)
		}
		if attr.MaxLength != nil && len(str) > *attr.MaxLength {
			return newValidationError(def.ID, def.Version, attr.Name,
				fmt.Sprintf("string length %d exceeds maximum %d", len(str), *attr.MaxLength))
		}
		if len(attr.EnumValues) > 0 && !enumMatch(attr.EnumValues, str) {
			return newValidationError(def.ID, def.Version, attr.Name,
				fmt.Sprintf("value %q is not an allowed enum value", str))
		}

	case TypeNumber:
		num, ok := asFloat(value)
		if !ok {
			return typeMismatch(def, attr, "number", value)
		}
		return checkBounds(def, attr, num)

	case TypeInteger:
		num, ok := asFloat(value)
		if !ok || num != float64(int64(num)) {
			return typeMismatch(def, attr, "integer", value)
		}
		return checkBounds(def, attr, num)

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(def, attr, "boolean", value)
		}

	case TypeObject:
		if _, ok := value.(map[string]interface{}); !ok {
			return typeMismatch(def, attr, "object", value)
		}

	case TypeArray:
		if _, ok := value.([]interface{}); !ok {
			return typeMismatch(def, attr, "array", value)
		}
	}

	return nil
}

func checkBounds(def *Definition, attr *AttributeDefinition, num float64) error {
	if attr.Minimum != nil && num < *attr.Minimum {
		return newValidationError(def.ID, def.Version, attr.Name,
			fmt.Sprintf("value %v is less than minimum %v", num, *attr.Minimum))
	}
	if attr.Maximum != nil && num > *attr.Maximum {
		return newValidationError(def.ID, def.Version, attr.Name,
			fmt.Sprintf("value %v exceeds maximum %v", num, *attr.Maximum))
	}
	return nil
}

func enumMatch(allowed []string, value string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return true
		}
	}
	return false
}

// asFloat widens the numeric types JSON and YAML decoders produce.
func asFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func typeMismatch(def *Definition, attr *AttributeDefinition, expected string, actual interface{}) error {
	return newValidationError(def.ID, def.Version, attr.Name,
		"expected "+expected+", got "+jsonTypeName(actual))
}

// jsonTypeName returns a human-readable type name for JSON values.
func jsonTypeName(v interface{}) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case bool:
		return "bool"
	case float64, float32, int, int32, int64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "unknown"
	}
}

