package schema

// AttributeType enumerates the value types an attribute definition can declare.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeInteger AttributeType = "integer"
	TypeBoolean AttributeType = "boolean"
	TypeObject  AttributeType = "object"
	TypeArray   AttributeType = "array"
)

// ValidType reports whether t is one of the supported attribute types.
func ValidType(t AttributeType) bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// AttributeDefinition declares the shape and constraints of a single
// signal attribute.
type AttributeDefinition struct {
	// Name is the attribute key in the signal payload.
	Name string `yaml:"name"`

	// Type is the expected value type.
	Type AttributeType `yaml:"type"`

	// Required indicates the attribute must be present (default: false).
	Required bool `yaml:"required,omitempty"`

	// MaxLength bounds string length. Nil means unbounded.
	MaxLength *int `yaml:"max_length,omitempty"`

	// Minimum/Maximum bound numeric values. Nil means unbounded.
	Minimum *float64 `yaml:"minimum,omitempty"`
	Maximum *float64 `yaml:"maximum,omitempty"`

	// EnumValues restricts string values to a fixed set. Matching is
	// case-insensitive.
	EnumValues []string `yaml:"enum_values,omitempty"`
}

// Definition is the declared shape and constraints for a family of signals
// sharing a schema ID. Immutable once loaded; owned by the registry and
// reloaded only at process start.
type Definition struct {
	// ID is the unique schema identifier (e.g. "checkout.completed").
	ID string `yaml:"id"`

	// Version is the schema version number (1, 2, 3...).
	Version int `yaml:"version"`

	// Domain is an optional business-domain label (e.g. "electronics").
	Domain string `yaml:"domain,omitempty"`

	// Tags classify the schema for the metric projectors
	// (e.g. "engagement", "transaction").
	Tags []string `yaml:"tags,omitempty"`

	// Attributes is the ordered list of attribute definitions.
	Attributes []AttributeDefinition `yaml:"attributes"`
}

// HasTag reports whether the definition carries the given tag.
func (d *Definition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
