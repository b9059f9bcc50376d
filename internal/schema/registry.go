package schema

import "fmt"

// Registry holds the full set of schema definitions for the process.
// Populated once at startup by a loader and read-only afterwards, so the
// lookup path is safe for unlimited concurrent readers without locking.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry builds a registry from loaded definitions.
// Returns an error on duplicate or malformed definitions.
func NewRegistry(defs []*Definition) (*Registry, error) {
	byID := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("schema definition with empty id")
		}
		if d.Version < 1 {
			return nil, fmt.Errorf("schema %q: version must be >= 1", d.ID)
		}
		if _, exists := byID[d.ID]; exists {
			return nil, fmt.Errorf("schema %q: duplicate definition", d.ID)
		}
		for _, attr := range d.Attributes {
			if attr.Name == "" {
				return nil, fmt.Errorf("schema %q: attribute with empty name", d.ID)
			}
			if !ValidType(attr.Type) {
				return nil, fmt.Errorf("schema %q attribute %q: unsupported type %q", d.ID, attr.Name, attr.Type)
			}
			if attr.Minimum != nil && attr.Maximum != nil && *attr.Minimum > *attr.Maximum {
				return nil, fmt.Errorf("schema %q attribute %q: minimum %v exceeds maximum %v", d.ID, attr.Name, *attr.Minimum, *attr.Maximum)
			}
		}
		byID[d.ID] = d
	}
	return &Registry{defs: byID}, nil
}

// Find returns the definition for the given schema ID, or nil if unknown.
func (r *Registry) Find(schemaID string) *Definition {
	return r.defs[schemaID]
}

// Get returns the definition for the given schema ID, failing with a
// NotFoundError if absent.
func (r *Registry) Get(schemaID string) (*Definition, error) {
	d, ok := r.defs[schemaID]
	if !ok {
		return nil, &NotFoundError{SchemaID: schemaID}
	}
	return d, nil
}

// Size returns the number of registered definitions.
func (r *Registry) Size() int {
	return len(r.defs)
}
