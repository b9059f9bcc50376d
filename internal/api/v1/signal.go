package v1

import "time"

// Signal is the atomic unit of the system: one recorded behavioral event.
// It separates the "Envelope" (system attributes) from the "Letter" (Attributes).
type Signal struct {
	// --- System Attributes (The Envelope) ---

	// ID is the unique signal identifier. Generated on first acceptance if
	// the producer did not supply one.
	ID string `json:"id"`

	// SchemaID references the SchemaDefinition this signal was recorded under.
	// This acts as the key for the schema registry lookup.
	SchemaID string `json:"schema_id"`

	// UserID identifies the user that produced this signal.
	// Exactly one of UserID/SessionID must be present.
	UserID string `json:"user_id,omitempty"`

	// SessionID identifies an anonymous session when no user is known.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the behavior occurred in the real world (client-side
	// clock). Defaulted to the ingestion time if absent.
	Timestamp time.Time `json:"timestamp"`

	// IngestedAt is when the system accepted the signal (server-side clock).
	// Set once by the ingestion service, never mutated afterwards.
	IngestedAt time.Time `json:"ingested_at"`

	// Version is the schema version the signal was validated against.
	// Copied from the schema definition at validation time if absent.
	Version int `json:"version"`

	// IngestSeq is a monotonic sequence number assigned on durable ingestion.
	// Set by database (BIGSERIAL), not exposed in the public API.
	IngestSeq int64 `json:"-"`

	// --- User Payload (The Letter) ---

	// Attributes is the domain-specific payload, validated against the
	// schema's attribute definitions. Bounded by a configured maximum
	// key count at validation time.
	Attributes map[string]interface{} `json:"attributes"`
}

// Subject returns the identity the signal is scoped to: the user ID when
// present, the session ID otherwise. Used as the partition key for
// queue-backed sinks so per-user ordering is preserved.
func (s *Signal) Subject() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.SessionID
}

// Attr returns the named attribute value, or nil if absent.
func (s *Signal) Attr(name string) interface{} {
	if s.Attributes == nil {
		return nil
	}
	return s.Attributes[name]
}

// SetAttr sets an attribute, allocating the map on first use.
func (s *Signal) SetAttr(name string, value interface{}) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]interface{})
	}
	s.Attributes[name] = value
}
