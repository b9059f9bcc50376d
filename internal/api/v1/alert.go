package v1

import "time"

// AlertSeverity classifies how urgent an anomaly alert is.
type AlertSeverity string

const (
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert reason codes emitted by the anomaly analyzer.
const (
	AlertHighVelocity = "high_transaction_velocity"
	AlertHighValue    = "high_transaction_value"
)

// Alert flags one signal belonging to a user exhibiting suspicious activity.
// Alerts are append-only: the analyzer never mutates or deduplicates them.
type Alert struct {
	// UserID is the user the alert is about.
	UserID string `json:"user_id"`

	// SignalID is the id of the signal that triggered the alert.
	SignalID string `json:"signal_id"`

	// AlertType is the reason code (high_transaction_velocity or
	// high_transaction_value).
	AlertType string `json:"alert_type"`

	// Severity is MEDIUM, HIGH, or CRITICAL.
	Severity AlertSeverity `json:"severity"`

	// Message is a human-readable description of what triggered the alert.
	Message string `json:"message"`

	// Context carries supporting values: amount, schema id, event timestamp.
	Context map[string]interface{} `json:"context,omitempty"`

	// CreatedAt is when the detector emitted the alert.
	CreatedAt time.Time `json:"created_at"`
}
