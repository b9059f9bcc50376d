package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/schema"
)

// transactionTag marks the schemas the anomaly detector inspects.
const transactionTag = "transaction"

// AnomalyAnalyzer flags suspicious transaction activity in a window of
// signals: too many transactions per user for the given sensitivity, or a
// single transaction above the configured value threshold. Detection is
// user-scoped; signals without a user id are ignored entirely.
type AnomalyAnalyzer struct {
	registry  *schema.Registry
	threshold float64
	now       func() time.Time
}

// NewAnomalyAnalyzer wires the detector. highValueThreshold is the amount at
// or above which a single transaction is flagged as high value.
func NewAnomalyAnalyzer(registry *schema.Registry, highValueThreshold float64) *AnomalyAnalyzer {
	return &AnomalyAnalyzer{
		registry:  registry,
		threshold: highValueThreshold,
		now:       time.Now,
	}
}

// VelocityThreshold maps a sensitivity in [0,1] to the per-user transaction
// count that trips a velocity alert: 5 at sensitivity 0, down to 2 at
// sensitivity 1 (never below 2).
func VelocityThreshold(sensitivity float64) int {
	return int(math.Max(2, math.Round(5-sensitivity*4)))
}

// Detect scans the window and returns one alert per transaction signal that
// trips either condition. Missing or unparseable amounts never trip the value
// condition, whatever the configured threshold.
func (a *AnomalyAnalyzer) Detect(signals []*v1.Signal, sensitivity float64) []*v1.Alert {
	perUser := make(map[string]int)
	for _, sig := range signals {
		if sig.UserID != "" {
			perUser[sig.UserID]++
		}
	}

	velocityThreshold := VelocityThreshold(sensitivity)
	now := a.now().UTC()

	var alerts []*v1.Alert
	for _, sig := range signals {
		if sig.UserID == "" {
			continue
		}
		def := a.registry.Find(sig.SchemaID)
		if def == nil || !def.HasTag(transactionTag) {
			continue
		}

		parsed, ok := extractNumber(sig.Attributes, attrAmount)
		amount, _ := parsed.Float64()
		highVelocity := perUser[sig.UserID] >= velocityThreshold
		highValue := ok && amount >= a.threshold
		if !highVelocity && !highValue {
			continue
		}

		alerts = append(alerts, a.buildAlert(sig, amount, perUser[sig.UserID], velocityThreshold, highVelocity, highValue, now))
	}

	if len(alerts) > 0 {
		slog.Info("[AnomalyAnalyzer] Anomalies detected",
			"alerts", len(alerts),
			"signals", len(signals),
			"velocity_threshold", velocityThreshold)
	}
	return alerts
}

func (a *AnomalyAnalyzer) buildAlert(sig *v1.Signal, amount float64, userCount, velocityThreshold int, highVelocity, highValue bool, now time.Time) *v1.Alert {
	alertType := v1.AlertHighVelocity
	severity := v1.SeverityMedium
	var message string

	switch {
	case highValue && highVelocity:
		alertType = v1.AlertHighValue
		severity = v1.SeverityCritical
		message = fmt.Sprintf("transaction of %.2f at or above threshold %.2f during a burst of %d transactions (velocity threshold %d)",
			amount, a.threshold, userCount, velocityThreshold)
	case highValue:
		alertType = v1.AlertHighValue
		severity = v1.SeverityCritical
		message = fmt.Sprintf("transaction of %.2f at or above threshold %.2f", amount, a.threshold)
	case highVelocity:
		severity = v1.SeverityHigh
		message = fmt.Sprintf("%d transactions in the detection window exceed the velocity threshold of %d", userCount, velocityThreshold)
	}

	return &v1.Alert{
		UserID:    sig.UserID,
		SignalID:  sig.ID,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		Context: map[string]interface{}{
			"amount":    amount,
			"schema_id": sig.SchemaID,
			"timestamp": sig.Timestamp,
		},
		CreatedAt: now,
	}
}
