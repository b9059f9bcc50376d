package v1

import "time"

// Insight is the scored, tagged output of analyzing one user's signal
// history. One current insight is retained per user; each re-analysis
// supersedes the previous record. The record expires logically after
// ValidUntil but is not auto-deleted.
type Insight struct {
	// UserID is the user the insight describes.
	UserID string `json:"user_id"`

	// Patterns is the ordered list of categorical behavioral tags
	// (e.g. "power_user", "weekend_bias").
	Patterns []string `json:"patterns"`

	// Scores maps named metrics to values in [0, 1]
	// (engagement, diversity, recency, velocity, interaction_density).
	Scores map[string]float64 `json:"scores"`

	// Segment is the coarse segment label derived from the scorecard.
	Segment string `json:"segment"`

	// Preferences maps a preference dimension (e.g. a domain) to its
	// observed share of activity.
	Preferences map[string]float64 `json:"preferences,omitempty"`

	// Recommendations lists suggested follow-up actions for this user.
	Recommendations []string `json:"recommendations,omitempty"`

	// AnalyzedAt is when the analysis ran.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// ValidUntil is AnalyzedAt plus the configured validity window.
	ValidUntil time.Time `json:"valid_until"`

	// AnalysisVersion identifies the scoring algorithm revision.
	AnalysisVersion string `json:"analysis_version"`
}

// Expired reports whether the insight is logically stale at the given time.
func (i *Insight) Expired(at time.Time) bool {
	return at.After(i.ValidUntil)
}
