package analysis

import (
	"log/slog"
	"math"
	"sort"
	"time"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/schema"
)

// AnalysisVersion stamps every produced insight so downstream consumers can
// detect scorecard semantics changes.
const AnalysisVersion = "2.0.0"

// Pattern tags derived from the scorecard.
const (
	PatternPowerUser        = "power_user"
	PatternLowActivity      = "low_activity"
	PatternSteadyState      = "steady_state"
	PatternDormant          = "dormant"
	PatternRecentEngagement = "recent_engagement"
	PatternBurstActivity    = "burst_activity"
	PatternEveningBias      = "evening_bias"
	PatternWeekendBias      = "weekend_bias"
	PatternInsufficientData = "insufficient_data"
)

// Scorecard key names in Insight.Scores.
const (
	ScoreEngagement         = "engagement"
	ScoreDiversity          = "diversity"
	ScoreRecency            = "recency"
	ScoreVelocity           = "velocity"
	ScoreInteractionDensity = "interaction_density"
)

// PatternAnalyzer turns one user's signal history into a time-bounded,
// scored, tagged Insight. It is stateless across invocations; the
// accumulator feeding the segmentation step is created fresh per call.
type PatternAnalyzer struct {
	registry   *schema.Registry
	projectors []Projector
	validity   time.Duration
	now        func() time.Time
}

// NewPatternAnalyzer wires the analyzer with its ordered projector pipeline
// and the validity window applied to every produced insight.
func NewPatternAnalyzer(registry *schema.Registry, projectors []Projector, validity time.Duration) *PatternAnalyzer {
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	return &PatternAnalyzer{
		registry:   registry,
		projectors: projectors,
		validity:   validity,
		now:        time.Now,
	}
}

// Analyze computes the behavioral insight for one user from their full
// signal history. An empty history yields the canonical "new user" insight
// rather than an error.
func (a *PatternAnalyzer) Analyze(userID string, signals []*v1.Signal) *v1.Insight {
	now := a.now().UTC()

	if len(signals) == 0 {
		return &v1.Insight{
			UserID:   userID,
			Patterns: []string{PatternInsufficientData},
			Scores: map[string]float64{
				ScoreEngagement:         0,
				ScoreDiversity:          0,
				ScoreRecency:            0,
				ScoreVelocity:           0,
				ScoreInteractionDensity: 0,
			},
			Segment:         "new_user",
			Preferences:     map[string]float64{},
			Recommendations: []string{"collect_additional_signals"},
			AnalyzedAt:      now,
			ValidUntil:      now.Add(a.validity),
			AnalysisVersion: AnalysisVersion,
		}
	}

	sorted := sortByTimestamp(signals)

	acc := NewAccumulator()
	for _, sig := range sorted {
		runPipeline(a.projectors, a.registry, sig, acc)
	}

	scores := a.scorecard(sorted, now)
	patterns := derivePatterns(sorted, scores)
	segment, preferences, recommendations := segmentUser(acc, scores, patterns)

	slog.Debug("[PatternAnalyzer] Analysis complete",
		"user_id", userID,
		"signals", len(sorted),
		"segment", segment,
		"scorecard", describeScorecard(acc))

	return &v1.Insight{
		UserID:          userID,
		Patterns:        patterns,
		Scores:          scores,
		Segment:         segment,
		Preferences:     preferences,
		Recommendations: recommendations,
		AnalyzedAt:      now,
		ValidUntil:      now.Add(a.validity),
		AnalysisVersion: AnalysisVersion,
	}
}

// sortByTimestamp returns a copy ordered by event time ascending, signals
// without a timestamp last.
func sortByTimestamp(signals []*v1.Signal) []*v1.Signal {
	sorted := make([]*v1.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp, sorted[j].Timestamp
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})
	return sorted
}

// scorecard computes the five headline scores from the sorted history.
func (a *PatternAnalyzer) scorecard(sorted []*v1.Signal, now time.Time) map[string]float64 {
	n := float64(len(sorted))

	uniqueSchemas := make(map[string]struct{}, len(sorted))
	lastHour := 0.0
	var mostRecent time.Time
	for _, sig := range sorted {
		uniqueSchemas[sig.SchemaID] = struct{}{}
		if sig.Timestamp.IsZero() {
			continue
		}
		if sig.Timestamp.After(mostRecent) {
			mostRecent = sig.Timestamp
		}
		if now.Sub(sig.Timestamp) <= time.Hour {
			lastHour++
		}
	}

	recency := 0.0
	if !mostRecent.IsZero() {
		recency = math.Max(0, 1-now.Sub(mostRecent).Hours()/hoursPerWeek)
	}

	return map[string]float64{
		ScoreEngagement:         math.Min(1, math.Log(n+1)/4),
		ScoreDiversity:          math.Min(1, float64(len(uniqueSchemas))/math.Max(1, n)),
		ScoreRecency:            recency,
		ScoreVelocity:           math.Min(1, lastHour/20),
		ScoreInteractionDensity: math.Min(1, n/100),
	}
}

// derivePatterns maps the scorecard and the event-time distribution to
// categorical behavior tags.
func derivePatterns(sorted []*v1.Signal, scores map[string]float64) []string {
	var patterns []string

	switch {
	case scores[ScoreEngagement] >= 0.8:
		patterns = append(patterns, PatternPowerUser)
	case scores[ScoreEngagement] < 0.2:
		patterns = append(patterns, PatternLowActivity)
	default:
		patterns = append(patterns, PatternSteadyState)
	}

	if scores[ScoreRecency] < 0.3 {
		patterns = append(patterns, PatternDormant)
	} else if scores[ScoreRecency] > 0.7 {
		patterns = append(patterns, PatternRecentEngagement)
	}

	if scores[ScoreVelocity] > 0.6 {
		patterns = append(patterns, PatternBurstActivity)
	}

	evening, weekend := 0.0, 0.0
	for _, sig := range sorted {
		if sig.Timestamp.IsZero() {
			continue
		}
		ts := sig.Timestamp.UTC()
		if h := ts.Hour(); h >= 18 || h < 4 {
			evening++
		}
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
	}
	n := float64(len(sorted))
	if evening/n >= 0.6 {
		patterns = append(patterns, PatternEveningBias)
	}
	if weekend/n >= 0.5 {
		patterns = append(patterns, PatternWeekendBias)
	}

	return patterns
}
