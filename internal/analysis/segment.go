package analysis

import "strings"

// User segments assigned from the scorecard.
const (
	SegmentChampion = "champion"
	SegmentAtRisk   = "at_risk"
	SegmentCasual   = "casual"
	SegmentCore     = "core"
)

// segmentUser assigns a user segment, domain preferences, and follow-up
// recommendations from the accumulated metrics, the scorecard, and the
// detected pattern tags.
//
// Segment precedence: high engagement outranks dormancy, dormancy outranks
// low engagement.
func segmentUser(acc *Accumulator, scores map[string]float64, patterns []string) (string, map[string]float64, []string) {
	segment := SegmentCore
	switch {
	case scores[ScoreEngagement] >= 0.8:
		segment = SegmentChampion
	case scores[ScoreRecency] < 0.3:
		segment = SegmentAtRisk
	case scores[ScoreEngagement] < 0.2:
		segment = SegmentCasual
	}

	return segment, domainPreferences(acc), recommendationsFor(patterns)
}

// domainPreferences extracts the per-domain share values maintained by the
// domain affinity projector, keyed by bare domain name.
func domainPreferences(acc *Accumulator) map[string]float64 {
	preferences := make(map[string]float64)
	for key, value := range acc.Values() {
		if !strings.HasPrefix(key, "domain.") || !strings.HasSuffix(key, ".share") {
			continue
		}
		domain := strings.TrimSuffix(strings.TrimPrefix(key, "domain."), ".share")
		if domain != "" {
			preferences[domain] = value
		}
	}
	return preferences
}

// recommendationsFor maps pattern tags to next-step recommendations.
// The ordering mirrors tag urgency: win-back first, then growth levers.
func recommendationsFor(patterns []string) []string {
	var recs []string
	for _, p := range patterns {
		switch p {
		case PatternDormant:
			recs = append(recs, "re_engagement_campaign")
		case PatternPowerUser:
			recs = append(recs, "loyalty_program")
		case PatternLowActivity:
			recs = append(recs, "onboarding_nudges")
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "maintain_cadence")
	}
	return recs
}
