package analysis

import (
	"fmt"
	"math"
	"time"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
	"github.com/sift-lab/project-sift/internal/schema"
)

// Attribute names the projectors understand.
const (
	attrAmount   = "amount"
	attrDuration = "durationSeconds"
)

const hoursPerWeek = 168.0

// Projector folds derived values from one signal into the shared accumulator.
// Implementations must be stateless so a single instance can serve concurrent
// analyses. Ordering matters: the pipeline runs projectors in registration
// order, and later projectors may read keys set by earlier ones.
type Projector interface {
	// Supports is a guard; a projector is skipped entirely for a signal it
	// does not support.
	Supports(sig *v1.Signal, def *schema.Definition) bool

	// Project applies the projector's side effect on the accumulator.
	Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator)
}

// DefaultProjectors builds the standard pipeline in its required order.
// EngagementProjector must run before DomainAffinityProjector because the
// latter reads the running "count.total".
func DefaultProjectors(highlightedDomains []string) []Projector {
	return []Projector{
		NewEngagementProjector(),
		NewRecencyProjector(),
		NewDiversityProjector(),
		NewDomainAffinityProjector(),
		NewDomainProjector(highlightedDomains),
	}
}

// activeTags classify a schema tag as an "active" interaction for the
// engagement counter.
var activeTags = map[string]struct{}{
	"engagement": {},
	"experience": {},
	"conversion": {},
	"intent":     {},
}

// EngagementProjector derives raw activity counters: total and per-schema
// counts, per-tag counts, active-interaction counts, monetary and duration
// totals, and a last-event recency score.
type EngagementProjector struct {
	now func() time.Time
}

func NewEngagementProjector() *EngagementProjector {
	return &EngagementProjector{now: time.Now}
}

func (p *EngagementProjector) Supports(sig *v1.Signal, def *schema.Definition) bool {
	return sig != nil && def != nil
}

func (p *EngagementProjector) Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator) {
	acc.Increment("count.total")
	acc.Increment("schema." + SanitizeKeyPart(sig.SchemaID))

	active := false
	for _, tag := range def.Tags {
		acc.Increment("tag." + SanitizeKeyPart(tag))
		if _, ok := activeTags[tag]; ok {
			active = true
		}
	}
	if active {
		acc.Increment("count.active")
	}

	if amount, ok := extractNumber(sig.Attributes, attrAmount); ok && amount.IsPositive() {
		f, _ := amount.Float64()
		acc.Add("value.amount_total", f)
		acc.Increment("value.transaction_count")
	}
	if dur, ok := extractNumber(sig.Attributes, attrDuration); ok && !dur.IsZero() {
		f, _ := dur.Float64()
		acc.Add("duration.total_seconds", f)
	}

	if !sig.Timestamp.IsZero() {
		hoursAgo := p.now().Sub(sig.Timestamp).Hours()
		acc.Set("recency.last_score", math.Max(0, 1-math.Max(0, hoursAgo)/hoursPerWeek))
	}
}

// RecencyProjector tracks how fresh a user's activity is: a running maximum
// recency score, the hours since the most recently projected signal, and a
// per-schema recency value.
type RecencyProjector struct {
	now func() time.Time
}

func NewRecencyProjector() *RecencyProjector {
	return &RecencyProjector{now: time.Now}
}

func (p *RecencyProjector) Supports(sig *v1.Signal, def *schema.Definition) bool {
	return sig != nil && !sig.Timestamp.IsZero()
}

func (p *RecencyProjector) Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator) {
	hoursAgo := math.Max(0, p.now().Sub(sig.Timestamp).Hours())
	score := math.Max(0, 1-hoursAgo/hoursPerWeek)

	if score > acc.Value("kpi.recency_score") {
		acc.Set("kpi.recency_score", round2(score))
	}
	acc.Set("recency.hours_since_last", hoursAgo)
	acc.Increment("recency.events")
	acc.Set("recency.schema."+SanitizeKeyPart(sig.SchemaID), round2(score))
}

// DiversityProjector measures the breadth of a user's behavior across
// schemas, domains, and tags, blended into a single 0..1 score.
type DiversityProjector struct{}

func NewDiversityProjector() *DiversityProjector {
	return &DiversityProjector{}
}

func (p *DiversityProjector) Supports(sig *v1.Signal, def *schema.Definition) bool {
	return sig != nil && def != nil
}

func (p *DiversityProjector) Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator) {
	acc.Increment("diversity.events")
	acc.AddDistinct("diversity.schemas", SanitizeKeyPart(sig.SchemaID))
	if def.Domain != "" {
		acc.AddDistinct("diversity.domains", SanitizeKeyPart(def.Domain))
	}
	for _, tag := range def.Tags {
		acc.AddDistinct("diversity.tags", SanitizeKeyPart(tag))
	}

	schemas := float64(acc.DistinctCount("diversity.schemas"))
	domains := float64(acc.DistinctCount("diversity.domains"))
	tags := float64(acc.DistinctCount("diversity.tags"))

	score := 0.5*math.Min(1, schemas/10) +
		0.3*math.Min(1, domains/5) +
		0.2*math.Min(1, tags/15)
	acc.Set("kpi.diversity_score", round2(math.Min(1, score)))
}

// DomainAffinityProjector maintains a per-domain event count and its running
// share of all projected events. Depends on "count.total" being maintained
// by the EngagementProjector earlier in the pipeline.
type DomainAffinityProjector struct{}

func NewDomainAffinityProjector() *DomainAffinityProjector {
	return &DomainAffinityProjector{}
}

func (p *DomainAffinityProjector) Supports(sig *v1.Signal, def *schema.Definition) bool {
	return sig != nil && def != nil && def.Domain != ""
}

func (p *DomainAffinityProjector) Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator) {
	prefix := "domain." + SanitizeKeyPart(def.Domain)
	acc.Increment(prefix + ".count")

	total := math.Max(1, acc.Value("count.total"))
	share := acc.Value(prefix+".count") / total
	acc.Set(prefix+".share", math.Min(1, math.Max(0, share)))
}

// DomainProjector accumulates per-domain event and monetary totals for an
// optional allow-list of highlighted domains. An empty allow-list highlights
// every domain.
type DomainProjector struct {
	highlighted map[string]struct{}
}

func NewDomainProjector(highlightedDomains []string) *DomainProjector {
	p := &DomainProjector{}
	if len(highlightedDomains) > 0 {
		p.highlighted = make(map[string]struct{}, len(highlightedDomains))
		for _, d := range highlightedDomains {
			p.highlighted[d] = struct{}{}
		}
	}
	return p
}

func (p *DomainProjector) Supports(sig *v1.Signal, def *schema.Definition) bool {
	if sig == nil || def == nil || def.Domain == "" {
		return false
	}
	if p.highlighted == nil {
		return true
	}
	_, ok := p.highlighted[def.Domain]
	return ok
}

func (p *DomainProjector) Project(sig *v1.Signal, def *schema.Definition, acc *Accumulator) {
	prefix := "domain." + SanitizeKeyPart(def.Domain)
	acc.Increment(prefix + ".events")

	if amount, ok := extractNumber(sig.Attributes, attrAmount); ok && amount.IsPositive() {
		f, _ := amount.Float64()
		acc.Add(prefix+".amount_total", f)
	}
}

// round2 rounds to 2 decimal places for stable, comparable score values.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// runPipeline replays one signal through every registered projector in order,
// resolving the schema definition once. Signals with an unknown schema are
// still offered to projectors with a nil definition so each guard can decide.
func runPipeline(projectors []Projector, registry *schema.Registry, sig *v1.Signal, acc *Accumulator) {
	def := registry.Find(sig.SchemaID)
	for _, p := range projectors {
		if p.Supports(sig, def) {
			p.Project(sig, def, acc)
		}
	}
}

// describeScorecard renders selected accumulator values for debug logging.
func describeScorecard(acc *Accumulator) string {
	return fmt.Sprintf("total=%.0f active=%.0f recency=%.2f diversity=%.2f",
		acc.Value("count.total"),
		acc.Value("count.active"),
		acc.Value("kpi.recency_score"),
		acc.Value("kpi.diversity_score"))
}
