// Package heuristics derives probabilistic hints, red flags and response-quality signals
// from scored answers. Every hint carries an inspectable confidence breakdown.
package heuristics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
)

// Config holds the engine thresholds.
type Config struct {
	SelfHarmThreshold float64
	PsychosisBand     domain.Band
	PenaltyPerFlag    float64
	Weights           ConfidenceWeights
}

// DefaultConfig flags self-harm at any non-zero answer and psychosis at band 3.
func DefaultConfig() Config {
	return Config{
		SelfHarmThreshold: 1,
		PsychosisBand:     domain.BandModerate,
		PenaltyPerFlag:    0.1,
		Weights:           DefaultWeights(),
	}
}

// ConfigFrom overlays configured values on DefaultConfig. Zero values keep the default.
func ConfigFrom(hc domain.HeuristicsConfig) Config {
	cfg := DefaultConfig()
	if hc.SelfHarmThreshold > 0 {
		cfg.SelfHarmThreshold = hc.SelfHarmThreshold
	}
	if hc.PsychosisBand > 0 {
		cfg.PsychosisBand = domain.Band(hc.PsychosisBand)
	}
	if hc.PenaltyPerFlag > 0 {
		cfg.PenaltyPerFlag = hc.PenaltyPerFlag
	}
	return cfg
}

// Input is everything the engine looks at. Scores must be freshly computed.
type Input struct {
	Answers     domain.AnswerSet
	Mood        domain.ScoreResult
	Anx         domain.ScoreResult
	Ptsd        domain.ScoreResult
	Domains     map[string]domain.ModuleScoreResult
	Medications []domain.MedicationEntry
}

// Evidence is the shared, precomputed view rules evaluate against.
type Evidence struct {
	Input
	Quality    domain.QualityFlags
	MedContext domain.MedicationContext
}

// Finding is what a rule evaluator reports back.
type Finding struct {
	Match
	Band         domain.Band
	Completeness float64
}

// Rule is one hint detector.
type Rule struct {
	Code        string
	Label       string
	Support     []string
	Medications []MedicationPenalty
	Evaluator   func(ctx context.Context, ev *Evidence) (*Finding, error)
}

// Result is the engine output.
type Result struct {
	Hints             []domain.Hint
	Breakdowns        map[string]Breakdown
	RedFlags          []string
	MedicationNotes   []string
	MedicationContext domain.MedicationContext
	Quality           domain.QualityFlags
}

// Engine evaluates the rule table.
type Engine struct {
	logger  *logrus.Logger
	catalog *catalog.Catalog
	cfg     Config
	rules   map[string]*Rule
}

// NewEngine creates a new heuristics engine
func NewEngine(logger *logrus.Logger, c *catalog.Catalog, cfg Config) *Engine {
	engine := &Engine{
		logger:  logger,
		catalog: c,
		cfg:     cfg,
		rules:   make(map[string]*Rule),
	}

	engine.initializeRules()

	return engine
}

// Rules returns the rule codes in sorted order.
func (e *Engine) Rules() []string {
	codes := make([]string, 0, len(e.rules))
	for code := range e.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Evaluate runs quality checks, medication analysis, red flags and every rule.
// A failing rule is logged and skipped; it never aborts the evaluation.
func (e *Engine) Evaluate(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev := e.evidence(in)
	res := &Result{
		Hints:             []domain.Hint{},
		Breakdowns:        make(map[string]Breakdown),
		MedicationContext: ev.MedContext,
		Quality:           ev.Quality,
		RedFlags: RedFlags(RedFlagInput{
			Answers:       in.Answers,
			PsychosisBand: in.Domains["psy"].Band,
		}, e.cfg),
	}
	_, res.MedicationNotes = AnalyzeMedications(in.Medications)

	for _, code := range e.Rules() {
		rule := e.rules[code]
		hint, breakdown, err := e.evaluate(ctx, rule, ev)
		if err != nil {
			e.logger.WithError(err).WithField("rule", rule.Code).Warn("Failed to evaluate heuristic rule")
			continue
		}
		if hint == nil {
			continue
		}
		res.Hints = append(res.Hints, *hint)
		res.Breakdowns[rule.Code] = breakdown
	}

	sort.SliceStable(res.Hints, func(i, j int) bool {
		if res.Hints[i].Confidence != res.Hints[j].Confidence {
			return res.Hints[i].Confidence > res.Hints[j].Confidence
		}
		return res.Hints[i].Code < res.Hints[j].Code
	})

	e.logger.WithFields(logrus.Fields{
		"rules":     len(e.rules),
		"hints":     len(res.Hints),
		"red_flags": len(res.RedFlags),
	}).Debug("Completed heuristic evaluation")

	return res, nil
}

// EvaluateRule evaluates a single rule. A nil hint means the rule did not apply.
func (e *Engine) EvaluateRule(ctx context.Context, code string, in Input) (*domain.Hint, *Breakdown, error) {
	rule, exists := e.rules[code]
	if !exists {
		return nil, nil, fmt.Errorf("unknown heuristic rule: %s", code)
	}

	hint, breakdown, err := e.evaluate(ctx, rule, e.evidence(in))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate rule %s: %w", code, err)
	}
	if hint == nil {
		return nil, nil, nil
	}
	return hint, &breakdown, nil
}

func (e *Engine) evidence(in Input) *Evidence {
	if in.Answers == nil {
		in.Answers = domain.AnswerSet{}
	}
	medCtx, _ := AnalyzeMedications(in.Medications)
	return &Evidence{
		Input:      in,
		Quality:    AssessQuality(e.catalog, in.Answers),
		MedContext: medCtx,
	}
}

func (e *Engine) evaluate(ctx context.Context, rule *Rule, ev *Evidence) (*domain.Hint, Breakdown, error) {
	finding, err := rule.Evaluator(ctx, ev)
	if err != nil {
		return nil, Breakdown{}, err
	}
	if finding == nil || !finding.Matched {
		return nil, Breakdown{}, nil
	}

	support, supported := e.support(ev, rule.Support)
	penalties := e.penalties(ev, rule)

	breakdown := ComputeConfidence(Components{
		NormalizedBand: float64(finding.Band) / float64(domain.MaxBand),
		Support:        support,
		Completeness:   finding.Completeness,
	}, e.cfg.Weights, penalties...)

	rationale := append([]string(nil), finding.Evidence...)
	if len(supported) > 0 {
		rationale = append(rationale, fmt.Sprintf("corroborated by %v (support %.0f%%)", supported, support*100))
	}
	rationale = append(rationale, fmt.Sprintf("answered %.0f%% of the relevant items", finding.Completeness*100))

	reasons := make([]string, len(penalties))
	for i, p := range penalties {
		reasons[i] = p.Reason
	}

	return &domain.Hint{
		Code:       rule.Code,
		Label:      rule.Label,
		Confidence: breakdown.Percent(),
		Rationale:  rationale,
		Penalties:  reasons,
	}, breakdown, nil
}

// support averages the burden-oriented severity of corroborating domains that have data.
func (e *Engine) support(ev *Evidence, ids []string) (float64, []string) {
	var (
		sum  float64
		used []string
	)
	for _, id := range ids {
		var (
			v  float64
			ok bool
		)
		switch id {
		case "mood":
			v, ok = coreSeverity(ev.Mood)
		case "anx":
			v, ok = coreSeverity(ev.Anx)
		case "ptsd":
			v, ok = coreSeverity(ev.Ptsd)
		default:
			d, found := ev.Domains[id]
			if found && d.Scored() {
				v, ok = d.Severity(), true
			}
		}
		if ok {
			sum += v
			used = append(used, id)
		}
	}
	if len(used) == 0 {
		return 0, nil
	}
	return sum / float64(len(used)), used
}

func coreSeverity(r domain.ScoreResult) (float64, bool) {
	if !r.Scored() {
		return 0, false
	}
	return math.Min(1, float64(r.Band)/float64(domain.MaxBand)), true
}

// penalties lists every quality and medication flag relevant to the rule.
func (e *Engine) penalties(ev *Evidence, rule *Rule) []Penalty {
	var out []Penalty
	add := func(reason string) {
		out = append(out, Penalty{Reason: reason, Amount: e.cfg.PenaltyPerFlag})
	}

	if len(ev.Quality.StraightLining) > 0 {
		add(PenaltyStraightLining)
	}
	if ev.Quality.LowVariance {
		add(PenaltyLowVariance)
	}
	if ev.Quality.Consistency != nil && *ev.Quality.Consistency < LowConsistencyCeiling {
		add(PenaltyLowConsistency)
	}
	for _, m := range rule.Medications {
		if ok, reason := m.applies(ev.MedContext); ok {
			add(reason)
		}
	}
	return out
}
