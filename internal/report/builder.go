// Package report assembles the derived assessment report from a set of answers.
// Reports are computed on demand and never persisted.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/heuristics"
	"github.com/neuroscope-selfcheck/internal/scoring"
)

// Options tunes a Builder.
type Options struct {
	// Weights holds calibration families and per-module item weights. Nil disables both.
	Weights *scoring.WeightsTable
	// Bootstrap configures the core-scale intervals. Resamples < 0 disables them.
	Bootstrap scoring.BootstrapOptions
	// Now overrides the report timestamp source.
	Now func() time.Time
}

// BuildInput is one assessment snapshot.
type BuildInput struct {
	Answers     domain.AnswerSet
	Progress    int
	Medications []domain.MedicationEntry
}

// Builder turns answers into a Report. It holds no per-request state and is safe
// for concurrent use.
type Builder struct {
	logger     *logrus.Logger
	catalog    *catalog.Catalog
	calibrator *scoring.Calibrator
	weights    *scoring.WeightsTable
	engine     *heuristics.Engine
	bootstrap  scoring.BootstrapOptions
	now        func() time.Time
}

// NewBuilder creates a new report builder
func NewBuilder(logger *logrus.Logger, c *catalog.Catalog, engine *heuristics.Engine, opts Options) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{
		logger:     logger,
		catalog:    c,
		calibrator: scoring.NewCalibrator(opts.Weights),
		weights:    opts.Weights,
		engine:     engine,
		bootstrap:  opts.Bootstrap,
		now:        opts.Now,
	}
}

// Build scores the core scales and every secondary domain, then runs the heuristics.
//
// Calibration replaces the raw value of a core scale only; its band is always the one
// derived from the uncalibrated score. The trauma checklist is reported twice: Ptsd.Raw
// on the 0..16 display scale and PtsdTrueRaw on the 0..80 checklist scale.
func (b *Builder) Build(ctx context.Context, in BuildInput) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	answers := in.Answers
	if answers == nil {
		answers = domain.AnswerSet{}
	}

	r := &domain.Report{
		Progress:    clampPercent(in.Progress),
		Completion:  Completion(b.catalog, answers),
		Tasks:       domain.TaskMetricsFrom(answers),
		GeneratedAt: b.now().UTC(),
	}

	var err error
	if r.Mood, _, err = b.core(catalog.PHQ9, answers); err != nil {
		return nil, err
	}
	if r.Anx, _, err = b.core(catalog.GAD7, answers); err != nil {
		return nil, err
	}
	ptsd, pcl, err := b.core(catalog.PCL5, answers)
	if err != nil {
		return nil, err
	}
	r.PtsdTrueRaw = ptsd.Raw
	r.Ptsd = ptsd
	r.Ptsd.Raw = scoring.DisplayRaw(pcl, ptsd.Raw)

	for _, id := range domain.DomainIDs {
		r.SetDomain(id, b.scoreDomain(id, answers))
	}

	res, err := b.engine.Evaluate(ctx, heuristics.Input{
		Answers:     answers,
		Mood:        r.Mood,
		Anx:         r.Anx,
		Ptsd:        ptsd,
		Domains:     r.Domains(),
		Medications: in.Medications,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate heuristics: %w", err)
	}
	r.RedFlags = res.RedFlags
	r.Hints = res.Hints
	r.MedicationNotes = res.MedicationNotes
	if r.MedicationNotes == nil {
		r.MedicationNotes = []string{}
	}
	r.MedicationContext = res.MedicationContext
	r.Quality = res.Quality

	b.logger.WithFields(logrus.Fields{
		"completion": r.Completion,
		"hints":      len(r.Hints),
		"red_flags":  len(r.RedFlags),
	}).Debug("Built report")

	return r, nil
}

// core scores and calibrates one validated scale. The returned definition lets the
// caller rescale the raw value for display.
func (b *Builder) core(id string, answers domain.AnswerSet) (domain.ScoreResult, catalog.MetricDefinition, error) {
	def, ok := b.catalog.Metric(id)
	if !ok {
		return domain.ScoreResult{}, def, fmt.Errorf("metric %s: %w", id, domain.ErrNotFound)
	}

	res := scoring.ScoreMetric(def, answers)
	res.Raw = b.calibrator.CalibratedRaw(res.Raw, def.Family, answers)
	if b.bootstrap.Resamples >= 0 {
		// Interval stays on the true scale of the checklist.
		res.Interval = scoring.BootstrapInterval(def, answers, b.bootstrap)
	}
	return res, def, nil
}

// scoreDomain pools every module contributing items to a logical domain. Items carry
// their own domain tag, so a domain can draw on several modules.
func (b *Builder) scoreDomain(id string, answers domain.AnswerSet) domain.ModuleScoreResult {
	modules := b.catalog.ModulesWithDomain(id)

	uiMax := 0
	parts := make([]domain.ModuleScoreResult, 0, len(modules))
	for _, m := range modules {
		if m.ID == id {
			uiMax = m.UIMax
		}
		parts = append(parts, scoring.ScoreModule(m, answers, scoring.ModuleOptions{
			Domain:  id,
			Weights: b.weights.ModuleWeights(m.ID),
		}))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return scoring.MergeModuleScores(uiMax, parts...)
}

// Completion returns the rounded percentage of answerable items that carry a numeric
// answer, or 0 when the catalog has nothing answerable.
func Completion(c *catalog.Catalog, answers domain.AnswerSet) int {
	total, answered := 0, 0
	for _, m := range c.ScaleModules() {
		keys := m.ItemKeys()
		total += len(keys)
		answered += answers.AnsweredCount(keys)
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(answered) / float64(total) * 100))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
