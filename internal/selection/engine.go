package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/common/metrics"
	"actuator-workers/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CatalogStore returns published candidates ordered by body size ascending.
type CatalogStore interface {
	FindCandidates(ctx context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error)
}

// OverrideStore returns manual overrides mounting on bodySize, cheapest first.
type OverrideStore interface {
	FindCompatible(ctx context.Context, bodySize string) ([]models.ManualOverrideRecord, error)
}

// Options configures an Engine.
type Options struct {
	DefaultSafetyFactor  float64
	TemperatureSurcharge float64
	BatchConcurrency     int
}

func (o Options) withDefaults() Options {
	if o.DefaultSafetyFactor <= 0 {
		o.DefaultSafetyFactor = DefaultSafetyFactor
	}
	if o.TemperatureSurcharge <= 0 {
		o.TemperatureSurcharge = DefaultTemperatureSurcharge
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 4
	}
	return o
}

// Engine is the selection entry point. It is the only part of the package
// that talks to collaborators.
type Engine struct {
	catalog   CatalogStore
	overrides OverrideStore
	opts      Options
	logger    logger.Logger
	newID     func() string
}

func NewEngine(catalog CatalogStore, overrides OverrideStore, opts Options, log logger.Logger) *Engine {
	return &Engine{
		catalog:   catalog,
		overrides: overrides,
		opts:      opts.withDefaults(),
		logger:    log.WithFields(map[string]interface{}{"component": "selection-engine"}),
		newID:     uuid.NewString,
	}
}

// Evaluation is the output of the pure selection core.
type Evaluation struct {
	Results    []models.SelectionResultItem
	BestChoice *models.SelectionResultItem
	Warnings   []models.DataIntegrityWarning
	Excluded   map[string]int // reason -> count
}

// Evaluate matches, prices and ranks candidates. It performs no I/O.
func Evaluate(req *models.SelectionRequest, candidates []models.ActuatorRecord, overrides []models.ManualOverrideRecord, opts PricingOptions) Evaluation {
	ordered := append([]models.ActuatorRecord(nil), candidates...)
	SortByBodySize(ordered)

	ev := Evaluation{
		Results:  make([]models.SelectionResultItem, 0, len(ordered)),
		Excluded: make(map[string]int),
	}

	for i := range ordered {
		rec := &ordered[i]

		match, outcome, reason := matchTorque(req, rec)
		switch outcome {
		case matchInsufficient:
			ev.Excluded[metrics.ReasonInsufficientTorque]++
			continue
		case matchDataMissing:
			ev.Warnings = append(ev.Warnings, models.DataIntegrityWarning{ActuatorID: rec.ID, Reason: reason})
			ev.Excluded[metrics.ReasonDataIntegrity]++
			continue
		}

		price, err := PriceCandidate(rec, req, overrides, opts)
		if err != nil {
			why := err.Error()
			if stdErr, ok := errors.AsStandard(err); ok {
				why = stdErr.Details
			}
			ev.Warnings = append(ev.Warnings, models.DataIntegrityWarning{ActuatorID: rec.ID, Reason: why})
			ev.Excluded[metrics.ReasonDataIntegrity]++
			continue
		}

		if !WithinBudget(price.TotalPrice, req.MaxBudget) {
			ev.Excluded[metrics.ReasonOverBudget]++
			continue
		}

		margin := TorqueMargin(match.actual, req.RequiredTorque)
		ev.Results = append(ev.Results, models.SelectionResultItem{
			ActuatorID:       rec.ID,
			ModelBase:        rec.ModelBase,
			BodySize:         rec.BodySize,
			ActionType:       rec.ActionType,
			Variant:          match.variant,
			FailSafeTag:      match.failSafeTag,
			FinalModelName:   FinalModelName(match.fragment, req.TemperatureCode),
			ActualTorque:     match.actual,
			RequiredTorque:   req.RequiredTorque,
			TorqueMargin:     RoundMargin(margin),
			Recommendation:   RecommendationTier(margin),
			BasePrice:        price.BasePrice,
			PriceAdjustment:  price.PriceAdjustment,
			UnitPrice:        price.UnitPrice,
			ManualOverride:   price.ManualOverride,
			TotalPrice:       price.TotalPrice,
			TemperatureUsage: usageEcho(req),
		})
	}

	ev.BestChoice = Rank(ev.Results)
	return ev
}

func usageEcho(req *models.SelectionRequest) models.TemperatureUsage {
	if req.Mechanism == models.MechanismRackPinion {
		return req.TemperatureUsage
	}
	return ""
}

// CalculateSelection runs one request end to end. With NO_MATCHING_ACTUATOR the
// returned result is still populated with the request, warnings and candidate count.
func (e *Engine) CalculateSelection(ctx context.Context, raw *models.RawSelectionRequest) (*models.SelectionResult, error) {
	start := time.Now()

	req, err := Normalize(raw, NormalizeOptions{DefaultSafetyFactor: e.opts.DefaultSafetyFactor})
	if err != nil {
		metrics.SelectionRequests.WithLabelValues(mechanismLabel(raw), "invalid").Inc()
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = e.newID()
	}

	mechanism := string(req.Mechanism)
	log := e.logger.WithFields(map[string]interface{}{
		"requestId": req.RequestID,
		"mechanism": mechanism,
	})
	defer func() {
		metrics.SelectionDuration.WithLabelValues(mechanism).Observe(time.Since(start).Seconds())
	}()

	query := BuildFilter(req)
	candidates, err := e.catalog.FindCandidates(ctx, query)
	if err != nil {
		metrics.SelectionRequests.WithLabelValues(mechanism, "error").Inc()
		log.Error("Catalog lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewInternalError(fmt.Errorf("find candidates: %w", err))
	}

	result := &models.SelectionResult{
		RequestID:      req.RequestID,
		Request:        *req,
		Results:        []models.SelectionResultItem{},
		CandidateCount: len(candidates),
	}

	if len(candidates) == 0 {
		metrics.SelectionRequests.WithLabelValues(mechanism, "not_found").Inc()
		log.Info("No catalog candidates", map[string]interface{}{"query": query})
		return result, errors.NewNoMatchingActuatorError("no published actuator matches the filter", NoMatchSuggestions)
	}

	overrides, err := e.loadOverrides(ctx, req, candidates)
	if err != nil {
		metrics.SelectionRequests.WithLabelValues(mechanism, "error").Inc()
		log.Error("Manual override lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewInternalError(fmt.Errorf("find manual overrides: %w", err))
	}

	for _, rec := range candidates {
		if rec.Pricing == models.PricingTiered {
			if issues := ValidatePriceTiers(rec.PriceTiers); len(issues) > 0 {
				log.Warn("Price tiers out of order", map[string]interface{}{"actuatorId": rec.ID, "issues": issues})
			}
		}
	}

	ev := Evaluate(req, candidates, overrides, PricingOptions{TemperatureSurcharge: e.opts.TemperatureSurcharge})

	metrics.SelectionCandidatesEvaluated.WithLabelValues(mechanism).Add(float64(len(candidates)))
	for reason, n := range ev.Excluded {
		metrics.SelectionCandidatesExcluded.WithLabelValues(mechanism, reason).Add(float64(n))
	}
	for _, w := range ev.Warnings {
		log.Warn("Candidate excluded by data integrity check", map[string]interface{}{
			"actuatorId": w.ActuatorID,
			"reason":     w.Reason,
		})
	}

	result.Warnings = ev.Warnings
	result.BestChoice = ev.BestChoice
	result.Results = ev.Results

	if len(result.Results) == 0 {
		metrics.SelectionRequests.WithLabelValues(mechanism, "not_found").Inc()
		log.Info("No admissible actuator", map[string]interface{}{
			"candidates": len(candidates),
			"excluded":   ev.Excluded,
		})
		return result, errors.NewNoMatchingActuatorError(
			fmt.Sprintf("none of %d candidates satisfies the requirement", len(candidates)),
			NoMatchSuggestions,
		)
	}

	metrics.SelectionRequests.WithLabelValues(mechanism, "ok").Inc()
	log.Info("Selection completed", map[string]interface{}{
		"candidates": len(candidates),
		"results":    len(result.Results),
		"bestChoice": result.BestChoice.FinalModelName,
		"duration":   time.Since(start).String(),
	})
	return result, nil
}

// CalculateSelectionJSON type-checks and decodes payload before CalculateSelection.
func (e *Engine) CalculateSelectionJSON(ctx context.Context, payload []byte) (*models.SelectionResult, error) {
	raw, err := DecodeRequest(payload)
	if err != nil {
		metrics.SelectionRequests.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}
	return e.CalculateSelection(ctx, raw)
}

// BatchSelection evaluates payloads concurrently. Output order follows input
// order and a failing item never aborts the batch.
func (e *Engine) BatchSelection(ctx context.Context, payloads []json.RawMessage) *models.BatchResult {
	type slot struct {
		result *models.SelectionResult
		err    error
	}
	slots := make([]slot, len(payloads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.BatchConcurrency)
	for i := range payloads {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				slots[i].err = errors.NewInternalError(err)
				return nil
			}
			slots[i].result, slots[i].err = e.CalculateSelectionJSON(gctx, payloads[i])
			return nil
		})
	}
	_ = g.Wait()

	out := &models.BatchResult{
		Succeeded: []models.BatchSuccess{},
		Failed:    []models.BatchFailure{},
		Total:     len(payloads),
	}
	for i, s := range slots {
		if s.err == nil {
			out.Succeeded = append(out.Succeeded, models.BatchSuccess{
				Index:     i,
				RequestID: s.result.RequestID,
				Result:    s.result,
			})
			continue
		}

		stdErr := errors.Normalize(s.err)
		failure := models.BatchFailure{
			Index:       i,
			Code:        string(stdErr.Code),
			Message:     stdErr.Message,
			Details:     stdErr.Details,
			Suggestions: stdErr.Suggestions(),
		}
		if s.result != nil {
			failure.RequestID = s.result.RequestID
		}
		out.Failed = append(out.Failed, failure)
	}

	e.logger.Info("Batch selection completed", map[string]interface{}{
		"total":     out.Total,
		"succeeded": len(out.Succeeded),
		"failed":    len(out.Failed),
	})
	return out
}

// loadOverrides fetches overrides for every distinct candidate body size.
func (e *Engine) loadOverrides(ctx context.Context, req *models.SelectionRequest, candidates []models.ActuatorRecord) ([]models.ManualOverrideRecord, error) {
	if !req.NeedsManualOverride || e.overrides == nil {
		return nil, nil
	}

	sizes := make(map[string]struct{})
	for _, c := range candidates {
		sizes[c.BodySize] = struct{}{}
	}
	ordered := make([]string, 0, len(sizes))
	for s := range sizes {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool { return NaturalLess(ordered[i], ordered[j]) })

	seen := make(map[string]struct{})
	var out []models.ManualOverrideRecord
	for _, size := range ordered {
		found, err := e.overrides.FindCompatible(ctx, size)
		if err != nil {
			return nil, err
		}
		for _, mo := range found {
			if _, dup := seen[mo.ID]; dup {
				continue
			}
			seen[mo.ID] = struct{}{}
			out = append(out, mo)
		}
	}
	return out, nil
}

func mechanismLabel(raw *models.RawSelectionRequest) string {
	if raw != nil {
		if m, ok := models.ParseMechanism(raw.Mechanism); ok {
			return string(m)
		}
	}
	return "unknown"
}
