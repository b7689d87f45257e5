package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/pricing/engine"
	"github.com/gyeh/cms-pricing/internal/trace"
)

// defaultRequestTimeout is the per-request deadline applied when a
// caller does not supply one.
const defaultRequestTimeout = 30 * time.Second

// PlanStore resolves a stored Plan by id.
type PlanStore interface {
	PlanByID(ctx context.Context, planID string) (*domain.Plan, error)
}

// BenefitStore resolves the per-valuation-year benefit parameters that
// seed the deductible thread.
type BenefitStore interface {
	BenefitParamsForYear(ctx context.Context, year int) (*domain.BenefitParams, error)
}

// Orchestrator executes plans end-to-end: resolve geography, dispatch
// each component to its engine, thread cost sharing, and persist the
// run.
type Orchestrator struct {
	resolver *geo.Resolver
	plans    PlanStore
	benefits BenefitStore
	engines  engine.Table
	traces   trace.Store
	log      *zap.Logger

	now      func() time.Time
	newRunID func() string
	timeout  time.Duration
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(resolver *geo.Resolver, plans PlanStore, benefits BenefitStore, engines engine.Table, traces trace.Store, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		plans:    plans,
		benefits: benefits,
		engines:  engines,
		traces:   traces,
		log:      log,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
		timeout:  defaultRequestTimeout,
	}
}

// PricePlan executes one plan request, persists the Run and its trace
// rows, and returns the response.
func (o *Orchestrator) PricePlan(ctx context.Context, endpoint string, req Request) (Response, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	runID := o.newRunID()
	startedAt := o.now()
	rec := trace.NewRecorder(runID, endpoint, startedAt)
	recordRequestInputs(rec, req)

	resp, outputs, err := o.price(ctx, runID, req)

	status := domain.RunStatusOK
	if err != nil {
		status = domain.RunStatusFailed
	} else if hasLineFailures(resp.LineItems) {
		status = domain.RunStatusPartial
	}

	rec.RecordTrace("run_summary", summaryPayload(resp, err), nil)
	for _, o2 := range outputs {
		rec.RecordOutput(o2)
	}

	requestJSON, _ := json.Marshal(req)
	responseJSON, _ := json.Marshal(resp)

	if finishErr := rec.Finish(ctx, o.traces, string(requestJSON), string(responseJSON), status, o.now()); finishErr != nil {
		o.log.Warn("failed to persist run trace", zap.String("run_id", runID), zap.Error(finishErr))
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, apperr.Wrap(apperr.CodeTimeout, "pricing call exceeded its deadline", err)
		}
		return Response{}, err
	}
	resp.RunID = runID
	return resp, nil
}

// Reprice implements trace.Repricer: it re-executes a previously
// recorded request without writing a new Run.
func (o *Orchestrator) Reprice(ctx context.Context, requestJSON string) (trace.ReplayResult, error) {
	var req Request
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		return trace.ReplayResult{}, apperr.Wrap(apperr.CodeInvalidInput, "stored request is not valid JSON", err)
	}

	resp, outputs, err := o.price(ctx, "replay", req)
	if err != nil {
		return trace.ReplayResult{}, err
	}

	responseJSON, _ := json.Marshal(resp)
	return trace.ReplayResult{
		ResponseJSON:   string(responseJSON),
		DatasetDigests: distinctDigests(outputs),
		Outputs:        outputs,
	}, nil
}

// price is the pure pricing routine shared by PricePlan and Reprice:
// it resolves geography, loads components, dispatches each to its
// engine, threads the deductible, and aggregates totals. It never
// touches the trace store.
func (o *Orchestrator) price(ctx context.Context, runID string, req Request) (Response, []domain.RunOutput, error) {
	year := req.Year
	geoRes, err := o.resolver.Resolve(ctx, geo.Params{
		Zip5:    req.Zip,
		Plus4:   req.Plus4,
		Year:    &year,
		Quarter: req.Quarter,
		Strict:  req.Strict,
	})
	if err != nil {
		return Response{}, nil, err
	}

	components, err := o.loadComponents(ctx, req)
	if err != nil {
		return Response{}, nil, err
	}
	sort.SliceStable(components, func(i, j int) bool { return components[i].Sequence < components[j].Sequence })

	benefit, err := o.benefits.BenefitParamsForYear(ctx, req.Year)
	if err != nil {
		return Response{}, nil, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "benefit parameters not found for valuation year", err)
	}

	dedA := benefit.PartADeductibleCents
	dedB := benefit.PartBDeductibleCents
	isRural := geoRes.RuralFlag == domain.RuralFlagRural || geoRes.RuralFlag == domain.RuralFlagBoth

	var lines []LineItem
	var outputs []domain.RunOutput

	for _, pc := range components {
		eng, ok := o.engines[pc.Setting]
		if !ok {
			li := LineItem{Sequence: pc.Sequence, Code: pc.Code, Setting: pc.Setting,
				FailureCode: string(apperr.CodeInternal), FailureMessage: "no engine registered for setting " + string(pc.Setting)}
			lines = append(lines, li)
			outputs = append(outputs, failureOutput(li))
			if req.Strict {
				return Response{}, nil, apperr.New(apperr.CodeInternal, li.FailureMessage)
			}
			continue
		}

		lineCtx := engine.Context{
			Code: pc.Code, Units: pc.Units, UtilizationWeight: pc.UtilizationWeight,
			Modifiers: pc.Modifiers, POS: pc.POS, NDC11: pc.NDC11, WastageUnits: pc.WastageUnits,
			ProfessionalComponent: pc.ProfessionalComponent, FacilityComponent: pc.FacilityComponent,
			Year: req.Year, Quarter: req.Quarter,
			LocalityID: geoRes.LocalityID, CBSACode: geoRes.CBSACode, IsRural: isRural,
			CoinsuranceRate: benefit.CoinsuranceRate,
			ValuationDate:   o.now(),
		}
		if pc.Setting == domain.SettingInpatient {
			lineCtx.DeductibleRemainingCents = dedA
		} else {
			lineCtx.DeductibleRemainingCents = dedB
		}

		res, err := eng.Price(ctx, lineCtx)
		if err != nil {
			li := lineItemForFailure(pc, err)
			lines = append(lines, li)
			outputs = append(outputs, failureOutput(li))
			if req.Strict {
				return Response{}, nil, err
			}
			continue
		}

		if pc.Setting == domain.SettingInpatient {
			dedA = res.DeductibleRemainingCents
		} else {
			dedB = res.DeductibleRemainingCents
		}

		li := lineItemForResult(pc, res, geoRes.DatasetDigest)
		lines = append(lines, li)
		outputs = append(outputs, successOutput(li))
	}

	resp := Response{
		RunID:                runID,
		Geography:            geoRes,
		LineItems:            lines,
		Totals:               aggregateTotals(lines),
		SequestrationApplied: req.ApplySequestration,
	}
	return resp, outputs, nil
}

func (o *Orchestrator) loadComponents(ctx context.Context, req Request) ([]domain.PlanComponent, error) {
	if req.PlanID != "" {
		plan, err := o.plans.PlanByID(ctx, req.PlanID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeRequiredReferenceMiss, "plan not found", err)
		}
		return plan.Components, nil
	}

	components := make([]domain.PlanComponent, 0, len(req.AdHocPlan))
	for _, c := range req.AdHocPlan {
		components = append(components, c.toComponent())
	}
	return components, nil
}

func lineItemForFailure(pc domain.PlanComponent, err error) LineItem {
	li := LineItem{Sequence: pc.Sequence, Code: pc.Code, Setting: pc.Setting}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		li.FailureCode = string(appErr.Code)
		li.FailureMessage = appErr.Message
	} else {
		li.FailureCode = string(apperr.CodeInternal)
		li.FailureMessage = err.Error()
	}
	return li
}

func lineItemForResult(pc domain.PlanComponent, res engine.Result, datasetDigest string) LineItem {
	return LineItem{
		Sequence:                    pc.Sequence,
		Code:                        pc.Code,
		Setting:                     pc.Setting,
		AllowedCents:                res.AllowedCents,
		BeneficiaryDeductibleCents:  res.BeneficiaryDeductibleCents,
		BeneficiaryCoinsuranceCents: res.BeneficiaryCoinsuranceCents,
		BeneficiaryTotalCents:       res.BeneficiaryTotalCents,
		ProgramPaymentCents:         res.ProgramPaymentCents,
		ProfessionalAllowedCents:    res.ProfessionalAllowedCents,
		FacilityAllowedCents:        res.FacilityAllowedCents,
		Packaged:                    res.Packaged,
		ReferencePriceCents:         res.ReferencePriceCents,
		Source:                      res.Source,
		DatasetDigest:               datasetDigest,
	}
}

func aggregateTotals(lines []LineItem) Totals {
	var t Totals
	for _, l := range lines {
		t.AllowedCents = t.AllowedCents.Add(l.AllowedCents)
		t.BeneficiaryTotalCents = t.BeneficiaryTotalCents.Add(l.BeneficiaryTotalCents)
		t.ProgramPaymentCents = t.ProgramPaymentCents.Add(l.ProgramPaymentCents)
	}
	return t
}

func successOutput(li LineItem) domain.RunOutput {
	return domain.RunOutput{
		Sequence: li.Sequence, Code: li.Code, Setting: li.Setting,
		AllowedCents: li.AllowedCents, ProgramPaymentCents: li.ProgramPaymentCents,
		BeneficiaryCostCents: li.BeneficiaryTotalCents, DatasetDigest: li.DatasetDigest,
	}
}

func failureOutput(li LineItem) domain.RunOutput {
	return domain.RunOutput{
		Sequence: li.Sequence, Code: li.Code, Setting: li.Setting,
		FailureCode: li.FailureCode, FailureMessage: li.FailureMessage,
	}
}

func hasLineFailures(lines []LineItem) bool {
	for _, l := range lines {
		if l.FailureCode != "" {
			return true
		}
	}
	return false
}

func distinctDigests(outputs []domain.RunOutput) []string {
	seen := make(map[string]struct{})
	var digests []string
	for _, o := range outputs {
		if o.DatasetDigest == "" {
			continue
		}
		if _, ok := seen[o.DatasetDigest]; !ok {
			seen[o.DatasetDigest] = struct{}{}
			digests = append(digests, o.DatasetDigest)
		}
	}
	return digests
}

// recordRequestInputs persists one RunInput row per top-level request
// parameter, so a run's trace carries the full request it was priced
// from, not just the fields that happen to identify it.
func recordRequestInputs(rec *trace.Recorder, req Request) {
	rec.RecordInput("zip", req.Zip)
	rec.RecordInput("plus4", req.Plus4)
	rec.RecordInput("plan_id", req.PlanID)
	if len(req.AdHocPlan) > 0 {
		if adHocJSON, err := json.Marshal(req.AdHocPlan); err == nil {
			rec.RecordInput("ad_hoc_plan", string(adHocJSON))
		}
	}
	if req.Year != 0 {
		rec.RecordInput("year", strconv.Itoa(req.Year))
	}
	if req.Quarter != nil {
		rec.RecordInput("quarter", strconv.Itoa(*req.Quarter))
	}
	rec.RecordInput("ccn", req.CCN)
	rec.RecordInput("payer", req.Payer)
	rec.RecordInput("plan", req.PlanName)
	rec.RecordInput("include_home_health", strconv.FormatBool(req.IncludeHomeHealth))
	rec.RecordInput("include_snf", strconv.FormatBool(req.IncludeSNF))
	rec.RecordInput("apply_sequestration", strconv.FormatBool(req.ApplySequestration))
	rec.RecordInput("sequestration_rate", strconv.FormatFloat(req.SequestrationRate, 'f', -1, 64))
	rec.RecordInput("strict", strconv.FormatBool(req.Strict))
	rec.RecordInput("format", req.FormatOrDefault())
}

func summaryPayload(resp Response, err error) string {
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(payload)
	}
	payload, _ := json.Marshal(map[string]int{"line_count": len(resp.LineItems)})
	return string(payload)
}
