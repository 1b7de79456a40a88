package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Workers bounds how many employees are calculated concurrently.
	Workers     int
	Multipliers Multipliers
}

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	overtime     attendance.OvertimeService
	brackets     statutory.Registry
	hub          *sse.Hub
	workers      int
	multipliers  Multipliers
	progress     *progressTracker
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	overtime attendance.OvertimeService,
	brackets statutory.Registry,
	hub *sse.Hub,
	opts Options,
) payroll.PayrollService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		overtime:     overtime,
		brackets:     brackets,
		hub:          hub,
		workers:      opts.Workers,
		multipliers:  opts.Multipliers,
		progress:     newProgressTracker(),
	}
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) CreateRun(ctx context.Context, companyID, actorID string, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.RunResponse{}, fmt.Errorf("failed to generate run id: %w", err)
	}

	created, err := s.payrollRepo.CreateRun(ctx, payroll.Run{
		ID:          id.String(),
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		PeriodStart: req.Start,
		PeriodEnd:   req.End,
		PayDate:     req.Pay,
		Status:      payroll.RunStatusDraft,
		CreatedBy:   actorID,
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.audit(ctx, companyID, actorID, payroll.AuditRunCreated, created.ID, map[string]any{
		"period_start": created.PeriodStart.Format("2006-01-02"),
		"period_end":   created.PeriodEnd.Format("2006-01-02"),
	})
	slog.Info("Payroll run created", "run_id", created.ID, "company_id", companyID)

	return mapToRunResponse(created), nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, companyID, runID string) (payroll.RunDetailResponse, error) {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunDetailResponse{}, err
	}

	items, err := s.payrollRepo.ListLineItems(ctx, companyID, runID)
	if err != nil {
		return payroll.RunDetailResponse{}, err
	}
	runErrs, err := s.payrollRepo.ListRunErrors(ctx, companyID, runID)
	if err != nil {
		return payroll.RunDetailResponse{}, err
	}

	return payroll.RunDetailResponse{
		Run:       mapToRunResponse(run),
		LineItems: mapToLineItemResponses(items),
		Errors:    mapToRunErrorResponses(runErrs),
	}, nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, companyID string, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListRunResponse{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	runs, totalCount, err := s.payrollRepo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return payroll.ListRunResponse{}, err
	}

	data := make([]payroll.RunResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, mapToRunResponse(r))
	}

	return payroll.ListRunResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrollServiceImpl) DeleteRun(ctx context.Context, companyID, runID, actorID string) error {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return err
	}
	if _, err := payroll.Transition(run.Status, payroll.ActionDelete); err != nil {
		return err
	}

	if err := s.payrollRepo.DeleteRun(ctx, companyID, runID); err != nil {
		if errors.Is(err, payroll.ErrRunStatusConflict) {
			return s.conflictError(ctx, run, payroll.ActionDelete, err)
		}
		return err
	}

	s.audit(ctx, companyID, actorID, payroll.AuditRunDeleted, runID, nil)
	slog.Info("Payroll run deleted", "run_id", runID, "company_id", companyID)
	return nil
}

// ========== LIFECYCLE ==========

func (s *PayrollServiceImpl) CalculateRun(ctx context.Context, companyID, runID, actorID string) (payroll.RunSummaryResponse, error) {
	return s.calculate(ctx, companyID, runID, actorID, payroll.ActionCalculate)
}

func (s *PayrollServiceImpl) RecalculateRun(ctx context.Context, companyID, runID, actorID string) (payroll.RunSummaryResponse, error) {
	return s.calculate(ctx, companyID, runID, actorID, payroll.ActionRecalculate)
}

func (s *PayrollServiceImpl) ApproveRun(ctx context.Context, companyID, runID, approverID string) (payroll.RunSummaryResponse, error) {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	approved, err := s.transition(ctx, run, payroll.ActionApprove, approverID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	runErrs, err := s.payrollRepo.ListRunErrors(ctx, companyID, runID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	s.audit(ctx, companyID, approverID, payroll.AuditRunApproved, runID, map[string]any{
		"generation":  approved.Generation,
		"incomplete":  approved.Incomplete(),
		"error_count": approved.ErrorCount,
	})
	if approved.Incomplete() {
		slog.Warn("Payroll run approved with skipped employees", "run_id", runID, "error_count", approved.ErrorCount)
	} else {
		slog.Info("Payroll run approved", "run_id", runID, "company_id", companyID)
	}

	return mapToRunSummary(approved, runErrs), nil
}

func (s *PayrollServiceImpl) MarkRunPaid(ctx context.Context, companyID, runID, actorID string) (payroll.RunResponse, error) {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	paid, err := s.transition(ctx, run, payroll.ActionPay, actorID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.audit(ctx, companyID, actorID, payroll.AuditRunPaid, runID, nil)
	slog.Info("Payroll run marked paid", "run_id", runID, "company_id", companyID)

	return mapToRunResponse(paid), nil
}

// calculate claims the run, computes every employee and commits the result in one step.
func (s *PayrollServiceImpl) calculate(ctx context.Context, companyID, runID, actorID string, action payroll.RunAction) (payroll.RunSummaryResponse, error) {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	claimed, err := s.transition(ctx, run, action, actorID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	// Once claimed the pass runs to the end; a dropped client must not leave it calculating.
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	slog.Info("Payroll run calculation started", "run_id", runID, "company_id", companyID, "action", action)

	result, err := s.computeRun(ctx, claimed)
	if err != nil {
		return payroll.RunSummaryResponse{}, s.failRun(ctx, claimed, actorID, err)
	}

	committed, err := s.complete(ctx, claimed, result)
	if err != nil {
		return payroll.RunSummaryResponse{}, s.failRun(ctx, claimed, actorID, fmt.Errorf("failed to commit calculation: %w", err))
	}
	s.progress.finish(runID)

	summary := mapToRunSummary(committed, result.Errors)
	s.publish(runID, payroll.EventCompleted, summary)
	s.audit(ctx, companyID, actorID, payroll.AuditRunCalculated, runID, map[string]any{
		"action":          string(action),
		"generation":      committed.Generation,
		"bracket_version": result.BracketVersion,
		"employee_count":  len(result.LineItems),
		"error_count":     len(result.Errors),
	})
	slog.Info("Payroll run calculated",
		"run_id", runID,
		"company_id", companyID,
		"calculated", len(result.LineItems),
		"skipped", len(result.Errors),
		"duration", time.Since(started),
	)

	return summary, nil
}

// computeRun builds every line item for the run's roster. Per-employee problems
// become run errors; anything else aborts the whole pass.
func (s *PayrollServiceImpl) computeRun(ctx context.Context, run payroll.Run) (payroll.CalculationResult, error) {
	set, err := s.brackets.Lookup(run.PeriodEnd)
	if err != nil {
		return payroll.CalculationResult{}, err
	}

	employees, err := s.employeeRepo.ListActiveEmployees(ctx, run.CompanyID, run.PeriodEnd)
	if err != nil {
		return payroll.CalculationResult{}, fmt.Errorf("%w: %w", employee.ErrRosterUnavailable, err)
	}

	progress := s.progress.start(run.ID, len(employees))
	s.publishProgress(run.ID, 0, len(employees))

	constants := PeriodConstants{Brackets: set, Multipliers: s.multipliers}
	items := make([]*payroll.LineItem, len(employees))
	runErrs := make([]*payroll.RunError, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			item, runErr, err := s.computeEmployee(gctx, run, emp, constants)
			if err != nil {
				return err
			}
			items[i], runErrs[i] = item, runErr

			if n := progress.advance(); n%progress.reportEvery() == 0 || n == len(employees) {
				s.publishProgress(run.ID, n, len(employees))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.CalculationResult{}, err
	}

	lineItems := make([]payroll.LineItem, 0, len(employees))
	errs := make([]payroll.RunError, 0)
	for i := range employees {
		if items[i] != nil {
			lineItems = append(lineItems, *items[i])
		}
		if runErrs[i] != nil {
			errs = append(errs, *runErrs[i])
		}
	}

	return payroll.NewCalculationResult(set.Version, lineItems, errs), nil
}

func (s *PayrollServiceImpl) computeEmployee(ctx context.Context, run payroll.Run, emp employee.Employee, constants PeriodConstants) (*payroll.LineItem, *payroll.RunError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	breakdown, err := s.overtime.GetOvertimeBreakdown(ctx, run.CompanyID, emp.ID, run.PeriodStart, run.PeriodEnd)
	if err != nil {
		if runErr, ok := newRunError(run.ID, emp, err); ok {
			return nil, &runErr, nil
		}
		return nil, nil, fmt.Errorf("failed to get overtime for employee %s: %w", emp.ID, err)
	}

	item, err := BuildLineItem(run.ID, emp, breakdown, constants)
	if err != nil {
		if runErr, ok := newRunError(run.ID, emp, err); ok {
			return nil, &runErr, nil
		}
		return nil, nil, err
	}
	return &item, nil, nil
}

// failRun moves a calculating run to failed and returns the error to report to the caller.
func (s *PayrollServiceImpl) failRun(ctx context.Context, run payroll.Run, actorID string, cause error) error {
	s.progress.finish(run.ID)

	reason := cause.Error()
	if to, err := payroll.Transition(run.Status, payroll.ActionFail); err != nil {
		slog.Error("Payroll run cannot be failed", "run_id", run.ID, "status", run.Status, "error", err)
	} else if _, err := s.payrollRepo.FailCalculation(ctx, run.CompanyID, run.ID, run.Status, to, reason); err != nil {
		slog.Error("Failed to mark payroll run as failed", "run_id", run.ID, "error", err)
	}

	s.publish(run.ID, payroll.EventFailed, map[string]string{"run_id": run.ID, "reason": reason})
	s.audit(ctx, run.CompanyID, actorID, payroll.AuditRunFailed, run.ID, map[string]any{"reason": reason})
	slog.Error("Payroll run calculation failed", "run_id", run.ID, "company_id", run.CompanyID, "error", cause)

	return fmt.Errorf("%w: %w", payroll.ErrCalculationFailed, cause)
}

// complete commits result and moves the claimed run out of calculating.
func (s *PayrollServiceImpl) complete(ctx context.Context, run payroll.Run, result payroll.CalculationResult) (payroll.Run, error) {
	to, err := payroll.Transition(run.Status, payroll.ActionComplete)
	if err != nil {
		return payroll.Run{}, err
	}
	return s.payrollRepo.CommitCalculation(ctx, run.CompanyID, run.ID, run.Status, to, result)
}

// transition applies action to run through a check-and-set on its current status.
func (s *PayrollServiceImpl) transition(ctx context.Context, run payroll.Run, action payroll.RunAction, actorID string) (payroll.Run, error) {
	to, err := payroll.Transition(run.Status, action)
	if err != nil {
		return payroll.Run{}, err
	}

	updated, err := s.payrollRepo.UpdateStatus(ctx, run.CompanyID, run.ID, run.Status, to, actorID)
	if err != nil {
		if errors.Is(err, payroll.ErrRunStatusConflict) {
			return payroll.Run{}, s.conflictError(ctx, run, action, err)
		}
		return payroll.Run{}, err
	}
	return updated, nil
}

// conflictError explains a lost check-and-set in terms of the state that won.
func (s *PayrollServiceImpl) conflictError(ctx context.Context, run payroll.Run, action payroll.RunAction, conflict error) error {
	current, err := s.payrollRepo.GetRun(ctx, run.CompanyID, run.ID)
	if err != nil {
		return err
	}
	if _, err := payroll.Transition(current.Status, action); err != nil {
		return err
	}
	return conflict
}

// ========== PROGRESS ==========

func (s *PayrollServiceImpl) GetRunProgress(ctx context.Context, companyID, runID string) (payroll.RunProgressResponse, error) {
	run, err := s.payrollRepo.GetRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunProgressResponse{}, err
	}

	resp := payroll.RunProgressResponse{RunID: run.ID, Status: string(run.Status)}
	switch {
	case run.Status == payroll.RunStatusCalculating:
		// Another instance may own the pass; then nothing is known here yet.
		if processed, total, ok := s.progress.get(run.ID); ok {
			resp.Processed, resp.Total = processed, total
			resp.Percent = percent(processed, total)
		}
	case run.Status.HasTotals():
		resp.Total = run.EmployeeCount + run.ErrorCount
		resp.Processed = resp.Total
		resp.Percent = 100
	}
	return resp, nil
}

func (s *PayrollServiceImpl) SubscribeProgress(ctx context.Context, companyID, runID string) (<-chan sse.Event, func(), error) {
	if _, err := s.payrollRepo.GetRun(ctx, companyID, runID); err != nil {
		return nil, nil, err
	}
	ch, cleanup := s.hub.Subscribe(runID)
	return ch, cleanup, nil
}

func (s *PayrollServiceImpl) publishProgress(runID string, processed, total int) {
	s.publish(runID, payroll.EventProgress, payroll.RunProgressResponse{
		RunID:     runID,
		Status:    string(payroll.RunStatusCalculating),
		Processed: processed,
		Total:     total,
		Percent:   percent(processed, total),
	})
}

func (s *PayrollServiceImpl) publish(runID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(runID, sse.Event{Event: event, Data: data})
}

// ========== AUDIT ==========

// audit records a lifecycle event. A failed write is logged, never returned.
func (s *PayrollServiceImpl) audit(ctx context.Context, companyID, actorID string, action payroll.AuditAction, runID string, details map[string]any) {
	var actor *string
	if actorID != "" {
		actor = &actorID
	}

	err := s.payrollRepo.RecordAudit(ctx, payroll.AuditEvent{
		CompanyID: companyID,
		ActorID:   actor,
		Action:    action,
		RunID:     runID,
		Details:   details,
	})
	if err != nil {
		slog.Warn("Failed to record payroll audit event", "action", action, "run_id", runID, "error", err)
	}
}

// ========== HELPERS ==========

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.Format(time.RFC3339)
	return &str
}

func mapToRunResponse(r payroll.Run) payroll.RunResponse {
	return payroll.RunResponse{
		ID:              r.ID,
		CompanyID:       r.CompanyID,
		Name:            r.Name,
		PeriodStart:     r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       r.PeriodEnd.Format("2006-01-02"),
		PayDate:         r.PayDate.Format("2006-01-02"),
		Status:          string(r.Status),
		Incomplete:      r.Incomplete(),
		EmployeeCount:   r.EmployeeCount,
		ErrorCount:      r.ErrorCount,
		TotalGross:      r.TotalGross,
		TotalDeductions: r.TotalDeductions,
		TotalNet:        r.TotalNet,
		BracketVersion:  r.BracketVersion,
		FailureReason:   r.FailureReason,
		CreatedBy:       r.CreatedBy,
		CalculatedAt:    formatTime(r.CalculatedAt),
		ApprovedAt:      formatTime(r.ApprovedAt),
		ApprovedBy:      r.ApprovedBy,
		PaidAt:          formatTime(r.PaidAt),
		PaidBy:          r.PaidBy,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

func mapToLineItemResponses(items []payroll.LineItem) []payroll.LineItemResponse {
	result := make([]payroll.LineItemResponse, 0, len(items))
	for _, li := range items {
		result = append(result, payroll.LineItemResponse{
			ID:                   li.ID,
			EmployeeID:           li.EmployeeID,
			EmployeeName:         li.EmployeeName,
			EmployeeCode:         li.EmployeeCode,
			EmploymentType:       li.EmploymentType,
			BaseSalary:           li.BaseSalary,
			OvertimePay:          li.OvertimePay,
			GrossSalary:          li.GrossSalary,
			NonTaxableAllowances: li.NonTaxableAllowances,
			TaxableGross:         li.TaxableGross,
			ContributionA:        li.ContributionA,
			ContributionB:        li.ContributionB,
			IncomeTax:            li.IncomeTax,
			TotalDeductions:      li.TotalDeductions,
			NetSalary:            li.NetSalary,
			Overtime:             attendance.NewOvertimeBreakdownResponse(li.Overtime),
			BracketVersion:       li.BracketVersion,
		})
	}
	return result
}

func mapToRunErrorResponses(errs []payroll.RunError) []payroll.RunErrorResponse {
	result := make([]payroll.RunErrorResponse, 0, len(errs))
	for _, e := range errs {
		result = append(result, payroll.RunErrorResponse{
			EmployeeID:   e.EmployeeID,
			EmployeeName: e.EmployeeName,
			EmployeeCode: e.EmployeeCode,
			Code:         string(e.Code),
			Message:      e.Message,
		})
	}
	return result
}

func mapToRunSummary(r payroll.Run, errs []payroll.RunError) payroll.RunSummaryResponse {
	return payroll.RunSummaryResponse{
		Run:        mapToRunResponse(r),
		RosterSize: r.EmployeeCount + r.ErrorCount,
		Calculated: r.EmployeeCount,
		Skipped:    r.ErrorCount,
		Errors:     mapToRunErrorResponses(errs),
	}
}
