package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const runColumns = `
	id, company_id, name, period_start, period_end, pay_date, status,
	employee_count, error_count, total_gross, total_deductions, total_net, bracket_version, generation,
	failure_reason, created_by, calculation_started_at, calculated_at,
	approved_at, approved_by, paid_at, paid_by, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var r payroll.Run
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.Name, &r.PeriodStart, &r.PeriodEnd, &r.PayDate, &r.Status,
		&r.EmployeeCount, &r.ErrorCount, &r.TotalGross, &r.TotalDeductions, &r.TotalNet, &r.BracketVersion, &r.Generation,
		&r.FailureReason, &r.CreatedBy, &r.CalculationStartedAt, &r.CalculatedAt,
		&r.ApprovedAt, &r.ApprovedBy, &r.PaidAt, &r.PaidBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// ========== RUNS ==========

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (id, company_id, name, period_start, period_end, pay_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		run.ID, run.CompanyID, run.Name, run.PeriodStart, run.PeriodEnd, run.PayDate, run.Status, run.CreatedBy,
	))
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (r *payrollRepository) GetRun(ctx context.Context, companyID, id string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND company_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

func (r *payrollRepository) ListRuns(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payroll_runs
		WHERE company_id = $1
	`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND EXTRACT(YEAR FROM period_start) = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}

	// Count query
	var totalCount int64
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	// Sort
	sortColumn := "period_start"
	if filter.SortBy != "" {
		allowedColumns := map[string]string{
			"period_start": "period_start",
			"created_at":   "created_at",
			"name":         "name",
			"status":       "status",
			"total_net":    "total_net",
		}
		if col, ok := allowedColumns[filter.SortBy]; ok {
			sortColumn = col
		}
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, runColumns, baseQuery, sortColumn, sortOrder, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll runs: %w", err)
	}

	return runs, totalCount, nil
}

func (r *payrollRepository) DeleteRun(ctx context.Context, companyID, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payroll_runs WHERE id = $1 AND company_id = $2 AND status = 'draft'`
	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, q, companyID, id)
	}
	return nil
}

// ========== STATUS ==========

func (r *payrollRepository) UpdateStatus(ctx context.Context, companyID, id string, from, to payroll.RunStatus, actorID string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	// Entering calculating clears the previous totals; line items stay until the next commit.
	query := `
		UPDATE payroll_runs SET
			status = $4::varchar,
			calculation_started_at = CASE WHEN $4::varchar = 'calculating' THEN now() ELSE calculation_started_at END,
			failure_reason = CASE WHEN $4::varchar = 'calculating' THEN NULL ELSE failure_reason END,
			total_gross = CASE WHEN $4::varchar = 'calculating' THEN NULL ELSE total_gross END,
			total_deductions = CASE WHEN $4::varchar = 'calculating' THEN NULL ELSE total_deductions END,
			total_net = CASE WHEN $4::varchar = 'calculating' THEN NULL ELSE total_net END,
			approved_at = CASE WHEN $4::varchar = 'approved' THEN now() ELSE approved_at END,
			approved_by = CASE WHEN $4::varchar = 'approved' THEN $5::uuid ELSE approved_by END,
			paid_at = CASE WHEN $4::varchar = 'paid' THEN now() ELSE paid_at END,
			paid_by = CASE WHEN $4::varchar = 'paid' THEN $5::uuid ELSE paid_by END,
			updated_at = now()
		WHERE id = $1 AND company_id = $2 AND status = $3
		RETURNING ` + runColumns

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID, from, to, nullIfEmpty(actorID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, r.missingOrConflict(ctx, q, companyID, id)
		}
		return payroll.Run{}, fmt.Errorf("failed to update payroll run status: %w", err)
	}
	return run, nil
}

// ========== CALCULATION ==========

func (r *payrollRepository) CommitCalculation(ctx context.Context, companyID, id string, from, to payroll.RunStatus, result payroll.CalculationResult) (payroll.Run, error) {
	var committed payroll.Run

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			UPDATE payroll_runs SET
				status = $10::varchar,
				employee_count = $3,
				error_count = $4,
				total_gross = $5,
				total_deductions = $6,
				total_net = $7,
				bracket_version = $8,
				generation = generation + 1,
				failure_reason = NULL,
				calculated_at = now(),
				updated_at = now()
			WHERE id = $1 AND company_id = $2 AND status = $9
			RETURNING ` + runColumns

		run, err := scanRun(tx.QueryRow(ctx, query,
			id, companyID, len(result.LineItems), len(result.Errors),
			result.TotalGross, result.TotalDeductions, result.TotalNet, result.BracketVersion,
			from, to,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.missingOrConflict(ctx, tx, companyID, id)
			}
			return fmt.Errorf("failed to commit payroll run totals: %w", err)
		}

		if err := deleteRunResults(ctx, tx, []string{id}); err != nil {
			return err
		}
		if err := insertLineItems(ctx, tx, result.LineItems); err != nil {
			return err
		}
		if err := insertRunErrors(ctx, tx, id, result.Errors); err != nil {
			return err
		}

		committed = run
		return nil
	})
	if err != nil {
		return payroll.Run{}, err
	}
	return committed, nil
}

// failRunSet takes the placeholder numbers of the target status and the reason.
const failRunSet = `
	status = $%d::varchar,
	failure_reason = $%d,
	employee_count = 0,
	error_count = 0,
	total_gross = NULL,
	total_deductions = NULL,
	total_net = NULL,
	bracket_version = NULL,
	updated_at = now()`

func (r *payrollRepository) FailCalculation(ctx context.Context, companyID, id string, from, to payroll.RunStatus, reason string) (payroll.Run, error) {
	var failed payroll.Run

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		query := `UPDATE payroll_runs SET ` + fmt.Sprintf(failRunSet, 4, 5) + `
			WHERE id = $1 AND company_id = $2 AND status = $3
			RETURNING ` + runColumns

		run, err := scanRun(tx.QueryRow(ctx, query, id, companyID, from, to, reason))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.missingOrConflict(ctx, tx, companyID, id)
			}
			return fmt.Errorf("failed to mark payroll run failed: %w", err)
		}

		if err := deleteRunResults(ctx, tx, []string{id}); err != nil {
			return err
		}
		failed = run
		return nil
	})
	if err != nil {
		return payroll.Run{}, err
	}
	return failed, nil
}

func (r *payrollRepository) FailStaleCalculations(ctx context.Context, startedBefore time.Time, from, to payroll.RunStatus, reason string) ([]payroll.Run, error) {
	var failed []payroll.Run

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		query := `UPDATE payroll_runs SET ` + fmt.Sprintf(failRunSet, 3, 4) + `
			WHERE status = $2 AND calculation_started_at < $1
			RETURNING ` + runColumns

		rows, err := tx.Query(ctx, query, startedBefore, from, to, reason)
		if err != nil {
			return fmt.Errorf("failed to fail stale payroll runs: %w", err)
		}
		ids := make([]string, 0)
		for rows.Next() {
			run, err := scanRun(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan payroll run: %w", err)
			}
			failed = append(failed, run)
			ids = append(ids, run.ID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate stale payroll runs: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}
		return deleteRunResults(ctx, tx, ids)
	})
	if err != nil {
		return nil, err
	}
	return failed, nil
}

func deleteRunResults(ctx context.Context, tx pgx.Tx, runIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM payroll_line_items WHERE run_id = ANY($1)`, runIDs); err != nil {
		return fmt.Errorf("failed to delete payroll line items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM payroll_run_errors WHERE run_id = ANY($1)`, runIDs); err != nil {
		return fmt.Errorf("failed to delete payroll run errors: %w", err)
	}
	return nil
}

const insertLineItemSQL = `
	INSERT INTO payroll_line_items (
		id, run_id, company_id, employee_id, employee_name, employee_code, employment_type, bracket_version,
		base_salary, overtime_pay, gross_salary, non_taxable_allowances, taxable_gross,
		contribution_a, contribution_b, income_tax, total_deductions, net_salary,
		worked_minutes, regular_minutes, minutes_41_to_46, minutes_above_46,
		saturday_minutes, sunday_minutes, night_minutes, holiday_minutes
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		$9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18,
		$19, $20, $21, $22,
		$23, $24, $25, $26
	)`

func insertLineItems(ctx context.Context, tx pgx.Tx, items []payroll.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, li := range items {
		o := li.Overtime
		batch.Queue(insertLineItemSQL,
			li.ID, li.RunID, li.CompanyID, li.EmployeeID, li.EmployeeName, li.EmployeeCode, li.EmploymentType, li.BracketVersion,
			li.BaseSalary, li.OvertimePay, li.GrossSalary, li.NonTaxableAllowances, li.TaxableGross,
			li.ContributionA, li.ContributionB, li.IncomeTax, li.TotalDeductions, li.NetSalary,
			minutes(o.Worked), minutes(o.Regular), minutes(o.Hours41To46), minutes(o.HoursAbove46),
			minutes(o.Saturday), minutes(o.Sunday), minutes(o.Night), minutes(o.Holiday),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for _, li := range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert line item for employee %s: %w", li.EmployeeID, err)
		}
	}
	return br.Close()
}

func insertRunErrors(ctx context.Context, tx pgx.Tx, runID string, errs []payroll.RunError) error {
	if len(errs) == 0 {
		return nil
	}

	query := `
		INSERT INTO payroll_run_errors (run_id, employee_id, employee_name, employee_code, code, message)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	batch := &pgx.Batch{}
	for _, e := range errs {
		batch.Queue(query, runID, e.EmployeeID, e.EmployeeName, e.EmployeeCode, e.Code, e.Message)
	}

	br := tx.SendBatch(ctx, batch)
	for _, e := range errs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert run error for employee %s: %w", e.EmployeeID, err)
		}
	}
	return br.Close()
}

// ========== LINE ITEMS ==========

func (r *payrollRepository) ListLineItems(ctx context.Context, companyID, runID string) ([]payroll.LineItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, run_id, company_id, employee_id, employee_name, employee_code, employment_type, bracket_version,
			   base_salary, overtime_pay, gross_salary, non_taxable_allowances, taxable_gross,
			   contribution_a, contribution_b, income_tax, total_deductions, net_salary,
			   worked_minutes, regular_minutes, minutes_41_to_46, minutes_above_46,
			   saturday_minutes, sunday_minutes, night_minutes, holiday_minutes
		FROM payroll_line_items
		WHERE run_id = $1 AND company_id = $2
		ORDER BY employee_code, employee_id
	`

	rows, err := q.Query(ctx, query, runID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll line items: %w", err)
	}
	defer rows.Close()

	items := make([]payroll.LineItem, 0)
	for rows.Next() {
		var li payroll.LineItem
		var worked, regular, tier1, tier2, sat, sun, night, holiday int
		if err := rows.Scan(
			&li.ID, &li.RunID, &li.CompanyID, &li.EmployeeID, &li.EmployeeName, &li.EmployeeCode, &li.EmploymentType, &li.BracketVersion,
			&li.BaseSalary, &li.OvertimePay, &li.GrossSalary, &li.NonTaxableAllowances, &li.TaxableGross,
			&li.ContributionA, &li.ContributionB, &li.IncomeTax, &li.TotalDeductions, &li.NetSalary,
			&worked, &regular, &tier1, &tier2,
			&sat, &sun, &night, &holiday,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll line item: %w", err)
		}
		li.Overtime.Worked = duration(worked)
		li.Overtime.Regular = duration(regular)
		li.Overtime.Hours41To46 = duration(tier1)
		li.Overtime.HoursAbove46 = duration(tier2)
		li.Overtime.Saturday = duration(sat)
		li.Overtime.Sunday = duration(sun)
		li.Overtime.Night = duration(night)
		li.Overtime.Holiday = duration(holiday)
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll line items: %w", err)
	}

	return items, nil
}

func (r *payrollRepository) ListRunErrors(ctx context.Context, companyID, runID string) ([]payroll.RunError, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT re.run_id, re.employee_id, re.employee_name, re.employee_code, re.code, re.message
		FROM payroll_run_errors re
		JOIN payroll_runs pr ON pr.id = re.run_id
		WHERE re.run_id = $1 AND pr.company_id = $2
		ORDER BY re.employee_code, re.employee_id
	`

	rows, err := q.Query(ctx, query, runID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll run errors: %w", err)
	}
	defer rows.Close()

	errs := make([]payroll.RunError, 0)
	for rows.Next() {
		var e payroll.RunError
		if err := rows.Scan(&e.RunID, &e.EmployeeID, &e.EmployeeName, &e.EmployeeCode, &e.Code, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan payroll run error: %w", err)
		}
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll run errors: %w", err)
	}

	return errs, nil
}

// ========== AUDIT ==========

func (r *payrollRepository) RecordAudit(ctx context.Context, event payroll.AuditEvent) error {
	q := GetQuerier(ctx, r.db)

	details := event.Details
	if details == nil {
		details = map[string]any{}
	}

	query := `
		INSERT INTO payroll_audit_events (company_id, actor_id, action, run_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.Exec(ctx, query, event.CompanyID, event.ActorID, event.Action, event.RunID, details); err != nil {
		return fmt.Errorf("failed to record payroll audit event: %w", err)
	}
	return nil
}

// ========== HELPERS ==========

// missingOrConflict explains a guarded write that matched no row.
func (r *payrollRepository) missingOrConflict(ctx context.Context, q database.Querier, companyID, id string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM payroll_runs WHERE id = $1 AND company_id = $2)`
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check payroll run: %w", err)
	}
	if !exists {
		return payroll.ErrRunNotFound
	}
	return payroll.ErrRunStatusConflict
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

func duration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
