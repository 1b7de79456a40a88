package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// ListActiveEmployees implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActiveEmployees(ctx context.Context, companyID string, asOf time.Time) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			e.id, e.company_id, e.employee_code, e.full_name, e.employment_type, e.employment_status,
			e.hire_date, e.resignation_date, e.base_salary,
			COALESCE((
				SELECT SUM(epc.amount)
				FROM employee_payroll_components epc
				JOIN payroll_components pc ON pc.id = epc.payroll_component_id
				WHERE epc.employee_id = e.id
				  AND pc.type = 'allowance'
				  AND pc.is_taxable = false
				  AND pc.is_active = true
				  AND epc.effective_date <= $2::date
				  AND (epc.end_date IS NULL OR epc.end_date >= $2::date)
			), 0) AS non_taxable_allowances
		FROM employees e
		WHERE e.company_id = $1
		  AND e.deleted_at IS NULL
		  AND e.hire_date <= $2::date
		  AND (e.resignation_date IS NULL OR e.resignation_date >= $2::date)
		  -- A departed employee without a resignation date has no period to be paid for.
		  AND (e.employment_status = 'active' OR e.resignation_date IS NOT NULL)
		ORDER BY e.employee_code, e.id
	`

	rows, err := q.Query(ctx, query, companyID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FullName, &e.EmploymentType, &e.EmploymentStatus,
			&e.HireDate, &e.ResignationDate, &e.BaseSalary,
			&e.NonTaxableAllowances,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}
