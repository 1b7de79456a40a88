package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	GetOvertimeBreakdown(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	overtimeService attendance.OvertimeService
}

func NewAttendanceHandler(overtimeService attendance.OvertimeService) AttendanceHandler {
	return &attendanceHandlerImpl{
		overtimeService: overtimeService,
	}
}

// GetOvertimeBreakdown previews how one employee's hours fall into the
// overtime buckets, exactly as a payroll calculation would see them.
func (h *attendanceHandlerImpl) GetOvertimeBreakdown(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := attendance.OvertimeQuery{
		EmployeeID:  query.Get("employee_id"),
		PeriodStart: query.Get("period_start"),
		PeriodEnd:   query.Get("period_end"),
	}

	if err := q.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	breakdown, err := h.overtimeService.GetOvertimeBreakdown(r.Context(), claimsFromContext(r).CompanyID, q.EmployeeID, q.Start, q.End)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewOvertimeBreakdownResponse(breakdown))
}
