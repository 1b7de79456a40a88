package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type PayrollHandler interface {
	// Runs
	ListRuns(w http.ResponseWriter, r *http.Request)
	CreateRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	DeleteRun(w http.ResponseWriter, r *http.Request)

	// Lifecycle
	CalculateRun(w http.ResponseWriter, r *http.Request)
	RecalculateRun(w http.ResponseWriter, r *http.Request)
	ApproveRun(w http.ResponseWriter, r *http.Request)
	MarkRunPaid(w http.ResponseWriter, r *http.Request)

	// Progress
	GetRunProgress(w http.ResponseWriter, r *http.Request)
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	StreamEvents(w http.ResponseWriter, r *http.Request)

	// Statutory
	ListBrackets(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	brackets       statutory.Registry
	jwtService     jwt.Service
	keepalive      time.Duration
}

func NewPayrollHandler(payrollService payroll.PayrollService, brackets statutory.Registry, jwtService jwt.Service) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
		brackets:       brackets,
		jwtService:     jwtService,
		keepalive:      30 * time.Second,
	}
}

// claimsFromContext reads the caller out of a verified access token.
func claimsFromContext(r *http.Request) user.Claims {
	_, claims, _ := jwtauth.FromContext(r.Context())
	var c user.Claims
	c.UserID, _ = claims["user_id"].(string)
	c.CompanyID, _ = claims["company_id"].(string)
	if role, ok := claims["role"].(string); ok {
		c.Role = user.Role(role)
	}
	return c
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)
	query := r.URL.Query()

	filter := payroll.RunFilter{
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if yearStr := query.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			response.BadRequest(w, "Invalid year", map[string]string{"year": "must be a number"})
			return
		}
		filter.Year = &year
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ListRuns(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CreateRun(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	var req payroll.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.CreateRun(r.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run created", result)
}

func (h *payrollHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	result, err := h.payrollService.GetRun(r.Context(), claimsFromContext(r).CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	claims := claimsFromContext(r)
	if err := h.payrollService.DeleteRun(r.Context(), claims.CompanyID, id, claims.UserID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run deleted successfully", nil)
}

// ========== LIFECYCLE ==========

// CalculateRun blocks until the calculation commits or fails. Clients that
// want live progress open StreamEvents first.
func (h *payrollHandlerImpl) CalculateRun(w http.ResponseWriter, r *http.Request) {
	h.summaryAction(w, r, "Payroll run calculated", h.payrollService.CalculateRun)
}

func (h *payrollHandlerImpl) RecalculateRun(w http.ResponseWriter, r *http.Request) {
	h.summaryAction(w, r, "Payroll run recalculated", h.payrollService.RecalculateRun)
}

func (h *payrollHandlerImpl) ApproveRun(w http.ResponseWriter, r *http.Request) {
	h.summaryAction(w, r, "Payroll run approved", h.payrollService.ApproveRun)
}

func (h *payrollHandlerImpl) MarkRunPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	claims := claimsFromContext(r)
	result, err := h.payrollService.MarkRunPaid(r.Context(), claims.CompanyID, id, claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run marked as paid", result)
}

type summaryFunc func(ctx context.Context, companyID, runID, actorID string) (payroll.RunSummaryResponse, error)

func (h *payrollHandlerImpl) summaryAction(w http.ResponseWriter, r *http.Request, message string, fn summaryFunc) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	claims := claimsFromContext(r)
	result, err := fn(r.Context(), claims.CompanyID, id, claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

// ========== PROGRESS ==========

func (h *payrollHandlerImpl) GetRunProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	result, err := h.payrollService.GetRunProgress(r.Context(), claimsFromContext(r).CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSSEToken issues a short-lived token scoped to one run, since EventSource
// cannot send an Authorization header.
func (h *payrollHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	claims := claimsFromContext(r)
	if claims.UserID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	// 404 for runs outside the caller's company.
	if _, err := h.payrollService.GetRunProgress(r.Context(), claims.CompanyID, id); err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(claims, id)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, payroll.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// StreamEvents handles the SSE connection for one run's calculation progress.
func (h *payrollHandlerImpl) StreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Run ID must be a valid UUID", nil)
		return
	}

	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	sseClaims, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if sseClaims.RunID != id {
		response.HandleError(w, fmt.Errorf("%w: token was issued for another run", auth.ErrInvalidToken))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	events, cleanup, err := h.payrollService.SubscribeProgress(r.Context(), sseClaims.CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer cleanup()

	// Subscribed before the snapshot, so nothing published in between is lost.
	snapshot, err := h.payrollService.GetRunProgress(r.Context(), sseClaims.CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	writeEvent(w, payroll.EventProgress, snapshot)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event.Event, event.Data)
			flusher.Flush()
			if payroll.IsTerminalEvent(event.Event) {
				return
			}

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

// ========== STATUTORY ==========

func (h *payrollHandlerImpl) ListBrackets(w http.ResponseWriter, r *http.Request) {
	sets := h.brackets.List()
	result := make([]statutory.BracketSetResponse, 0, len(sets))
	for _, s := range sets {
		result = append(result, statutory.NewBracketSetResponse(s))
	}

	response.Success(w, result)
}
