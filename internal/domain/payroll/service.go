package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
)

// PayrollService owns the payroll run lifecycle. Every operation takes the
// company explicitly.
type PayrollService interface {
	CreateRun(ctx context.Context, companyID, actorID string, req CreateRunRequest) (RunResponse, error)
	CalculateRun(ctx context.Context, companyID, runID, actorID string) (RunSummaryResponse, error)
	RecalculateRun(ctx context.Context, companyID, runID, actorID string) (RunSummaryResponse, error)
	ApproveRun(ctx context.Context, companyID, runID, approverID string) (RunSummaryResponse, error)
	MarkRunPaid(ctx context.Context, companyID, runID, actorID string) (RunResponse, error)
	DeleteRun(ctx context.Context, companyID, runID, actorID string) error

	GetRun(ctx context.Context, companyID, runID string) (RunDetailResponse, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) (ListRunResponse, error)
	GetRunProgress(ctx context.Context, companyID, runID string) (RunProgressResponse, error)

	// SubscribeProgress streams progress events for one run.
	SubscribeProgress(ctx context.Context, companyID, runID string) (<-chan sse.Event, func(), error)
}
