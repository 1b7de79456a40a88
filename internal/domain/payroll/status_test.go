package payroll

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	statuses := []RunStatus{RunStatusDraft, RunStatusCalculating, RunStatusCalculated, RunStatusApproved, RunStatusPaid, RunStatusFailed}
	actions := []RunAction{ActionCalculate, ActionRecalculate, ActionComplete, ActionFail, ActionApprove, ActionPay, ActionDelete}

	allowed := map[RunStatus]map[RunAction]RunStatus{
		RunStatusDraft:       {ActionCalculate: RunStatusCalculating, ActionDelete: RunStatusDeleted},
		RunStatusCalculating: {ActionComplete: RunStatusCalculated, ActionFail: RunStatusFailed},
		RunStatusCalculated:  {ActionRecalculate: RunStatusCalculating, ActionApprove: RunStatusApproved},
		RunStatusApproved:    {ActionPay: RunStatusPaid},
		RunStatusFailed:      {ActionCalculate: RunStatusCalculating},
	}

	for _, from := range statuses {
		for _, action := range actions {
			got, err := Transition(from, action)
			want, ok := allowed[from][action]
			if ok {
				if err != nil || got != want {
					t.Errorf("Transition(%s, %s) = (%s, %v), want (%s, nil)", from, action, got, err, want)
				}
				continue
			}

			if err == nil {
				t.Errorf("Transition(%s, %s) = %s, want error", from, action, got)
				continue
			}
			if got != from {
				t.Errorf("Transition(%s, %s) moved to %s on error", from, action, got)
			}

			var wantErr error
			switch {
			case from == RunStatusApproved || from == RunStatusPaid:
				wantErr = ErrRunImmutable
			case from == RunStatusCalculating && (action == ActionCalculate || action == ActionRecalculate):
				wantErr = ErrRunCalculationInProgress
			default:
				wantErr = ErrInvalidTransition
			}
			if !errors.Is(err, wantErr) {
				t.Errorf("Transition(%s, %s) error = %v, want %v", from, action, err, wantErr)
			}
		}
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := Transition(RunStatus("archived"), ActionCalculate)
	if !errors.Is(err, ErrUnknownRunStatus) {
		t.Errorf("error = %v, want %v", err, ErrUnknownRunStatus)
	}
}

func TestRunIncomplete(t *testing.T) {
	cases := []struct {
		status RunStatus
		errors int
		want   bool
	}{
		{RunStatusCalculated, 2, true},
		{RunStatusApproved, 1, true},
		{RunStatusCalculated, 0, false},
		{RunStatusFailed, 3, false},
		{RunStatusDraft, 0, false},
	}
	for _, c := range cases {
		r := Run{Status: c.status, ErrorCount: c.errors}
		if got := r.Incomplete(); got != c.want {
			t.Errorf("Run{%s, %d}.Incomplete() = %v, want %v", c.status, c.errors, got, c.want)
		}
	}
}

func TestCreateRunRequest_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     CreateRunRequest
		wantErr bool
	}{
		{"valid", CreateRunRequest{Name: "January", PeriodStart: "2025-01-01", PeriodEnd: "2025-01-31", PayDate: "2025-02-05"}, false},
		{"single day", CreateRunRequest{Name: "Day", PeriodStart: "2025-01-01", PeriodEnd: "2025-01-01", PayDate: "2025-01-01"}, false},
		{"missing name", CreateRunRequest{Name: " ", PeriodStart: "2025-01-01", PeriodEnd: "2025-01-31", PayDate: "2025-02-05"}, true},
		{"end before start", CreateRunRequest{Name: "x", PeriodStart: "2025-01-31", PeriodEnd: "2025-01-01", PayDate: "2025-02-05"}, true},
		{"pay before start", CreateRunRequest{Name: "x", PeriodStart: "2025-01-01", PeriodEnd: "2025-01-31", PayDate: "2024-12-31"}, true},
		{"bad date", CreateRunRequest{Name: "x", PeriodStart: "2025-13-01", PeriodEnd: "2025-01-31", PayDate: "2025-02-05"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
			if err == nil && c.req.Start.IsZero() {
				t.Errorf("Validate() did not parse period_start")
			}
		})
	}
}
