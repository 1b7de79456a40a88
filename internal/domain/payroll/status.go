package payroll

// RunStatus is the lifecycle state of a payroll run.
type RunStatus string

const (
	RunStatusDraft       RunStatus = "draft"
	RunStatusCalculating RunStatus = "calculating"
	RunStatusCalculated  RunStatus = "calculated"
	RunStatusApproved    RunStatus = "approved"
	RunStatusPaid        RunStatus = "paid"
	RunStatusFailed      RunStatus = "failed"
	// RunStatusDeleted is the target of a delete. It is never persisted.
	RunStatusDeleted RunStatus = "deleted"
)

var RunStatusValues = []string{
	string(RunStatusDraft),
	string(RunStatusCalculating),
	string(RunStatusCalculated),
	string(RunStatusApproved),
	string(RunStatusPaid),
	string(RunStatusFailed),
}

// RunAction is a command that moves a run between states.
type RunAction string

const (
	ActionCalculate   RunAction = "calculate"
	ActionRecalculate RunAction = "recalculate"
	ActionComplete    RunAction = "complete"
	ActionFail        RunAction = "fail"
	ActionApprove     RunAction = "approve"
	ActionPay         RunAction = "pay"
	ActionDelete      RunAction = "delete"
)

// HasTotals reports whether run totals are defined in this state.
func (s RunStatus) HasTotals() bool {
	switch s {
	case RunStatusCalculated, RunStatusApproved, RunStatusPaid:
		return true
	default:
		return false
	}
}

// Transition returns the state a run in from moves to under action.
// Every (status, action) pair is decided here and nowhere else.
func Transition(from RunStatus, action RunAction) (RunStatus, error) {
	switch from {
	case RunStatusDraft:
		switch action {
		case ActionCalculate:
			return RunStatusCalculating, nil
		case ActionDelete:
			return RunStatusDeleted, nil
		}

	case RunStatusCalculating:
		switch action {
		case ActionComplete:
			return RunStatusCalculated, nil
		case ActionFail:
			return RunStatusFailed, nil
		case ActionCalculate, ActionRecalculate:
			return from, ErrRunCalculationInProgress
		}

	case RunStatusCalculated:
		switch action {
		case ActionRecalculate:
			return RunStatusCalculating, nil
		case ActionApprove:
			return RunStatusApproved, nil
		}

	case RunStatusApproved:
		if action == ActionPay {
			return RunStatusPaid, nil
		}
		return from, ErrRunImmutable

	case RunStatusPaid:
		return from, ErrRunImmutable

	case RunStatusFailed:
		if action == ActionCalculate {
			return RunStatusCalculating, nil
		}

	default:
		return from, ErrUnknownRunStatus
	}

	return from, &InvalidTransitionError{From: from, Action: action}
}
