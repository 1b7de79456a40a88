package payroll

// SSE event names published on a run's topic.
const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// IsTerminalEvent reports whether no further events follow on the run's topic.
func IsTerminalEvent(event string) bool {
	return event == EventCompleted || event == EventFailed
}
