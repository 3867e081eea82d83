package service

// State is a step of the payment transaction. Transitions only move forward;
// StateFailed and StateCompleted are terminal.
type State string

const (
	StateReceived        State = "received"
	StateUserChecked     State = "user_checked"
	StateCartValidated   State = "cart_validated"
	StateCharged         State = "charged"
	StateMetricsRecorded State = "metrics_recorded"
	StateOrderQueued     State = "order_queued"
	StateHistoryRecorded State = "history_recorded"
	StateCartCleared     State = "cart_cleared"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Terminal reports whether no transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Observer is told about every transition of every transaction.
type Observer func(userID string, from, to State)
