package coordinator

// State is where a message ended up after one delivery.
type State int

const (
	StateReceived State = iota
	StateDuplicateDropped
	StateProcessing
	StatePersisted
	StateAlerted
	StateAcknowledged
	StateRetryPending
	StateDeadLettered
)

var stateNames = [...]string{
	StateReceived:         "received",
	StateDuplicateDropped: "duplicate_dropped",
	StateProcessing:       "processing",
	StatePersisted:        "persisted",
	StateAlerted:          "alerted",
	StateAcknowledged:     "acknowledged",
	StateRetryPending:     "retry_pending",
	StateDeadLettered:     "dead_lettered",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the message has left its source queue.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateDeadLettered
}

// Result is the trace of one delivery through the coordinator.
type Result struct {
	MessageID string
	Queue     string
	Path      []State
	Err       error
}

// Final returns the last state reached.
func (r Result) Final() State {
	if len(r.Path) == 0 {
		return StateReceived
	}
	return r.Path[len(r.Path)-1]
}

func (r *Result) advance(s State) {
	r.Path = append(r.Path, s)
}
