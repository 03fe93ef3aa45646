package flow

import "time"

// EventType names a state change.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventNodeExecuting  EventType = "node_executing"
	EventNodeExecuted   EventType = "node_executed"
	EventNodeFailed     EventType = "node_failed"
	EventRunFinished    EventType = "run_finished"
	EventResultsCleared EventType = "results_cleared"
	EventConfigUpdated  EventType = "config_updated"
)

// Event is delivered to observers after every state change.
type Event struct {
	Type   EventType
	RunID  string
	NodeID string
	Result *NodeResult
	Err    error
	Time   time.Time
}

// Observer receives events synchronously on the scheduler goroutine.
type Observer func(Event)
