// Package events provides lifecycle notifications for benchmark runs.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventPlanReady is emitted once every client's invocation has been composed
	EventPlanReady EventType = "plan_ready"
	// EventRunStarted is emitted right before the task runner is invoked
	EventRunStarted EventType = "run_started"
	// EventRunCompleted is emitted after the results have been aggregated
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed is emitted when planning, running or aggregation fails
	EventRunFailed EventType = "run_failed"
)

// Event represents a benchmark lifecycle event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Clients         int     `json:"clients,omitempty"`
	Files           int     `json:"files,omitempty"`
	Overlap         int     `json:"overlap,omitempty"`
	Style           string  `json:"style,omitempty"`
	Mode            string  `json:"mode,omitempty"`
	TotalThroughput float64 `json:"total_throughput,omitempty"`
	MaxTime         float64 `json:"max_time,omitempty"`
	MinTime         float64 `json:"min_time,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// NewPlanReadyEvent creates a plan ready event
func NewPlanReadyEvent(runID string, clients, files, overlap int, style, mode string) Event {
	return Event{
		Type:      EventPlanReady,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Clients: clients,
			Files:   files,
			Overlap: overlap,
			Style:   style,
			Mode:    mode,
		},
	}
}

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID string, clients int) Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Clients: clients,
		},
	}
}

// NewRunCompletedEvent creates a run completed event
func NewRunCompletedEvent(runID string, clients int, total, maxTime, minTime float64) Event {
	return Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Clients:         clients,
			TotalThroughput: total,
			MaxTime:         maxTime,
			MinTime:         minTime,
		},
	}
}

// NewRunFailedEvent creates a run failed event
func NewRunFailedEvent(runID string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventRunFailed,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Error: errMsg,
		},
	}
}
