package domain

import (
	"encoding/json"
	"time"
)

// ProcessingStats is the running aggregate of a run
type ProcessingStats struct {
	QueriesProcessed              int     `json:"queriesProcessed"`
	PlacesFound                   int     `json:"placesFound"`
	APICallsMade                  int     `json:"apiCallsMade"`
	QueriesPerSecond              float64 `json:"queriesPerSecond"`
	EstimatedTimeRemainingSeconds int     `json:"estimatedTimeRemaining"`
	CurrentQuery                  string  `json:"currentQuery"`
	CurrentPage                   int     `json:"currentPage"`
}

// RunStats is the final summary sent with the completion event
type RunStats struct {
	QueriesProcessed      int     `json:"queriesProcessed"`
	PlacesFound           int     `json:"placesFound"`
	APICallsMade          int     `json:"apiCallsMade"`
	ProcessingTimeSeconds float64 `json:"processingTimeSeconds"`
}

// RunResult is everything a successful run hands back to its caller
type RunResult struct {
	AllPlaces    []PlaceResult `json:"allPlaces"`
	BrandMatches []PlaceResult `json:"brandMatches"`
	Stats        RunStats      `json:"stats"`
}

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is the record kept for history and downloads
type Run struct {
	ID           string     `json:"id"`
	FileName     string     `json:"fileName"`
	Locale       Locale     `json:"locale"`
	TotalQueries int        `json:"totalQueries"`
	Status       RunStatus  `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   time.Time  `json:"finishedAt,omitzero"`
	Result       *RunResult `json:"-"`
}

// EventType tags the events produced by a run
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Progress is the payload of a progress event
type Progress struct {
	Percent                int     `json:"progress"`
	CurrentQuery           string  `json:"currentQuery"`
	TotalQueries           int     `json:"totalQueries"`
	ProcessedQueries       int     `json:"processedQueries"`
	QueriesPerSecond       float64 `json:"queriesPerSecond"`
	EstimatedTimeRemaining int     `json:"estimatedTimeRemaining"`
	APICallsMade           int     `json:"apiCallsMade"`
	CurrentPage            int     `json:"currentPage"`
}

// Event is one item of the stream a run produces.
// Exactly one of Progress, Result or Err is meaningful, selected by Type.
type Event struct {
	Type     EventType
	Progress Progress
	Result   *RunResult
	Err      error
}

// ProgressEvent wraps a progress snapshot.
func ProgressEvent(p Progress) Event {
	return Event{Type: EventProgress, Progress: p}
}

// CompleteEvent wraps the final result.
func CompleteEvent(r *RunResult) Event {
	return Event{Type: EventComplete, Result: r}
}

// ErrorEvent wraps a fatal error.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Err: err}
}

// Terminal reports whether no event can follow e.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// MarshalJSON writes the wire shape consumed by the dashboard
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventComplete:
		return json.Marshal(struct {
			Type EventType  `json:"type"`
			Data *RunResult `json:"data"`
		}{e.Type, e.Result})
	case EventError:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Error string    `json:"error"`
		}{e.Type, msg})
	default:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Progress
		}{EventProgress, e.Progress})
	}
}
