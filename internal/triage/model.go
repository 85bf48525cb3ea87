package triage

import "time"

// Request is one event-like row selected by a caller for triage. All fields
// are optional at the API boundary; missing values render as placeholders in
// the prompt rather than rejecting the request.
type Request struct {
	LogType string   `json:"log_type"`
	Time    string   `json:"time"`
	EventID int      `json:"event_id"`
	Source  string   `json:"source"`
	Message []string `json:"message"`
}

// Result is the outcome of one triage run. Never persisted; created per call
// and discarded after the response is sent.
type Result struct {
	ID          string    `json:"id"`
	LogType     string    `json:"log_type,omitempty"`
	EventID     int       `json:"event_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	InputPrompt string    `json:"input_prompt"`
	OutputText  string    `json:"output_text"`
	CreatedAt   time.Time `json:"created_at"`
	Duration    float64   `json:"duration_seconds"`
}

// Health reports the inference resource state for the health endpoint.
type Health struct {
	Ready    bool   `json:"ready"`
	State    string `json:"state"`
	Location string `json:"resource_location"`
	Error    string `json:"error,omitempty"`
}
