package live

import "time"

// State is a session lifecycle phase.
type State string

const (
	StateCreated    State = "created"
	StateConnected  State = "connected"
	StateActive     State = "active"
	StateClosing    State = "closing"
	StateTerminated State = "terminated"
)

// Sample is the latest buffered payload for one modality.
// Data is owned by the buffer once stored and must not be modified.
type Sample struct {
	Data       []byte
	ReceivedAt time.Time
}

// SessionSummary is the durable record written when a session ends.
type SessionSummary struct {
	SessionID string          `bson:"session_id" json:"session_id"`
	UserID    string          `bson:"user_id,omitempty" json:"user_id,omitempty"`
	StartedAt time.Time       `bson:"started_at" json:"started_at"`
	EndedAt   time.Time       `bson:"ended_at" json:"ended_at"`
	Metrics   MetricsSnapshot `bson:"metrics" json:"metrics"`
}
