package history

import (
	"time"

	"github.com/google/uuid"
)

const (
	OpFilter  = "filter"
	OpMove    = "move"
	OpAttach  = "attach"
	OpMerge   = "merge"
	OpSmooth  = "smooth"
	OpResolve = "resolve"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded transform invocation.
type Run struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	Selection  string    `json:"selection,omitempty"`
	Frames     int       `json:"frames"`
	People     int       `json:"people"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Well-known config keys.
const (
	ConfigAuthToken = "auth_token"
	ConfigDeviceID  = "device_id"
)

func NewID() string {
	return uuid.NewString()
}
