package models

import "time"

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a transient user-facing message about the outcome of a plan
// operation. Each operation attempt produces at most one.
type Notice struct {
	Level   string    `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	PlanID  string    `json:"planId,omitempty"`
	At      time.Time `json:"at"`
}
