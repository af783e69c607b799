package activity

import (
	"errors"
	"time"
)

type Kind string

const (
	KindOccurrence Kind = "occurrence"
	KindHourly     Kind = "hourly"
)

// Validation and invalid-state signals. Handlers map these to HTTP codes;
// none of them leave the ledger partially mutated.
var (
	ErrNameRequired     = errors.New("activity name is required")
	ErrInvalidKind      = errors.New("activity kind must be occurrence or hourly")
	ErrNotFound         = errors.New("activity not found")
	ErrCatalogLocked    = errors.New("built-in catalog activities cannot be added or deleted")
	ErrCatalogOnly      = errors.New("operation is only available in catalog mode")
	ErrCustomOnly       = errors.New("operation is only available in custom mode")
	ErrNotOccurrence    = errors.New("activity is not an occurrence activity")
	ErrNotHourly        = errors.New("activity is not an hourly activity")
	ErrAlreadyCompleted = errors.New("activity already completed today")
	ErrNotCompleted     = errors.New("activity is not completed")
	ErrTimerRunning     = errors.New("timer already running for activity")
	ErrTimerNotRunning  = errors.New("no running timer for activity")
)

// Definition is one loggable activity. Points is a per-occurrence value for
// occurrence activities and a signed rate per hour for hourly ones.
type Definition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Category string `json:"category,omitempty"`
	Time     string `json:"time,omitempty"`
	Kind     Kind   `json:"kind"`
}

// RunningTimer tracks an hourly activity that is actively accruing. It is
// transient: never persisted, discarded on stop or cancellation.
type RunningTimer struct {
	ActivityID         string    `json:"activity_id"`
	StartedAt          time.Time `json:"started_at"`
	LastComputedEarned int       `json:"last_computed_earned"`
}

type AddActivityRequest struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Category string `json:"category,omitempty"`
	Kind     Kind   `json:"kind"`
}

type LogPointsRequest struct {
	Delta int `json:"delta"`
}

// TimerView is the display-refresh payload for a running timer.
type TimerView struct {
	ActivityID     string    `json:"activity_id"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Earned         int       `json:"earned"`
}
