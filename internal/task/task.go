package task

import (
	"time"
)

// State follows the Celery state vocabulary so existing pollers keep working.
type State string

const (
	StatePending  State = "PENDING"
	StateReceived State = "RECEIVED"
	StateStarted  State = "STARTED"
	StateRetry    State = "RETRY"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
)

// Terminal reports whether the state can never change again.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// DefaultMaxRetry is the number of retries after the initial attempt.
const DefaultMaxRetry = 3

// Task is one email-send invocation together with its latest recorded outcome.
type Task struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	Retries    int       `json:"retries"`
	MaxRetry   int       `json:"max_retry"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
