package status

import (
	"context"
	"fmt"
	"net/http"

	"github.com/podushkina/mailqueue/internal/task"
)

// Store is the read side of the result store.
type Store interface {
	Get(ctx context.Context, id string) (*task.Task, error)
}

// View is the caller-facing projection of a task's current state. It is
// recomputed on every poll and never persisted.
type View struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Resolver maps internal task states to the polling vocabulary.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the view for id together with the HTTP code to serve it
// with. An id the store has no record for reports as in-progress: the broker
// backend never distinguished unknown ids from pending ones, and existing
// pollers rely on that.
func (r *Resolver) Resolve(ctx context.Context, id string) (View, int, error) {
	t, err := r.store.Get(ctx, id)
	if err != nil {
		return View{}, 0, err
	}

	if t == nil {
		return inProgress(), http.StatusAccepted, nil
	}

	switch t.State {
	case task.StateSuccess:
		return View{
			Status:  "SUCCESS",
			Message: fmt.Sprintf("Email sent successfully to %s", t.Recipient),
		}, http.StatusOK, nil
	case task.StateFailure:
		return View{
			Status:  "FAILURE",
			Message: fmt.Sprintf("Failed to send email: %s", t.Error),
		}, http.StatusBadRequest, nil
	case task.StatePending, task.StateReceived, task.StateStarted, task.StateRetry:
		return inProgress(), http.StatusAccepted, nil
	default:
		return View{
			Status:  "UNKNOWN",
			Message: "Task status unknown",
		}, http.StatusInternalServerError, nil
	}
}

func inProgress() View {
	return View{
		Status:  "PENDING",
		Message: "Email sending in progress",
	}
}
