package status

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/podushkina/mailqueue/internal/queue"
	"github.com/podushkina/mailqueue/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResolver(t *testing.T) (*Resolver, *queue.Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	q, err := queue.New(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	return NewResolver(q), q, mr
}

func TestResolve_Pending(t *testing.T) {
	r, q, mr := setupResolver(t)
	defer mr.Close()
	ctx := context.Background()

	tsk, err := q.Enqueue(ctx, "a@example.com")
	require.NoError(t, err)

	view, code, err := r.Resolve(ctx, tsk.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "PENDING", view.Status)
	assert.Equal(t, "Email sending in progress", view.Message)
}

func TestResolve_InProgressStatesCollapse(t *testing.T) {
	r, q, mr := setupResolver(t)
	defer mr.Close()
	ctx := context.Background()

	for _, s := range []task.State{task.StateReceived, task.StateStarted, task.StateRetry} {
		t.Run(string(s), func(t *testing.T) {
			tsk, err := q.Enqueue(ctx, "b@example.com")
			require.NoError(t, err)
			require.NoError(t, q.SetState(ctx, tsk, s))

			view, code, err := r.Resolve(ctx, tsk.ID)
			require.NoError(t, err)

			assert.Equal(t, http.StatusAccepted, code)
			assert.Equal(t, "PENDING", view.Status)
		})
	}
}

func TestResolve_Success(t *testing.T) {
	r, q, mr := setupResolver(t)
	defer mr.Close()
	ctx := context.Background()

	tsk, err := q.Enqueue(ctx, "a@example.com")
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, tsk))

	view, code, err := r.Resolve(ctx, tsk.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "SUCCESS", view.Status)
	assert.Equal(t, "Email sent successfully to a@example.com", view.Message)

	// Terminal state is stable across repeated polls.
	again, code, err := r.Resolve(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, view, again)
}

func TestResolve_Failure(t *testing.T) {
	r, q, mr := setupResolver(t)
	defer mr.Close()
	ctx := context.Background()

	tsk, err := q.Enqueue(ctx, "c@example.com")
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, tsk, "SMTP timeout"))

	view, code, err := r.Resolve(ctx, tsk.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "FAILURE", view.Status)
	assert.Equal(t, "Failed to send email: SMTP timeout", view.Message)
}

func TestResolve_UnknownIDReportsPending(t *testing.T) {
	r, _, mr := setupResolver(t)
	defer mr.Close()

	view, code, err := r.Resolve(context.Background(), "never-issued-id")
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "PENDING", view.Status)
}

func TestResolve_UnrecognizedState(t *testing.T) {
	r, q, mr := setupResolver(t)
	defer mr.Close()
	ctx := context.Background()

	tsk, err := q.Enqueue(ctx, "d@example.com")
	require.NoError(t, err)
	require.NoError(t, q.SetState(ctx, tsk, task.State("REVOKED")))

	view, code, err := r.Resolve(ctx, tsk.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "UNKNOWN", view.Status)
	assert.Equal(t, "Task status unknown", view.Message)
}
