package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/podushkina/mailqueue/internal/task"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey   = "mailqueue:pending"
	scheduledKey = "mailqueue:scheduled"
	taskPrefix   = "mailqueue:task:"

	// recordTTL bounds result-store growth; a task's record is gone after this.
	recordTTL = 24 * time.Hour
)

// Queue is the work queue and result store in one: a Redis list carries
// pending invocations, a sorted set holds retries waiting out their backoff,
// and per-task keys hold the latest recorded state.
type Queue struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue creates a new invocation for recipient and pushes it onto the
// pending list. It returns as soon as the broker accepts it; a broker error
// propagates to the caller unchanged in meaning (queue unavailable).
func (q *Queue) Enqueue(ctx context.Context, recipient string) (*task.Task, error) {
	t := &task.Task{
		ID:         uuid.New().String(),
		Recipient:  recipient,
		State:      task.StatePending,
		MaxRetry:   task.DefaultMaxRetry,
		EnqueuedAt: time.Now(),
		UpdatedAt:  time.Now(),
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, taskPrefix+t.ID, data, recordTTL)
	pipe.RPush(ctx, pendingKey, t.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	return t, nil
}

// Claim blocks up to timeout for the next pending invocation and marks it
// RECEIVED. Returns nil without error when nothing is pending, or when the
// popped id has no record left (expired).
func (q *Queue) Claim(ctx context.Context, timeout time.Duration) (*task.Task, error) {
	result, err := q.client.BLPop(ctx, timeout, pendingKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("claim task: %w", err)
	}

	t, err := q.Get(ctx, result[1])
	if err != nil || t == nil {
		return nil, err
	}

	if err := q.SetState(ctx, t, task.StateReceived); err != nil {
		return nil, err
	}
	return t, nil
}

// ScheduleRetry records the failed attempt and parks the task in the
// scheduled set until now+delay. The worker is free immediately; PromoteDue
// moves the task back onto the pending list once the backoff elapses.
func (q *Queue) ScheduleRetry(ctx context.Context, t *task.Task, delay time.Duration) error {
	t.Retries++
	t.State = task.StateRetry
	t.UpdatedAt = time.Now()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, taskPrefix+t.ID, data, recordTTL)
	pipe.ZAdd(ctx, scheduledKey, redis.Z{
		Score:  float64(time.Now().Add(delay).UnixMilli()),
		Member: t.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}

	return nil
}

// PromoteDue moves every scheduled task whose backoff has elapsed back onto
// the pending list. Returns how many were promoted.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	ids, err := q.client.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("promote due: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, scheduledKey, id)
		pipe.RPush(ctx, pendingKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("promote due: %w", err)
	}

	return len(ids), nil
}

// SetState records a non-terminal transition (RECEIVED, STARTED). Terminal
// states go through Complete/Fail, which are each written exactly once by the
// attempt that reaches them.
func (q *Queue) SetState(ctx context.Context, t *task.Task, s task.State) error {
	t.State = s
	return q.save(ctx, t)
}

// Complete records the terminal success outcome.
func (q *Queue) Complete(ctx context.Context, t *task.Task) error {
	t.State = task.StateSuccess
	t.Error = ""
	return q.save(ctx, t)
}

// Fail records the terminal failure outcome with the last attempt's error.
func (q *Queue) Fail(ctx context.Context, t *task.Task, errMsg string) error {
	t.State = task.StateFailure
	t.Error = errMsg
	return q.save(ctx, t)
}

func (q *Queue) save(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = time.Now()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if err := q.client.Set(ctx, taskPrefix+t.ID, data, recordTTL).Err(); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

// Get returns the current record for id, or nil if the store has none.
func (q *Queue) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := q.client.Get(ctx, taskPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var t task.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}

	return &t, nil
}

// List returns every record the store currently retains.
func (q *Queue) List(ctx context.Context) ([]*task.Task, error) {
	keys, err := q.client.Keys(ctx, taskPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if len(keys) == 0 {
		return []*task.Task{}, nil
	}

	pipe := q.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}

		var t task.Task
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		tasks = append(tasks, &t)
	}

	return tasks, nil
}
