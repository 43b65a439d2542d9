package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/podushkina/mailqueue/internal/mail"
	"github.com/podushkina/mailqueue/internal/queue"
	"github.com/podushkina/mailqueue/internal/task"
)

// Verdict is the executor's classification of a finished send attempt. The
// supervising loop acts on it: write the terminal outcome or reschedule.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictRetry
	VerdictFail
)

// Classify decides what to do with an attempt that ended with err. Retries
// are granted until the task's budget is spent; the final failed attempt
// becomes the terminal FAILURE.
func Classify(t *task.Task, err error) Verdict {
	if err == nil {
		return VerdictOK
	}
	if t.Retries < t.MaxRetry {
		return VerdictRetry
	}
	return VerdictFail
}

// Options configures a Pool. Zero values fall back to defaults.
type Options struct {
	Workers      int
	From         string
	RetryDelay   time.Duration
	PromoteEvery time.Duration
}

// Pool runs the email executors: N workers claim invocations off the queue
// and one scheduler goroutine promotes retries whose backoff has elapsed.
type Pool struct {
	queue  *queue.Queue
	sender mail.Sender
	log    *slog.Logger
	opts   Options
	wg     sync.WaitGroup
}

func NewPool(q *queue.Queue, sender mail.Sender, log *slog.Logger, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 60 * time.Second
	}
	if opts.PromoteEvery <= 0 {
		opts.PromoteEvery = time.Second
	}
	return &Pool{
		queue:  q,
		sender: sender,
		log:    log,
		opts:   opts,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.wg.Add(1)
	go p.scheduler(ctx)
	p.log.Info("workers started", "count", p.opts.Workers)
}

func (p *Pool) Stop() {
	p.wg.Wait()
	p.log.Info("all workers stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			t, err := p.queue.Claim(ctx, 2*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.log.Error("claim failed", "worker", id, "error", err)
				continue
			}

			if t == nil {
				continue
			}

			p.process(ctx, id, t)
		}
	}
}

// scheduler moves due retries back onto the pending list so that no worker
// sits out the backoff delay.
func (p *Pool) scheduler(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.PromoteEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.queue.PromoteDue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.log.Error("promote due retries failed", "error", err)
				continue
			}
			if n > 0 {
				p.log.Info("retries promoted", "count", n)
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, t *task.Task) {
	log := p.log.With("worker", workerID, "task_id", t.ID, "recipient", t.Recipient)
	log.Info("attempt started", "attempt", t.Retries+1)

	if err := p.queue.SetState(ctx, t, task.StateStarted); err != nil {
		log.Error("record STARTED failed", "error", err)
	}

	sendErr := p.sender.Send(ctx, mail.Compose(p.opts.From, t.Recipient))

	switch Classify(t, sendErr) {
	case VerdictOK:
		if err := p.queue.Complete(ctx, t); err != nil {
			log.Error("record outcome failed", "error", err)
			return
		}
		log.Info("email sent")
	case VerdictRetry:
		if err := p.queue.ScheduleRetry(ctx, t, p.opts.RetryDelay); err != nil {
			log.Error("schedule retry failed", "error", err)
			return
		}
		log.Warn("attempt failed, retry scheduled",
			"error", sendErr, "retries", t.Retries, "max_retry", t.MaxRetry, "delay", p.opts.RetryDelay)
	case VerdictFail:
		if err := p.queue.Fail(ctx, t, sendErr.Error()); err != nil {
			log.Error("record outcome failed", "error", err)
			return
		}
		log.Error("retries exhausted, task failed", "error", sendErr)
	}
}
