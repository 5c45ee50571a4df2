package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pantry-service/internal/service"
)

// TaskProcessor is implemented by Processor.
type TaskProcessor interface {
	Process(ctx context.Context, task service.Task) error
}

type Pool struct {
	queue      service.Queue
	processor  TaskProcessor
	workers    int
	claimDelay time.Duration
	log        zerolog.Logger
}

func NewPool(queue service.Queue, processor TaskProcessor, workers int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{
		queue:      queue,
		processor:  processor,
		workers:    workers,
		claimDelay: 5 * time.Second,
		log:        log.With().Str("component", "pool").Logger(),
	}
}

// Run claims tasks and fans them out to the workers until ctx is done. It
// returns after in-flight tasks finish.
func (p *Pool) Run(ctx context.Context) {
	p.log.Info().Int("workers", p.workers).Msg("worker pool started")

	taskCh := make(chan service.Task)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l := p.log.With().Int("worker", n).Logger()
			for task := range taskCh {
				if err := p.processor.Process(ctx, task); err != nil {
					// not acked: the reaper requeues it after the visibility timeout
					l.Error().Err(err).Str("job_id", task.JobID).Msg("process task")
					continue
				}
				// ack with a fresh context so shutdown does not strand a finished task
				ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				if err := p.queue.Ack(ackCtx, task); err != nil {
					l.Error().Err(err).Str("job_id", task.JobID).Msg("ack task")
				}
				cancel()
			}
		}(i + 1)
	}

	defer func() {
		close(taskCh)
		wg.Wait()
		p.log.Info().Msg("worker pool stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		task, err := p.queue.ClaimBlocking(ctx, p.claimDelay)
		if err != nil {
			if errors.Is(err, service.ErrNoTask) || ctx.Err() != nil {
				continue
			}
			p.log.Error().Err(err).Msg("claim task")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}
		select {
		case taskCh <- task:
		case <-ctx.Done():
			// claimed but never handed out; the reaper returns it
			return
		}
	}
}

// Reaper periodically returns tasks stuck in processing to the queue.
type Reaper struct {
	queue    service.Queue
	interval time.Duration
	batch    int64
	log      zerolog.Logger
}

func NewReaper(queue service.Queue, interval time.Duration, log zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		queue:    queue,
		interval: interval,
		batch:    100,
		log:      log.With().Str("component", "reaper").Logger(),
	}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one requeue pass.
func (r *Reaper) Tick(ctx context.Context) int64 {
	n, err := r.queue.RequeueStale(ctx, r.batch)
	if err != nil {
		r.log.Error().Err(err).Msg("requeue stale tasks")
	}
	if n > 0 {
		r.log.Warn().Int64("requeued", n).Msg("requeued tasks from processing")
	}
	return n
}
