package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pantry-service/internal/apperr"
)

// Task schedules one detection run.
type Task struct {
	JobID    string `json:"job_id"`
	ImageRef string `json:"image_ref"`
}

var (
	// ErrNoTask is returned by ClaimBlocking when nothing arrived in time.
	ErrNoTask = apperr.New("queue: no task available")

	// ErrQueueFull is returned by the in-process queue when its buffer is full.
	ErrQueueFull = apperr.New("queue: full")
)

type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	ClaimBlocking(ctx context.Context, timeout time.Duration) (Task, error)
	Ack(ctx context.Context, task Task) error
	RequeueStale(ctx context.Context, max int64) (int64, error)
}

// RedisQueue is a reliable queue on Redis lists.
//
//	Enqueue: LPUSH queue
//	Claim:   BRPOPLPUSH queue -> processing, claim time stored in <processing>:claims
//	Ack:     LREM processing, HDEL claims
//	Reaper:  tasks claimed longer than the visibility timeout go back to queue
//
// Delivery is at-least-once. The visibility timeout must exceed the detection
// timeout so a live worker never races a redelivered copy of its own task.
type RedisQueue struct {
	rdb           redis.Cmdable
	queueKey      string
	processingKey string
	claimsKey     string
	visibility    time.Duration
	now           func() time.Time
}

func NewRedisQueue(rdb redis.Cmdable, queueKey, processingKey string, visibility time.Duration) *RedisQueue {
	return &RedisQueue{
		rdb:           rdb,
		queueKey:      queueKey,
		processingKey: processingKey,
		claimsKey:     processingKey + ":claims",
		visibility:    visibility,
		now:           time.Now,
	}
}

func encodeTask(t Task) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", apperr.Wrap(err, "queue: encode task")
	}
	return string(b), nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.queueKey, payload).Err(); err != nil {
		return apperr.Wrap(err, "queue: lpush")
	}
	return nil
}

// ClaimBlocking waits up to timeout for a task. timeout <= 0 waits until ctx
// is done, in one second slots.
func (q *RedisQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (Task, error) {
	forever := timeout <= 0
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}
		wait := time.Second
		if !forever {
			remain := time.Until(deadline)
			if remain <= 0 {
				return Task{}, ErrNoTask
			}
			if remain < wait {
				wait = remain
			}
		}

		payload, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, wait).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return Task{}, apperr.Wrap(err, "queue: brpoplpush")
		}

		// remember claim time for the reaper
		claimedAt := strconv.FormatInt(q.now().UnixMilli(), 10)
		if err := q.rdb.HSet(ctx, q.claimsKey, payload, claimedAt).Err(); err != nil {
			return Task{}, apperr.Wrap(err, "queue: record claim")
		}

		var task Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil || task.JobID == "" {
			// poison message: drop it so it is not redelivered forever
			_ = q.ackPayload(ctx, payload)
			return Task{}, apperr.Newf("queue: dropped undecodable task %q", payload)
		}
		return task, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, task Task) error {
	payload, err := encodeTask(task)
	if err != nil {
		return err
	}
	return q.ackPayload(ctx, payload)
}

func (q *RedisQueue) ackPayload(ctx context.Context, payload string) error {
	if err := q.rdb.LRem(ctx, q.processingKey, 1, payload).Err(); err != nil {
		return apperr.Wrap(err, "queue: lrem")
	}
	_ = q.rdb.HDel(ctx, q.claimsKey, payload).Err()
	return nil
}

// requeueScript moves one payload from processing back to the consumer end of
// the queue, only if it is still in processing.
var requeueScript = redis.NewScript(`
local removed = redis.call('LREM', KEYS[1], 1, ARGV[1])
if removed > 0 then
  redis.call('RPUSH', KEYS[2], ARGV[1])
end
redis.call('HDEL', KEYS[3], ARGV[1])
return removed
`)

// RequeueStale returns up to max tasks whose claim is older than the
// visibility timeout. Tasks with no recorded claim time get one now and are
// considered on a later pass.
func (q *RedisQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	payloads, err := q.rdb.LRange(ctx, q.processingKey, 0, -1).Result()
	if err != nil {
		return 0, apperr.Wrap(err, "queue: lrange processing")
	}

	now := q.now()
	var moved int64
	// oldest claims sit at the tail
	for i := len(payloads) - 1; i >= 0 && moved < max; i-- {
		payload := payloads[i]

		raw, err := q.rdb.HGet(ctx, q.claimsKey, payload).Result()
		if errors.Is(err, redis.Nil) {
			_ = q.rdb.HSetNX(ctx, q.claimsKey, payload, strconv.FormatInt(now.UnixMilli(), 10)).Err()
			continue
		}
		if err != nil {
			return moved, apperr.Wrap(err, "queue: hget claim")
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && now.Sub(time.UnixMilli(ms)) < q.visibility {
			continue
		}

		n, err := requeueScript.Run(ctx, q.rdb, []string{q.processingKey, q.queueKey, q.claimsKey}, payload).Int64()
		if err != nil {
			return moved, apperr.Wrap(err, "queue: requeue")
		}
		moved += n
	}
	return moved, nil
}

// Depth reports queued and in-flight task counts.
func (q *RedisQueue) Depth(ctx context.Context) (queued, processing int64, err error) {
	if queued, err = q.rdb.LLen(ctx, q.queueKey).Result(); err != nil {
		return 0, 0, apperr.Wrap(err, "queue: llen")
	}
	if processing, err = q.rdb.LLen(ctx, q.processingKey).Result(); err != nil {
		return 0, 0, apperr.Wrap(err, "queue: llen")
	}
	return queued, processing, nil
}

// MemoryQueue is a buffered channel queue for single process deployments
// where the job store is in memory too. Nothing survives a restart, so Ack and
// RequeueStale have nothing to do.
type MemoryQueue struct {
	ch chan Task
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 128
	}
	return &MemoryQueue{ch: make(chan Task, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case q.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (Task, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case task := <-q.ch:
		return task, nil
	case <-timer:
		return Task{}, ErrNoTask
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(context.Context, Task) error { return nil }

func (q *MemoryQueue) RequeueStale(context.Context, int64) (int64, error) { return 0, nil }
