package command

import (
	"sync"
	"sync/atomic"
)

// QueueConfig controls the intake buffer sizing.
type QueueConfig struct {
	BufferSize int
}

// DefaultQueueConfig returns sane defaults for the command queue.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{BufferSize: 256}
}

// Queue buffers Commands between the request-handling goroutines (HTTP/WS)
// and the simulation's own tick loop. Unlike the chat command queue this
// has a single consumer: the tick loop drains everything pending once per
// tick rather than a pool of workers racing the sim's single-threaded
// state. Enqueue is therefore the only concurrent-safe entry point;
// Drain must only ever be called from the tick-owning goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []Command
	cap     int

	enqueued atomic.Int64
	dropped  atomic.Int64
	drained  atomic.Int64
}

// NewQueue builds a Queue with the given configuration.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultQueueConfig().BufferSize
	}
	return &Queue{cap: cfg.BufferSize}
}

// Enqueue appends cmd if the buffer has room, reporting whether it was
// accepted. A full queue drops the command rather than blocking the
// caller, mirroring the chat queue's backpressure-by-dropping policy.
func (q *Queue) Enqueue(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) >= q.cap {
		q.dropped.Add(1)
		return false
	}
	q.pending = append(q.pending, cmd)
	q.enqueued.Add(1)
	return true
}

// Drain removes and returns every pending command in arrival order. The
// tick loop calls this once per tick and applies each command in turn
// before advancing the clock.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	q.drained.Add(int64(len(out)))
	return out
}

// Len reports the number of commands currently buffered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// QueueStats is a point-in-time snapshot of queue throughput, surfaced
// the same way the chat queue exposes Stats() for observability.
type QueueStats struct {
	Enqueued int64
	Dropped  int64
	Drained  int64
	Pending  int
}

// Stats returns a snapshot of the queue's counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
		Drained:  q.drained.Load(),
		Pending:  q.Len(),
	}
}
