// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import "sync/atomic"

// Scheduler defers work from interrupt context to a task.
type Scheduler interface {
	// Schedule arranges for fn(arg) to run later in task context. It must
	// neither allocate nor block, and returns false when the work could not
	// be scheduled.
	Schedule(fn func(uint32), arg uint32) bool
}

// queueLen is the number of deferred calls that can be pending.
const queueLen = 8

type call struct {
	fn  func(uint32)
	arg uint32
}

// Queue is a fixed size single producer, single consumer queue of deferred
// calls. Schedule is the producer and may be called from interrupt context;
// Run is the consumer.
type Queue struct {
	calls [queueLen]call
	head  atomic.Uint32 // next slot Run reads
	tail  atomic.Uint32 // next slot Schedule writes
	ready chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Schedule implements Scheduler.
func (q *Queue) Schedule(fn func(uint32), arg uint32) bool {
	t := q.tail.Load()
	if t-q.head.Load() == queueLen {
		return false
	}
	q.calls[t%queueLen] = call{fn: fn, arg: arg}
	q.tail.Store(t + 1)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready is signaled after Schedule queued a call.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Run executes the pending calls and returns how many ran.
func (q *Queue) Run() int {
	n := 0
	for h := q.head.Load(); h != q.tail.Load(); h++ {
		c := &q.calls[h%queueLen]
		fn, arg := c.fn, c.arg
		*c = call{}
		q.head.Store(h + 1)
		fn(arg)
		n++
	}
	return n
}
