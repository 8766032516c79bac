/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package stage

import (
	"sync"

	"github.com/gabikliot/orbit/log"
)

// Job is a unit of serialized work. A job runs to completion on an executor
// goroutine; jobs for the same key must not block on each other.
type Job func() error

// ExecutionSerializer is a per-key FIFO work-queueing subsystem (it has
// nothing to do with wire-format serialization). At most one job per key is
// running at any instant and jobs for a key are processed in enqueue order;
// distinct keys run in parallel, bounded only by the executor width.
type ExecutionSerializer struct {
	executor Executor
	logger   log.Logger

	mu     sync.Mutex
	queues map[any]*jobQueue
}

type jobQueue struct {
	jobs []Job
}

// NewExecutionSerializer creates a serializer draining onto the given
// executor.
func NewExecutionSerializer(executor Executor, logger log.Logger) *ExecutionSerializer {
	return &ExecutionSerializer{
		executor: executor,
		logger:   logger,
		queues:   make(map[any]*jobQueue),
	}
}

// Offer enqueues the job under the given key and reports whether it was
// accepted. A nil key means no ordering is required and the job runs directly
// on the executor. When the pending queue of the key already holds maxDepth
// jobs the offer is refused and nothing is enqueued.
func (s *ExecutionSerializer) Offer(key any, job Job, maxDepth int) bool {
	if key == nil {
		if err := s.executor.Submit(func() { s.run(job) }); err != nil {
			s.logger.Errorf("failed to submit unkeyed job: %v", err)
			return false
		}
		return true
	}

	s.mu.Lock()
	queue, ok := s.queues[key]
	if !ok {
		queue = &jobQueue{jobs: []Job{job}}
		s.queues[key] = queue
		s.mu.Unlock()
		if err := s.executor.Submit(func() { s.drain(key, queue) }); err != nil {
			s.logger.Errorf("failed to submit drain worker for key %v: %v", key, err)
			s.mu.Lock()
			delete(s.queues, key)
			s.mu.Unlock()
			return false
		}
		return true
	}
	if len(queue.jobs) >= maxDepth {
		s.mu.Unlock()
		return false
	}
	queue.jobs = append(queue.jobs, job)
	s.mu.Unlock()
	return true
}

// drain processes jobs for one key sequentially. When the queue runs empty
// the entry is removed; a subsequent Offer reinstates it with a new worker.
func (s *ExecutionSerializer) drain(key any, queue *jobQueue) {
	for {
		s.mu.Lock()
		if len(queue.jobs) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		job := queue.jobs[0]
		queue.jobs = queue.jobs[1:]
		s.mu.Unlock()

		s.run(job)
	}
}

// run executes one job, isolating the queue from its errors and panics.
func (s *ExecutionSerializer) run(job Job) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Errorf("panic in serialized job: %v", recovered)
		}
	}()
	if err := job(); err != nil {
		s.logger.Errorf("error in serialized job: %v", err)
	}
}

// pendingJobs returns the number of queued jobs for the key, excluding a job
// currently running.
func (s *ExecutionSerializer) pendingJobs(key any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[key]
	if !ok {
		return 0
	}
	return len(queue.jobs)
}
