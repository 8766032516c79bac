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

// Package future provides a single-assignment container for a value that may
// not be available yet, used to model in-flight remote invocations.
package future

import (
	"context"
	"sync"
)

// Future represents a value which may or may not currently be available,
// but will be available at some point in the future, or an error if that
// value could not be made available.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	callbacks []func(T, error)
}

// Promise is the writable, single-assignment side of a Future.
type Promise[T any] struct {
	once   sync.Once
	future *Future[T]
}

// NewPromise returns a new Promise with an unresolved Future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: &Future[T]{done: make(chan struct{})},
	}
}

// Success completes the underlying Future with a given value.
func (p *Promise[T]) Success(value T) {
	p.once.Do(func() {
		p.future.complete(value, nil)
	})
}

// Failure fails the underlying Future with a given error.
func (p *Promise[T]) Failure(err error) {
	p.once.Do(func() {
		var zero T
		p.future.complete(zero, err)
	})
}

// Future returns the underlying Future.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Go runs the given task asynchronously and returns a Future completed with
// the task's result.
func Go[T any](task func() (T, error)) *Future[T] {
	promise := NewPromise[T]()
	go func() {
		value, err := task()
		if err != nil {
			promise.Failure(err)
			return
		}
		promise.Success(value)
	}()
	return promise.Future()
}

// Completed returns a Future already completed with the given value.
func Completed[T any](value T) *Future[T] {
	promise := NewPromise[T]()
	promise.Success(value)
	return promise.Future()
}

// Failed returns a Future already failed with the given error.
func Failed[T any](err error) *Future[T] {
	promise := NewPromise[T]()
	promise.Failure(err)
	return promise.Future()
}

// Await blocks until the Future is completed or the context is canceled and
// returns either a result or an error.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the Future is completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsCompleted reports whether the Future already holds a result.
func (f *Future[T]) IsCompleted() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// OnComplete registers a callback invoked once the Future completes. When the
// Future is already completed, the callback runs immediately on the calling
// goroutine; otherwise it runs on the completing goroutine.
func (f *Future[T]) OnComplete(callback func(T, error)) {
	f.mu.Lock()
	if !f.IsCompleted() {
		f.callbacks = append(f.callbacks, callback)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	callback(f.value, f.err)
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	f.value = value
	f.err = err
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, callback := range callbacks {
		callback(value, err)
	}
}
