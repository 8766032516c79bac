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
	"time"

	"github.com/gabikliot/orbit/log"
)

// Option configures an Execution at construction time.
type Option func(x *Execution)

// WithLogger sets the logger of the runtime.
func WithLogger(logger log.Logger) Option {
	return func(x *Execution) {
		x.logger = logger
	}
}

// WithClock sets the time source of the runtime. Useful for tests driving
// idle eviction deterministically.
func WithClock(clock Clock) Option {
	return func(x *Execution) {
		x.clock = clock
	}
}

// WithExecutor installs a custom executor instead of the default bounded
// goroutine pool. The caller keeps ownership and must release it.
func WithExecutor(executor Executor) Option {
	return func(x *Execution) {
		x.executor = executor
	}
}

// WithMaxQueueSize bounds the pending execution queue of every key
// (default 10000).
func WithMaxQueueSize(size int) Option {
	return func(x *Execution) {
		x.maxQueueSize = size
	}
}

// WithCleanupInterval sets the period of the idle eviction scan
// (default 5 minutes).
func WithCleanupInterval(interval time.Duration) Option {
	return func(x *Execution) {
		x.cleanupInterval = interval
	}
}

// WithIdleTTL sets the idle timeout after which an activation is evictable
// (default 10 minutes).
func WithIdleTTL(ttl time.Duration) Option {
	return func(x *Execution) {
		x.idleTTL = ttl
	}
}

// WithTraceEnabled turns the pre/post invoke listener notifications on.
func WithTraceEnabled(enabled bool) Option {
	return func(x *Execution) {
		x.traceEnabled = enabled
	}
}

// WithLocator installs the cluster placement lookup used to resolve
// references carrying no address.
func WithLocator(locator Locator) Option {
	return func(x *Execution) {
		x.locator = locator
	}
}

// WithProviders installs the runtime extensions. Providers are started with
// the runtime and classified by the specialized interfaces they implement.
func WithProviders(providers ...Provider) Option {
	return func(x *Execution) {
		x.providers = append(x.providers, providers...)
	}
}
