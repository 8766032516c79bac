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
	"github.com/panjf2000/ants/v2"
)

// Executor runs the jobs submitted by the execution serializer. The default
// implementation is a bounded goroutine pool; a custom one can be installed
// with WithExecutor.
type Executor interface {
	// Submit schedules the task for execution.
	Submit(task func()) error

	// Release shuts the executor down.
	Release()
}

// defaultExecutorWidth bounds the default goroutine pool.
const defaultExecutorWidth = 1000

type antsExecutor struct {
	pool *ants.Pool
}

// enforce compilation and linter error
var _ Executor = (*antsExecutor)(nil)

// NewExecutorPool returns an Executor backed by a goroutine pool of the given
// width.
func NewExecutorPool(width int) (Executor, error) {
	pool, err := ants.NewPool(width)
	if err != nil {
		return nil, err
	}
	return &antsExecutor{pool: pool}, nil
}

func (e *antsExecutor) Submit(task func()) error {
	return e.pool.Submit(task)
}

func (e *antsExecutor) Release() {
	e.pool.Release()
}
