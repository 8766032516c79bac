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

	"go.uber.org/atomic"

	"github.com/gabikliot/orbit/log"
)

// ActivationState tracks where an activation is in its lifecycle.
type ActivationState int32

const (
	// ActivationVacant means the slot exists but holds no user instance yet.
	ActivationVacant ActivationState = iota
	// ActivationLive means the user instance is published and serving calls.
	ActivationLive
	// ActivationDeactivating means teardown hooks are running.
	ActivationDeactivating
	// ActivationRetired is terminal: teardown finished, eligible for removal.
	ActivationRetired
)

// Activation is a live (or about to be live) in-memory instance of an actor
// on this node. The instance field is only touched under the owning entry's
// execution slot; lastAccess is also read by the concurrent eviction scan.
type Activation struct {
	entry      *referenceEntry
	instance   Actor
	lastAccess atomic.Int64
	state      atomic.Int32
}

func newActivation(entry *referenceEntry, nowMillis int64) *Activation {
	activation := &Activation{entry: entry}
	activation.lastAccess.Store(nowMillis)
	return activation
}

// touch records the activation as used now.
func (a *Activation) touch(nowMillis int64) {
	a.lastAccess.Store(nowMillis)
}

// lastAccessMillis returns the last-use timestamp in milliseconds.
func (a *Activation) lastAccessMillis() int64 {
	return a.lastAccess.Load()
}

// State returns the lifecycle state of the activation.
func (a *Activation) State() ActivationState {
	return ActivationState(a.state.Load())
}

func (a *Activation) setState(state ActivationState) {
	a.state.Store(int32(state))
}

// referenceEntry is the registry record for an identity that has touched this
// node. Its flavor, singleton or stateless worker, never changes once
// created; a singleton entry holds at most one activation, a worker entry a
// LIFO pool of interchangeable ones. All activations under one entry share
// the same reference.
type referenceEntry struct {
	reference       *ActorReference
	descriptor      *InterfaceDescriptor
	statelessWorker bool
	removable       bool

	mu     sync.Mutex
	single *Activation
	// pool index 0 is the oldest activation, the tail the most recently
	// checked in; popping the tail biases reuse towards hot activations.
	pool []*Activation
}

// popActivation checks an activation out of the entry, creating a fresh
// vacant one bound to the entry when none is pooled. The caller must hold the
// entry's execution slot (singleton) or run under the unkeyed pool (worker).
func (e *referenceEntry) popActivation(nowMillis int64) *Activation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.statelessWorker {
		activation := e.single
		e.single = nil
		if activation != nil {
			return activation
		}
		return newActivation(e, nowMillis)
	}
	if n := len(e.pool); n > 0 {
		activation := e.pool[n-1]
		e.pool = e.pool[:n-1]
		return activation
	}
	return newActivation(e, nowMillis)
}

// pushActivation checks an activation back in. A singleton slot must be
// empty at this point; a second occupant indicates non-serial access and is
// logged before overwriting.
func (e *referenceEntry) pushActivation(activation *Activation, logger log.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.statelessWorker {
		if e.single != nil {
			logger.Errorf("there should be only one single activation! reference: %s", e.reference)
		}
		e.single = activation
		return
	}
	e.pool = append(e.pool, activation)
}

// peekOldActivation returns the activation the eviction scan should examine:
// the single slot for singletons, the least recently checked in pooled
// activation for workers. It does not check anything out.
func (e *referenceEntry) peekOldActivation() *Activation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.statelessWorker {
		return e.single
	}
	if len(e.pool) == 0 {
		return nil
	}
	return e.pool[0]
}

// popOldest removes and returns the oldest pooled activation, or nil when the
// pool is empty. Worker entries only.
func (e *referenceEntry) popOldest() *Activation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pool) == 0 {
		return nil
	}
	activation := e.pool[0]
	e.pool = e.pool[1:]
	return activation
}

// poolSize returns the number of pooled activations. Worker entries only.
func (e *referenceEntry) poolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}
