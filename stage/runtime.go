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
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/gabikliot/orbit/future"
)

// Runtime is the surface actor and observer code sees of the node hosting it.
type Runtime interface {
	// RuntimeIdentity returns the unique identity string of this runtime.
	RuntimeIdentity() string

	// Clock returns the time source of this runtime.
	Clock() Clock

	// GetReference produces an actor reference bound to this runtime. No
	// network activity is involved.
	GetReference(interfaceID int32, id string) (*ActorReference, error)

	// GetObjectReference installs the observer into this node letting the
	// runtime choose the id, and returns a remote reference for it.
	GetObjectReference(interfaceHint int32, observer any) (*ActorReference, error)

	// GetObserverReference installs the observer into this node with the
	// given id and returns a remote reference for it.
	GetObserverReference(interfaceHint int32, observer any, id string) (*ActorReference, error)

	// Invoke issues an outbound invocation on the given reference.
	Invoke(ctx context.Context, target *ActorReference, oneWay bool, methodID int32, args []any) *future.Future[any]

	// RegisterTimer schedules a repeating callback running under the actor's
	// execution slot.
	RegisterTimer(actor Actor, callback TimerFunc, dueTime, period time.Duration) (TimerRegistration, error)

	// RegisterReminder registers a durable timer with the reminder
	// controller actor.
	RegisterReminder(ctx context.Context, actor *ActorReference, reminderName string, dueTime, period time.Duration) *future.Future[any]

	// UnregisterReminder removes a durable timer from the reminder
	// controller actor.
	UnregisterReminder(ctx context.Context, actor *ActorReference, reminderName string) *future.Future[any]

	// Bind makes this runtime the process default.
	Bind()

	// BindObject rebinds the given actor reference to this runtime.
	BindObject(object any) error
}

// the last runtime created is the default.
var defaultRuntime atomic.Value

// DefaultRuntime returns the process-default runtime, or nil when none has
// been created yet.
func DefaultRuntime() Runtime {
	value := defaultRuntime.Load()
	if value == nil {
		return nil
	}
	runtime, _ := value.(Runtime)
	return runtime
}

func setDefaultRuntime(runtime Runtime) {
	defaultRuntime.Store(runtime)
}

// Clock is the pluggable time source of a runtime.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
