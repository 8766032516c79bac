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

	"github.com/gabikliot/orbit/future"
)

// Provider is an extension started and stopped with the runtime. Specialized
// provider interfaces embed it; a single provider object may implement
// several of them.
type Provider interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ActorConstructor builds a fresh, unbound actor instance.
type ActorConstructor func() Actor

// ImplementationFinder resolves the concrete actor implementation hosted on
// this node for an interface. A negative answer is cached by the descriptor.
type ImplementationFinder interface {
	Provider

	// FindActorImplementation returns the constructor and name of the
	// implementation of the given interface, or false when none exists on
	// this node.
	FindActorImplementation(interfaceName string) (ActorConstructor, string, bool)
}

// LifetimeProvider observes and participates in activation lifecycle. Hooks
// run sequentially in provider order; a failing pre-activation, state read or
// OnActivate aborts the activation.
type LifetimeProvider interface {
	Provider

	PreActivation(ctx context.Context, actor Actor) error
	PostActivation(ctx context.Context, actor Actor) error
	PreDeactivation(ctx context.Context, actor Actor) error
	PostDeactivation(ctx context.Context, actor Actor) error
}

// StorageProvider persists actor state. The first storage provider installed
// on the runtime is bound to every activation.
type StorageProvider interface {
	Provider

	// ReadState loads the persisted state of the reference into state. It
	// reports false when no state has been persisted yet.
	ReadState(ctx context.Context, reference *ActorReference, state any) (bool, error)

	// WriteState persists the state of the reference.
	WriteState(ctx context.Context, reference *ActorReference, state any) error

	// ClearState removes the persisted state of the reference.
	ClearState(ctx context.Context, reference *ActorReference) error
}

// InvokeListenerProvider is notified around outbound invocations when tracing
// is enabled.
type InvokeListenerProvider interface {
	Provider

	PreInvoke(traceID int64, sourceInterface, sourceID, targetInterface, targetID string, methodID int32, args []any)
	PostInvoke(traceID int64, result any)
}

// InvokeHookProvider fully takes over outbound invocations when installed.
type InvokeHookProvider interface {
	Provider

	Invoke(ctx context.Context, runtime Runtime, target *ActorReference, oneWay bool, methodID int32, args []any) *future.Future[any]
}
