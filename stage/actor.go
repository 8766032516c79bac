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

	"github.com/gabikliot/orbit/errors"
)

// Actor is implemented by user actor classes. Embed ActorBase to obtain the
// runtime handles and default hook implementations.
type Actor interface {
	// OnActivate runs after construction, state loading and pre-activation
	// hooks, before the first method invocation.
	OnActivate(ctx context.Context) error

	// OnDeactivate runs when the activation is evicted, after pre-deactivation
	// hooks.
	OnDeactivate(ctx context.Context) error
}

// runtimeBound is satisfied by actors embedding ActorBase; the runtime uses
// it to wire the reference and storage handles before activation.
type runtimeBound interface {
	bindRuntime(reference *ActorReference, storage StorageProvider)
	readState(ctx context.Context) error
}

// ActorBase carries the runtime handles of an activation. Actor
// implementations embed it and may override OnActivate / OnDeactivate.
type ActorBase struct {
	reference *ActorReference
	storage   StorageProvider
	state     any
}

// enforce compilation and linter error
var _ runtimeBound = (*ActorBase)(nil)

// OnActivate is the default no-op activation hook.
func (b *ActorBase) OnActivate(context.Context) error { return nil }

// OnDeactivate is the default no-op deactivation hook.
func (b *ActorBase) OnDeactivate(context.Context) error { return nil }

// Reference returns the reference describing this activation's identity.
func (b *ActorBase) Reference() *ActorReference {
	return b.reference
}

// Runtime returns the runtime hosting this activation.
func (b *ActorBase) Runtime() Runtime {
	if b.reference != nil && b.reference.runtime != nil {
		return b.reference.runtime
	}
	return DefaultRuntime()
}

// BindState registers the state record the storage provider loads before
// activation and persists on WriteState. Call it from the actor constructor.
func (b *ActorBase) BindState(state any) {
	b.state = state
}

// ReadState reloads the bound state record from the storage provider.
func (b *ActorBase) ReadState(ctx context.Context) error {
	if b.storage == nil {
		return errors.ErrNoStorageProvider
	}
	if b.state == nil {
		return nil
	}
	_, err := b.storage.ReadState(ctx, b.reference, b.state)
	return err
}

// WriteState persists the bound state record through the storage provider.
func (b *ActorBase) WriteState(ctx context.Context) error {
	if b.storage == nil {
		return errors.ErrNoStorageProvider
	}
	return b.storage.WriteState(ctx, b.reference, b.state)
}

// ClearState removes the persisted state of this activation.
func (b *ActorBase) ClearState(ctx context.Context) error {
	if b.storage == nil {
		return errors.ErrNoStorageProvider
	}
	return b.storage.ClearState(ctx, b.reference)
}

func (b *ActorBase) bindRuntime(reference *ActorReference, storage StorageProvider) {
	b.reference = reference
	b.storage = storage
}

func (b *ActorBase) readState(ctx context.Context) error {
	return b.ReadState(ctx)
}
