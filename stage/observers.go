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

	"github.com/google/uuid"

	"github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/internal/weakref"
	"github.com/gabikliot/orbit/log"
)

// observerBinding ties a local observer object to its remote-addressable
// reference. The observer itself is held weakly: installing it must not keep
// it alive.
type observerBinding struct {
	key       EntryKey
	observer  weakref.Ref
	reference *ActorReference
}

// observerRegistry is the weakly-keyed bidirectional map between local
// observer objects and their references. Dead slots are dropped on access
// probing and by the periodic compaction run with the eviction scan.
type observerRegistry struct {
	logger log.Logger

	mu         sync.RWMutex
	byKey      map[EntryKey]*observerBinding
	byObserver map[uintptr]*observerBinding
}

func newObserverRegistry(logger log.Logger) *observerRegistry {
	return &observerRegistry{
		logger:     logger,
		byKey:      make(map[EntryKey]*observerBinding),
		byObserver: make(map[uintptr]*observerBinding),
	}
}

// lookup returns the live observer object installed under the key.
func (r *observerRegistry) lookup(key EntryKey) (any, bool) {
	r.mu.RLock()
	binding, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	observer := binding.observer.Value()
	if observer == nil {
		r.remove(binding)
		return nil, false
	}
	return observer, true
}

// bindingFor returns the live binding of the given observer object, dropping
// a stale slot whose address has been reused after collection.
func (r *observerRegistry) bindingFor(observer any, id uintptr) (*observerBinding, bool) {
	r.mu.RLock()
	binding, ok := r.byObserver[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if current := binding.observer.Value(); current == nil || current != observer {
		r.remove(binding)
		return nil, false
	}
	return binding, true
}

func (r *observerRegistry) remove(binding *observerBinding) {
	r.mu.Lock()
	if r.byKey[binding.key] == binding {
		delete(r.byKey, binding.key)
	}
	if r.byObserver[binding.observer.ID()] == binding {
		delete(r.byObserver, binding.observer.ID())
	}
	r.mu.Unlock()
}

// compact drops every binding whose observer has been collected.
func (r *observerRegistry) compact() {
	r.mu.Lock()
	for key, binding := range r.byKey {
		if !binding.observer.Alive() {
			delete(r.byKey, key)
			delete(r.byObserver, binding.observer.ID())
		}
	}
	r.mu.Unlock()
}

// GetObjectReference installs the observer into this node and returns a
// remote reference for it. Can be called several times; the object is
// registered only once. The interface hint may be zero when the observer
// implements a single registered observer interface.
func (x *Execution) GetObjectReference(interfaceHint int32, observer any) (*ActorReference, error) {
	return x.installObserver(interfaceHint, observer, "", false)
}

// GetObserverReference installs the observer into this node with the given
// id. If called twice for the same observer the ids must match. Usually it is
// recommended to let the runtime choose the id.
func (x *Execution) GetObserverReference(interfaceHint int32, observer any, id string) (*ActorReference, error) {
	return x.installObserver(interfaceHint, observer, id, true)
}

func (x *Execution) installObserver(interfaceHint int32, observer any, id string, hasID bool) (*ActorReference, error) {
	ref, ok := weakref.Make(observer)
	if !ok {
		return nil, errors.ErrInvalidObserver
	}

	if binding, ok := x.observers.bindingFor(observer, ref.ID()); ok {
		if hasID && id != binding.reference.id {
			return nil, errors.ErrObserverIDMismatch
		}
		return binding.reference, nil
	}

	var factory ActorFactory
	if interfaceHint != 0 {
		descriptor, err := x.interfaces.descriptorByID(interfaceHint)
		if err != nil {
			return nil, err
		}
		factory = descriptor.factory
	} else {
		var found bool
		factory, found = x.interfaces.observerFactoryFor(observer)
		if !found {
			return nil, errors.ErrNoFactory
		}
	}

	generated := !hasID
	if generated {
		id = uuid.NewString()
	}
	key := EntryKey{InterfaceID: factory.InterfaceID(), ID: id}

	x.observers.mu.Lock()
	if existing, ok := x.observers.byKey[key]; ok {
		if current := existing.observer.Value(); current != nil {
			if current != observer {
				x.observers.mu.Unlock()
				return nil, errors.ErrObserverIDClash
			}
			x.observers.mu.Unlock()
			return existing.reference, nil
		}
		// the previous occupant has been collected, reclaim the slot.
		delete(x.observers.byObserver, existing.observer.ID())
	}

	reference := factory.CreateReference(id)
	reference.runtime = x
	if generated {
		// auto-generated ids route remote callers back to this node.
		reference.address = x.messenger.NodeAddress()
	}

	binding := &observerBinding{key: key, observer: ref, reference: reference}
	x.observers.byKey[key] = binding
	x.observers.byObserver[ref.ID()] = binding
	x.observers.mu.Unlock()

	return reference, nil
}
