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
	"fmt"
	"sync"

	"github.com/gabikliot/orbit/errors"
)

// MethodInvoker dispatches an invocation to a user method located by its
// numeric id. Implementations are produced by an external code-generation
// step; the runtime never uses reflection to find methods.
type MethodInvoker interface {
	Invoke(ctx context.Context, instance any, methodID int32, args []any) (any, error)
}

// ActorFactory is the per-interface dispatch vocabulary produced by the
// factory provider: it constructs reference stubs and carries the generated
// method invoker together with the interface-level flags.
type ActorFactory interface {
	// InterfaceID returns the cluster-stable numeric id of the interface.
	InterfaceID() int32

	// InterfaceName returns the symbolic name of the interface.
	InterfaceName() string

	// IsObserver reports whether this is an observer interface rather than an
	// actor interface.
	IsObserver() bool

	// IsStatelessWorker reports whether the interface is annotated as a
	// stateless worker, permitting a pool of interchangeable activations per
	// identity.
	IsStatelessWorker() bool

	// Handles reports whether the given object implements this factory's
	// interface. Used to resolve hint-less observer installations.
	Handles(instance any) bool

	// CreateReference builds a reference stub for the given id.
	CreateReference(id string) *ActorReference

	// Invoker returns the generated method invoker for the interface.
	Invoker() MethodInvoker
}

// FactoryProvider resolves reference factories. It stands in for the
// generated registration code produced by the proxy code generator.
type FactoryProvider interface {
	FactoryByID(interfaceID int32) (ActorFactory, bool)
	FactoryByName(interfaceName string) (ActorFactory, bool)
	Factories() []ActorFactory
}

// InterfaceDescriptor holds everything the runtime knows about one actor or
// observer interface. Descriptors are built lazily, one per interface id, and
// cache the implementation lookup until the registry is rebuilt.
type InterfaceDescriptor struct {
	factory         ActorFactory
	invoker         MethodInvoker
	isObserver      bool
	statelessWorker bool

	mu             sync.Mutex
	implResolved   bool
	cannotActivate bool
	implName       string
	constructor    ActorConstructor
}

// InterfaceID returns the numeric id of the described interface.
func (d *InterfaceDescriptor) InterfaceID() int32 { return d.factory.InterfaceID() }

// InterfaceName returns the symbolic name of the described interface.
func (d *InterfaceDescriptor) InterfaceName() string { return d.factory.InterfaceName() }

// IsObserver reports whether the descriptor describes an observer interface.
func (d *InterfaceDescriptor) IsObserver() bool { return d.isObserver }

// IsStatelessWorker reports whether activations of this interface are pooled.
func (d *InterfaceDescriptor) IsStatelessWorker() bool { return d.statelessWorker }

// String returns the implementation name when resolved, the interface name
// otherwise.
func (d *InterfaceDescriptor) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.implName != "" {
		return d.implName
	}
	return d.factory.InterfaceName()
}

// resolveImplementation returns the constructor of the concrete actor class,
// consulting the finder at most once per descriptor. Once the lookup failed
// the negative result sticks until the descriptor is rebuilt.
func (d *InterfaceDescriptor) resolveImplementation(finder ImplementationFinder) (ActorConstructor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.implResolved {
		d.implResolved = true
		d.cannotActivate = true
		if finder != nil {
			if constructor, implName, ok := finder.FindActorImplementation(d.factory.InterfaceName()); ok {
				d.constructor = constructor
				d.implName = implName
				d.cannotActivate = false
			}
		}
	}
	if d.cannotActivate || d.constructor == nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrNoImplementation, d.factory.InterfaceName())
	}
	return d.constructor, nil
}

// canActivate reports whether a concrete implementation exists on this node,
// resolving it on first use.
func (d *InterfaceDescriptor) canActivate(finder ImplementationFinder) bool {
	_, err := d.resolveImplementation(finder)
	return err == nil
}

// interfaceRegistry maps interface ids to descriptors, building them lazily
// from the factory provider.
type interfaceRegistry struct {
	provider FactoryProvider
	mu       sync.RWMutex
	byID     map[int32]*InterfaceDescriptor
}

func newInterfaceRegistry(provider FactoryProvider) *interfaceRegistry {
	return &interfaceRegistry{
		provider: provider,
		byID:     make(map[int32]*InterfaceDescriptor),
	}
}

func (r *interfaceRegistry) descriptorByID(interfaceID int32) (*InterfaceDescriptor, error) {
	r.mu.RLock()
	descriptor, ok := r.byID[interfaceID]
	r.mu.RUnlock()
	if ok {
		return descriptor, nil
	}
	factory, ok := r.provider.FactoryByID(interfaceID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", errors.ErrUnknownInterface, interfaceID)
	}
	return r.descriptorFor(factory), nil
}

func (r *interfaceRegistry) descriptorByName(interfaceName string) (*InterfaceDescriptor, error) {
	factory, ok := r.provider.FactoryByName(interfaceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownInterface, interfaceName)
	}
	return r.descriptorFor(factory), nil
}

func (r *interfaceRegistry) descriptorFor(factory ActorFactory) *InterfaceDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if descriptor, ok := r.byID[factory.InterfaceID()]; ok {
		return descriptor
	}
	descriptor := &InterfaceDescriptor{
		factory:         factory,
		invoker:         factory.Invoker(),
		isObserver:      factory.IsObserver(),
		statelessWorker: factory.IsStatelessWorker(),
	}
	r.byID[factory.InterfaceID()] = descriptor
	return descriptor
}

// observerFactoryFor searches the registered factories for an observer
// interface the given object implements.
func (r *interfaceRegistry) observerFactoryFor(instance any) (ActorFactory, bool) {
	for _, factory := range r.provider.Factories() {
		if factory.IsObserver() && factory.Handles(instance) {
			return factory, true
		}
	}
	return nil, false
}
