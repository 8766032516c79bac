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

	"github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/future"
)

// ActorReference is the addressable stub describing an actor or observer
// identity. Generated reference proxies wrap one and funnel their method
// calls through Invoke. A reference carries no network state beyond an
// optionally resolved node address.
type ActorReference struct {
	interfaceID   int32
	interfaceName string
	id            string
	address       NodeAddress
	runtime       Runtime
}

// NewReference builds a reference for the given interface and id. Generated
// factories call this; application code normally obtains references through
// the runtime instead.
func NewReference(interfaceID int32, interfaceName, id string) *ActorReference {
	return &ActorReference{
		interfaceID:   interfaceID,
		interfaceName: interfaceName,
		id:            id,
	}
}

// InterfaceID returns the cluster-stable numeric id of the interface.
func (r *ActorReference) InterfaceID() int32 {
	return r.interfaceID
}

// InterfaceName returns the symbolic name of the interface.
func (r *ActorReference) InterfaceName() string {
	return r.interfaceName
}

// ID returns the actor id. It is empty for singleton-per-interface actors.
func (r *ActorReference) ID() string {
	return r.id
}

// Address returns the resolved node address, or NoAddress when the target
// node is not known and must be located.
func (r *ActorReference) Address() NodeAddress {
	return r.address
}

// Identity returns the registry key of this reference.
func (r *ActorReference) Identity() EntryKey {
	return EntryKey{InterfaceID: r.interfaceID, ID: r.id}
}

// Runtime returns the runtime this reference is bound to, falling back to the
// process-default runtime.
func (r *ActorReference) Runtime() Runtime {
	if r.runtime != nil {
		return r.runtime
	}
	return DefaultRuntime()
}

// Invoke issues a method invocation on the target of this reference through
// the bound runtime. Generated proxies are thin wrappers over this call.
func (r *ActorReference) Invoke(ctx context.Context, oneWay bool, methodID int32, args ...any) *future.Future[any] {
	runtime := r.Runtime()
	if runtime == nil {
		return future.Failed[any](errors.ErrNotStarted)
	}
	return runtime.Invoke(ctx, r, oneWay, methodID, args)
}

// String returns the textual form of the reference.
func (r *ActorReference) String() string {
	return fmt.Sprintf("%s:%s", r.interfaceName, r.id)
}
