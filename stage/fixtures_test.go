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
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/gabikliot/orbit/future"
)

// response is one SendResponse observed by the fake messenger.
type response struct {
	to        NodeAddress
	kind      ResponseKind
	messageID int32
	payload   any
}

// fakeMessenger records responses and outbound sends. failSends makes the
// next N SendResponse calls fail, exercising the degradation ladder.
type fakeMessenger struct {
	mu        sync.Mutex
	addr      NodeAddress
	responses []response
	attempts  int
	failSends int

	sent            []response
	timeoutCleanups atomic.Int32
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{addr: "local:3000"}
}

func (m *fakeMessenger) NodeAddress() NodeAddress { return m.addr }

func (m *fakeMessenger) SendMessage(_ context.Context, to NodeAddress, _ bool, _, methodID int32, actorID string, _ []any) *future.Future[any] {
	m.mu.Lock()
	m.sent = append(m.sent, response{to: to, messageID: methodID, payload: actorID})
	m.mu.Unlock()
	return future.Completed[any](nil)
}

func (m *fakeMessenger) SendResponse(to NodeAddress, kind ResponseKind, messageID int32, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failSends > 0 {
		m.failSends--
		return errTransport
	}
	m.responses = append(m.responses, response{to: to, kind: kind, messageID: messageID, payload: payload})
	return nil
}

func (m *fakeMessenger) TimeoutCleanup() { m.timeoutCleanups.Inc() }

func (m *fakeMessenger) responseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func (m *fakeMessenger) responseAt(i int) response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[i]
}

func (m *fakeMessenger) countKind(kind ResponseKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.responses {
		if r.kind == kind {
			count++
		}
	}
	return count
}

func (m *fakeMessenger) sendAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// invokeFn adapts a function into a MethodInvoker.
type invokeFn func(ctx context.Context, instance any, methodID int32, args []any) (any, error)

func (f invokeFn) Invoke(ctx context.Context, instance any, methodID int32, args []any) (any, error) {
	return f(ctx, instance, methodID, args)
}

// fakeFactory is a hand-written stand-in for a generated reference factory.
type fakeFactory struct {
	id        int32
	name      string
	observer  bool
	stateless bool
	handles   func(any) bool
	invoker   MethodInvoker
}

func (f *fakeFactory) InterfaceID() int32      { return f.id }
func (f *fakeFactory) InterfaceName() string   { return f.name }
func (f *fakeFactory) IsObserver() bool        { return f.observer }
func (f *fakeFactory) IsStatelessWorker() bool { return f.stateless }

func (f *fakeFactory) Handles(instance any) bool {
	if f.handles == nil {
		return false
	}
	return f.handles(instance)
}

func (f *fakeFactory) CreateReference(id string) *ActorReference {
	return NewReference(f.id, f.name, id)
}

func (f *fakeFactory) Invoker() MethodInvoker { return f.invoker }

// fakeFactoryProvider serves a static factory list.
type fakeFactoryProvider struct {
	factories []ActorFactory
}

func (p *fakeFactoryProvider) FactoryByID(interfaceID int32) (ActorFactory, bool) {
	for _, factory := range p.factories {
		if factory.InterfaceID() == interfaceID {
			return factory, true
		}
	}
	return nil, false
}

func (p *fakeFactoryProvider) FactoryByName(interfaceName string) (ActorFactory, bool) {
	for _, factory := range p.factories {
		if factory.InterfaceName() == interfaceName {
			return factory, true
		}
	}
	return nil, false
}

func (p *fakeFactoryProvider) Factories() []ActorFactory { return p.factories }

// noopProvider gives fixtures a default Provider implementation.
type noopProvider struct{}

func (noopProvider) Start(context.Context) error { return nil }
func (noopProvider) Stop(context.Context) error  { return nil }

// eventLog records lifecycle ordering across fixtures.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeLifetime records its hook invocations into the shared log.
type fakeLifetime struct {
	noopProvider
	name string
	log  *eventLog
}

func (p *fakeLifetime) PreActivation(context.Context, Actor) error {
	p.log.add("pre" + p.name)
	return nil
}

func (p *fakeLifetime) PostActivation(context.Context, Actor) error {
	p.log.add("post" + p.name)
	return nil
}

func (p *fakeLifetime) PreDeactivation(context.Context, Actor) error {
	p.log.add("preDeactivation" + p.name)
	return nil
}

func (p *fakeLifetime) PostDeactivation(context.Context, Actor) error {
	p.log.add("postDeactivation" + p.name)
	return nil
}

// fakeStorage records state reads into the shared log.
type fakeStorage struct {
	noopProvider
	log *eventLog
}

func (p *fakeStorage) ReadState(context.Context, *ActorReference, any) (bool, error) {
	if p.log != nil {
		p.log.add("readState")
	}
	return false, nil
}

func (p *fakeStorage) WriteState(context.Context, *ActorReference, any) error { return nil }
func (p *fakeStorage) ClearState(context.Context, *ActorReference) error      { return nil }

// fakeFinder serves constructors by interface name, counting lookups.
type fakeFinder struct {
	noopProvider
	impls   map[string]ActorConstructor
	lookups atomic.Int32
}

func (p *fakeFinder) FindActorImplementation(interfaceName string) (ActorConstructor, string, bool) {
	p.lookups.Inc()
	constructor, ok := p.impls[interfaceName]
	if !ok {
		return nil, "", false
	}
	return constructor, interfaceName + "Impl", true
}

// fakeLocator resolves every reference to a fixed address.
type fakeLocator struct {
	addr  NodeAddress
	calls atomic.Int32
}

func (l *fakeLocator) LocateActor(context.Context, *ActorReference) (NodeAddress, error) {
	l.calls.Inc()
	return l.addr, nil
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
