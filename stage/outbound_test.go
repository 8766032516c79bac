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
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orbiterrors "github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/future"
)

func TestInvokeWithResolvedAddress(t *testing.T) {
	x, messenger := newTestRuntime(t, &fakeFactoryProvider{})

	target := NewReference(3, "IRemote", "r")
	target.address = "other:5000"
	_, err := x.Invoke(context.Background(), target, false, 2, []any{"arg"}).Await(context.Background())
	require.NoError(t, err)

	messenger.mu.Lock()
	defer messenger.mu.Unlock()
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, NodeAddress("other:5000"), messenger.sent[0].to)
}

func TestInvokeResolvesThroughLocator(t *testing.T) {
	locator := &fakeLocator{addr: "located:6000"}
	x, messenger := newTestRuntime(t, &fakeFactoryProvider{}, WithLocator(locator))

	target := NewReference(3, "IRemote", "r")
	_, err := x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, locator.calls.Load())
	messenger.mu.Lock()
	assert.Equal(t, NodeAddress("located:6000"), messenger.sent[0].to)
	messenger.mu.Unlock()

	// the address is not cached on the reference: later calls resolve again.
	assert.Equal(t, NoAddress, target.Address())
	_, err = x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, locator.calls.Load())
}

func TestInvokeWithoutLocatorFails(t *testing.T) {
	x, _ := newTestRuntime(t, &fakeFactoryProvider{})

	target := NewReference(3, "IRemote", "r")
	_, err := x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	assert.ErrorIs(t, err, orbiterrors.ErrNoLocator)
}

// recordingListener captures pre/post invoke notifications.
type recordingListener struct {
	noopProvider
	mu   sync.Mutex
	pre  []string
	post []int64
}

func (l *recordingListener) PreInvoke(_ int64, sourceInterface, sourceID, targetInterface, targetID string, _ int32, _ []any) {
	l.mu.Lock()
	l.pre = append(l.pre, sourceInterface+":"+sourceID+"->"+targetInterface+":"+targetID)
	l.mu.Unlock()
}

func (l *recordingListener) PostInvoke(traceID int64, _ any) {
	l.mu.Lock()
	l.post = append(l.post, traceID)
	l.mu.Unlock()
}

func TestInvokeListenersFireWhenTracing(t *testing.T) {
	listener := &recordingListener{}
	invoker := invokeFn(func(ctx context.Context, _ any, _ int32, _ []any) (any, error) {
		// an outbound call issued from inside a method carries the source.
		runtime := RuntimeFromContext(ctx)
		target := NewReference(3, "IRemote", "r")
		target.address = "other:5000"
		return runtime.Invoke(ctx, target, false, 2, nil).Await(ctx)
	})
	provider, finder := singletonFixture(invoker)
	x, messenger := newTestRuntime(t, provider,
		WithProviders(finder, listener), WithTraceEnabled(true))

	x.OnMessageReceived(callerNode, false, 1, testInterfaceID, 1, "a", nil)
	require.Eventually(t, func() bool { return messenger.responseCount() == 1 }, 5*time.Second, time.Millisecond)

	listener.mu.Lock()
	defer listener.mu.Unlock()
	require.Len(t, listener.pre, 1)
	assert.Equal(t, "ITestActor:a->IRemote:r", listener.pre[0])
	require.NotEmpty(t, listener.post)
}

func TestInvokeListenersSilentWithoutTracing(t *testing.T) {
	listener := &recordingListener{}
	x, _ := newTestRuntime(t, &fakeFactoryProvider{}, WithProviders(listener))

	target := NewReference(3, "IRemote", "r")
	target.address = "other:5000"
	_, err := x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	require.NoError(t, err)

	listener.mu.Lock()
	defer listener.mu.Unlock()
	assert.Empty(t, listener.pre)
	assert.Empty(t, listener.post)
}

// hookProvider takes over outbound delivery entirely.
type hookProvider struct {
	noopProvider
	calls int
	fail  error
}

func (h *hookProvider) Invoke(context.Context, Runtime, *ActorReference, bool, int32, []any) *future.Future[any] {
	h.calls++
	if h.fail != nil {
		return future.Failed[any](h.fail)
	}
	return future.Completed[any]("hooked")
}

func TestInvokeHookTakesOver(t *testing.T) {
	hook := &hookProvider{}
	x, messenger := newTestRuntime(t, &fakeFactoryProvider{}, WithProviders(hook))

	target := NewReference(3, "IRemote", "r")
	target.address = "other:5000"
	result, err := x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hooked", result)
	assert.Equal(t, 1, hook.calls)

	messenger.mu.Lock()
	assert.Empty(t, messenger.sent, "the hook bypasses the messenger")
	messenger.mu.Unlock()
}

func TestInvokeHookErrorsFlowThroughTheFuture(t *testing.T) {
	boom := stderrors.New("hook boom")
	hook := &hookProvider{fail: boom}
	x, _ := newTestRuntime(t, &fakeFactoryProvider{}, WithProviders(hook))

	target := NewReference(3, "IRemote", "r")
	_, err := x.Invoke(context.Background(), target, false, 2, nil).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestReferenceInvokeRoutesThroughRuntime(t *testing.T) {
	x, messenger := newTestRuntime(t, &fakeFactoryProvider{})

	target := NewReference(3, "IRemote", "r")
	target.address = "other:5000"
	require.NoError(t, x.BindObject(target))

	_, err := target.Invoke(context.Background(), false, 2, "x").Await(context.Background())
	require.NoError(t, err)
	messenger.mu.Lock()
	assert.Len(t, messenger.sent, 1)
	messenger.mu.Unlock()
}
