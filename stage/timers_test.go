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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	orbiterrors "github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/log"
)

func TestRegisterTimerTicks(t *testing.T) {
	x, _ := newTestRuntime(t, &fakeFactoryProvider{})

	actor := &testActor{}
	ticks := atomic.NewInt32(0)
	registration, err := x.RegisterTimer(actor, func(ctx context.Context) error {
		// the ambient runtime is bound inside timer callbacks.
		assert.Same(t, Runtime(x), RuntimeFromContext(ctx))
		ticks.Inc()
		return nil
	}, 10*time.Millisecond, 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)

	registration.Cancel()
	settled := ticks.Load()
	time.Sleep(100 * time.Millisecond)
	// a tick already scheduled may still run once after cancellation.
	assert.LessOrEqual(t, ticks.Load(), settled+1)
}

func TestRegisterTimerRequiresStartedRuntime(t *testing.T) {
	messenger := newFakeMessenger()
	x, err := NewExecution(&fakeFactoryProvider{}, messenger, WithLogger(log.DiscardLogger))
	require.NoError(t, err)

	_, err = x.RegisterTimer(&testActor{}, func(context.Context) error { return nil }, time.Millisecond, time.Millisecond)
	assert.ErrorIs(t, err, orbiterrors.ErrNotStarted)
}

func TestTimerTicksRunUnderActorSlot(t *testing.T) {
	x, _ := newTestRuntime(t, &fakeFactoryProvider{})

	actor := &testActor{}
	gate := make(chan struct{})
	entered := make(chan struct{})
	// occupy the actor's execution slot.
	require.True(t, x.serializer.Offer(actor, func() error {
		close(entered)
		<-gate
		return nil
	}, 10))
	<-entered

	ticked := atomic.NewBool(false)
	_, err := x.RegisterTimer(actor, func(context.Context) error {
		ticked.Store(true)
		return nil
	}, 5*time.Millisecond, 0)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ticked.Load(), "tick must wait for the actor slot")

	close(gate)
	require.Eventually(t, func() bool { return ticked.Load() }, 5*time.Second, time.Millisecond)
}

func TestRemindersDelegateToControllerActor(t *testing.T) {
	factory := &fakeFactory{
		id:   11,
		name: "ReminderController",
		invoker: invokeFn(func(context.Context, any, int32, []any) (any, error) {
			return nil, nil
		}),
	}
	provider := &fakeFactoryProvider{factories: []ActorFactory{factory}}
	locator := &fakeLocator{addr: "controller-node:1"}
	x, messenger := newTestRuntime(t, provider, WithLocator(locator))

	result := x.RegisterReminder(context.Background(), NewReference(1, "ITestActor", "a"), "wakeup", time.Minute, time.Hour)
	_, err := result.Await(context.Background())
	require.NoError(t, err)

	messenger.mu.Lock()
	require.Len(t, messenger.sent, 1)
	sent := messenger.sent[0]
	messenger.mu.Unlock()
	assert.Equal(t, NodeAddress("controller-node:1"), sent.to)
	assert.Equal(t, reminderMethodRegister, sent.messageID)
	assert.Equal(t, reminderControllerID, sent.payload)
}
