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

	"github.com/RussellLuo/timingwheel"
	"go.uber.org/atomic"

	"github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/future"
)

const (
	timerWheelTick = time.Millisecond
	timerWheelSize = 3600

	// timerQueueDepth bounds the pending timer ticks per actor.
	timerQueueDepth = 1000
)

// TimerFunc is the callback of a repeating actor timer. It runs under the
// actor's execution slot.
type TimerFunc func(ctx context.Context) error

// TimerRegistration cancels a repeating timer. Cancellation is cooperative: a
// tick already scheduled may still run once and observe the flag.
type TimerRegistration interface {
	Cancel()
}

// timerWheel wraps the hashed timing wheel driving actor timers.
type timerWheel struct {
	wheel *timingwheel.TimingWheel
}

func newTimerWheel() *timerWheel {
	return &timerWheel{wheel: timingwheel.NewTimingWheel(timerWheelTick, timerWheelSize)}
}

func (w *timerWheel) start() { w.wheel.Start() }
func (w *timerWheel) stop()  { w.wheel.Stop() }

func (w *timerWheel) afterFunc(d time.Duration, f func()) *timingwheel.Timer {
	return w.wheel.AfterFunc(d, f)
}

type timerHandle struct {
	canceled atomic.Bool

	mu      sync.Mutex
	pending *timingwheel.Timer
}

// enforce compilation and linter error
var _ TimerRegistration = (*timerHandle)(nil)

func (h *timerHandle) Cancel() {
	h.canceled.Store(true)
	h.mu.Lock()
	if h.pending != nil {
		h.pending.Stop()
	}
	h.mu.Unlock()
}

func (h *timerHandle) store(timer *timingwheel.Timer) {
	h.mu.Lock()
	h.pending = timer
	h.mu.Unlock()
}

// RegisterTimer schedules a repeating callback for the actor. Each tick runs
// as a job keyed by the actor instance, so ticks of one actor never overlap
// each other. Message handling is keyed by the actor's EntryKey instead, so
// ticks are not serialized against the actor's messages.
func (x *Execution) RegisterTimer(actor Actor, callback TimerFunc, dueTime, period time.Duration) (TimerRegistration, error) {
	if !x.started.Load() {
		return nil, errors.ErrNotStarted
	}

	handle := &timerHandle{}
	var schedule func(delay time.Duration)
	tick := func() {
		if handle.canceled.Load() {
			return
		}
		x.serializer.Offer(actor, func() error {
			if handle.canceled.Load() {
				return nil
			}
			ctx := ContextWithRuntime(context.Background(), x)
			if err := callback(ctx); err != nil {
				x.logger.Warnf("error calling timer: %v", err)
			}
			return nil
		}, timerQueueDepth)
		if period > 0 && !handle.canceled.Load() {
			schedule(period)
		}
	}
	schedule = func(delay time.Duration) {
		handle.store(x.wheel.afterFunc(delay, tick))
	}
	schedule(dueTime)

	return handle, nil
}

// reminders are durable timers owned by the well-known reminder controller
// actor; only the client stub lives here.
const (
	reminderControllerInterface = "ReminderController"
	reminderControllerID        = "0"

	reminderMethodRegister   int32 = 1
	reminderMethodUnregister int32 = 2
)

// RegisterReminder registers or updates a durable timer with the reminder
// controller actor.
func (x *Execution) RegisterReminder(ctx context.Context, actor *ActorReference, reminderName string, dueTime, period time.Duration) *future.Future[any] {
	controller, err := x.reminderController()
	if err != nil {
		return future.Failed[any](err)
	}
	fireAt := x.clock.Now().Add(dueTime)
	return x.Invoke(ctx, controller, false, reminderMethodRegister, []any{actor, reminderName, fireAt, period})
}

// UnregisterReminder removes a durable timer from the reminder controller
// actor.
func (x *Execution) UnregisterReminder(ctx context.Context, actor *ActorReference, reminderName string) *future.Future[any] {
	controller, err := x.reminderController()
	if err != nil {
		return future.Failed[any](err)
	}
	return x.Invoke(ctx, controller, false, reminderMethodUnregister, []any{actor, reminderName})
}

func (x *Execution) reminderController() (*ActorReference, error) {
	descriptor, err := x.interfaces.descriptorByName(reminderControllerInterface)
	if err != nil {
		return nil, err
	}
	reference := descriptor.factory.CreateReference(reminderControllerID)
	reference.runtime = x
	return reference, nil
}
