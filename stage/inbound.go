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

// OnMessageReceived is the inbound callback wired into the messenger. It
// enqueues the handling of the message under the target identity's execution
// slot; when the identity's queue is saturated the execution is refused.
func (x *Execution) OnMessageReceived(from NodeAddress, oneWay bool, messageID, interfaceID, methodID int32, key string, args []any) {
	if !x.started.Load() {
		x.logger.Warnf("message %d dropped: runtime is not running", messageID)
		return
	}
	entryKey := EntryKey{InterfaceID: interfaceID, ID: key}
	x.logger.Debugf("onMessageReceived for: %s", entryKey)
	x.messagesReceived.Inc()
	x.addCounter(context.Background(), x.receivedCounter)

	accepted := x.serializer.Offer(entryKey, func() error {
		return x.handleOnMessageReceived(entryKey, from, oneWay, messageID, interfaceID, methodID, args)
	}, x.maxQueueSize)
	if !accepted {
		x.refuseExecution(from, oneWay, messageID, interfaceID, methodID, key)
	}
}

func (x *Execution) refuseExecution(from NodeAddress, oneWay bool, messageID, interfaceID, methodID int32, key string) {
	x.refusedExecutions.Inc()
	x.addCounter(context.Background(), x.refusedCounter)
	x.logger.Errorf("execution refused: %s:%d:%d:%d", key, interfaceID, methodID, messageID)
	if !oneWay {
		if err := x.messenger.SendResponse(from, ErrorResponse, messageID, "Execution refused"); err != nil {
			x.logger.Errorf("error sending refusal response: %v", err)
		}
	}
}

// handleOnMessageReceived runs serially by entry key.
func (x *Execution) handleOnMessageReceived(entryKey EntryKey, from NodeAddress, oneWay bool, messageID, interfaceID, methodID int32, args []any) error {
	x.messagesHandled.Inc()
	x.addCounter(context.Background(), x.handledCounter)

	descriptor, err := x.interfaces.descriptorByID(interfaceID)
	if err != nil {
		x.logger.Errorf("no descriptor for inbound message: %v", err)
		if !oneWay {
			if sendErr := x.messenger.SendResponse(from, ErrorResponse, messageID, err.Error()); sendErr != nil {
				x.logger.Errorf("error sending response: %v", sendErr)
			}
		}
		return err
	}

	if descriptor.isObserver {
		observer, ok := x.observers.lookup(entryKey)
		if !ok {
			if !oneWay {
				if sendErr := x.messenger.SendResponse(from, ErrorResponse, messageID, "Observer no longer present"); sendErr != nil {
					x.logger.Errorf("error sending response: %v", sendErr)
				}
			}
			return nil
		}
		ctx := ContextWithRuntime(context.Background(), x)
		result, invokeErr := descriptor.invoker.Invoke(ctx, observer, methodID, args)
		x.sendResponseAndLogError(oneWay, from, messageID, result, invokeErr)
		return nil
	}

	entry := x.ensureEntry(entryKey, descriptor)
	x.logger.Debugf("handleOnMessageReceived for: %s:%s", descriptor, entryKey.ID)

	if !entry.statelessWorker {
		return x.executeMessage(entry, oneWay, descriptor, methodID, args, from, messageID)
	}

	// identity-level serialization is unnecessary for stateless workers:
	// re-offer unkeyed so calls to the same identity run in parallel across
	// pooled activations. This hop ignores the identity's queue depth; it is
	// refused only when the executor rejects the job.
	if !x.serializer.Offer(nil, func() error {
		return x.executeMessage(entry, oneWay, descriptor, methodID, args, from, messageID)
	}, x.maxQueueSize) {
		x.refuseExecution(from, oneWay, messageID, interfaceID, methodID, entryKey.ID)
	}
	return nil
}

// ensureEntry returns the registry entry of the identity, creating it on
// first dispatch. Creation is race-free against other messages because
// accesses are serial by identity; only the eviction scan contends, handled
// by the atomic insert.
func (x *Execution) ensureEntry(entryKey EntryKey, descriptor *InterfaceDescriptor) *referenceEntry {
	if entry, ok := x.localActors.Get(entryKey); ok {
		return entry
	}
	entry := &referenceEntry{
		descriptor:      descriptor,
		statelessWorker: descriptor.statelessWorker,
		removable:       true,
	}
	entry.reference = descriptor.factory.CreateReference(entryKey.ID)
	entry.reference.runtime = x

	stored, inserted := x.localActors.SetIfAbsent(entryKey, entry)
	if !inserted {
		// should be impossible while accesses stay serial by identity.
		x.logger.Error("unexpected state: non serial access to entry")
	}
	return stored
}

// executeMessage checks an activation out, lazily instantiates it, invokes
// the user method and delivers the response. The activation is checked back
// in once the invocation has completed.
func (x *Execution) executeMessage(entry *referenceEntry, oneWay bool, descriptor *InterfaceDescriptor, methodID int32, args []any, from NodeAddress, messageID int32) error {
	message := &MessageContext{
		reference: entry.reference,
		methodID:  methodID,
		sender:    from,
		traceID:   x.traceCounter.Inc(),
	}
	ctx := ContextWithMessage(ContextWithRuntime(context.Background(), x), message)

	nowMillis := x.clock.Now().UnixMilli()
	activation := entry.popActivation(nowMillis)
	activation.touch(nowMillis)
	defer entry.pushActivation(activation, x.logger)

	instance, err := x.getOrCreateInstance(ctx, activation)
	if err != nil {
		x.sendResponseAndLogError(oneWay, from, messageID, nil, err)
		return nil
	}

	result, err := descriptor.invoker.Invoke(ctx, instance, methodID, args)
	x.sendResponseAndLogError(oneWay, from, messageID, result, err)
	return nil
}

// getOrCreateInstance publishes the user instance of the activation, running
// the full first-touch lifecycle when none exists yet: construction, handle
// binding, pre-activation hooks, state loading, OnActivate and
// post-activation hooks, strictly in that order. A failure in any step aborts
// the remaining ones and nothing is published.
func (x *Execution) getOrCreateInstance(ctx context.Context, activation *Activation) (Actor, error) {
	if activation.instance != nil {
		return activation.instance, nil
	}

	entry := activation.entry
	constructor, err := entry.descriptor.resolveImplementation(x.finder)
	if err != nil {
		return nil, err
	}
	instance := constructor()
	if instance == nil {
		return nil, errors.NewActivationFailure(errors.ErrNoImplementation)
	}

	bound, isBound := instance.(runtimeBound)
	if isBound {
		bound.bindRuntime(entry.reference, x.storage)
	}

	for _, lifetime := range x.lifetime {
		if err := lifetime.PreActivation(ctx, instance); err != nil {
			return nil, errors.NewActivationFailure(err)
		}
	}

	if isBound && x.storage != nil {
		if err := bound.readState(ctx); err != nil {
			x.logger.Errorf("error reading actor state for: %s: %v", entry.reference, err)
			return nil, err
		}
	}

	if err := instance.OnActivate(ctx); err != nil {
		return nil, errors.NewActivationFailure(err)
	}

	for _, lifetime := range x.lifetime {
		if err := lifetime.PostActivation(ctx, instance); err != nil {
			return nil, errors.NewActivationFailure(err)
		}
	}

	activation.instance = instance
	activation.setState(ActivationLive)
	return instance, nil
}

// sendResponseAndLogError delivers the invocation outcome for two-way calls.
// A failing send degrades through ExceptionResponse carrying the send error,
// then ErrorResponse with a fixed text; a third failure is only logged.
func (x *Execution) sendResponseAndLogError(oneWay bool, from NodeAddress, messageID int32, result any, err error) {
	if err != nil {
		x.logger.Errorf("unknown application error: %v", err)
	}
	if oneWay {
		return
	}

	kind := NormalResponse
	payload := result
	if err != nil {
		kind = ExceptionResponse
		payload = err
	}

	sendErr := x.messenger.SendResponse(from, kind, messageID, payload)
	if sendErr == nil {
		return
	}
	x.logger.Errorf("error sending method result: %v", sendErr)

	if retryErr := x.messenger.SendResponse(from, ExceptionResponse, messageID, sendErr); retryErr == nil {
		return
	}
	x.logger.Errorf("failed twice sending result: %v", sendErr)

	if lastErr := x.messenger.SendResponse(from, ErrorResponse, messageID, "failed twice sending result"); lastErr != nil {
		x.logger.Errorf("failed sending exception: %v", lastErr)
	}
}
