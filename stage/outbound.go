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
	"time"

	"github.com/flowchartsman/retry"

	"github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/future"
)

const (
	locateRetryAttempts = 3
	locateRetryMinWait  = 50 * time.Millisecond
	locateRetryMaxWait  = 500 * time.Millisecond
)

// Invoke issues an outbound invocation on the given reference. The current
// message context, when present, supplies the source identity and trace id
// reported to the invoke listeners; an installed invoke hook takes over the
// delivery entirely.
func (x *Execution) Invoke(ctx context.Context, target *ActorReference, oneWay bool, methodID int32, args []any) *future.Future[any] {
	source := CurrentActivation(ctx)
	traceID := CurrentTraceID(ctx)

	if x.traceEnabled && source != nil {
		for _, listener := range x.listeners {
			listener.PreInvoke(traceID, source.InterfaceName(), source.ID(), target.InterfaceName(), target.ID(), methodID, args)
		}
	}

	var result *future.Future[any]
	if x.invokeHook != nil {
		result = x.invokeHook.Invoke(ctx, x, target, oneWay, methodID, args)
	} else {
		result = x.sendMessage(ctx, target, oneWay, methodID, args)
	}

	if x.traceEnabled {
		result.OnComplete(func(value any, _ error) {
			for _, listener := range x.listeners {
				listener.PostInvoke(traceID, value)
			}
		})
	}
	return result
}

// sendMessage ships the invocation through the messenger, resolving the
// target address through the locator when the reference carries none. The
// resolved address is not cached on the reference; subsequent calls resolve
// again and the locator may cache internally.
func (x *Execution) sendMessage(ctx context.Context, target *ActorReference, oneWay bool, methodID int32, args []any) *future.Future[any] {
	x.logger.Debugf("sending message to %s", target)

	if target.address != NoAddress {
		return x.messenger.SendMessage(ctx, target.address, oneWay, target.interfaceID, methodID, target.id, args)
	}
	if x.locator == nil {
		return future.Failed[any](errors.ErrNoLocator)
	}

	return future.Go(func() (any, error) {
		var address NodeAddress
		retrier := retry.NewRetrier(locateRetryAttempts, locateRetryMinWait, locateRetryMaxWait)
		err := retrier.RunContext(ctx, func(ctx context.Context) error {
			located, err := x.locator.LocateActor(ctx, target)
			if err != nil {
				return err
			}
			address = located
			return nil
		})
		if err != nil {
			return nil, err
		}
		return x.messenger.SendMessage(ctx, address, oneWay, target.interfaceID, methodID, target.id, args).Await(ctx)
	})
}
