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

	"go.uber.org/multierr"

	"github.com/gabikliot/orbit/errors"
)

// ActivationCleanup scans the registry and evicts activations idle past the
// configured TTL. Singleton cleanups run under the entry's execution slot so
// they cannot overlap in-flight messages for that identity; worker pools are
// rotated in place. When block is true the call returns only after every
// enqueued cleanup has finished. Dead observer slots are compacted in the
// same pass.
func (x *Execution) ActivationCleanup(block bool) {
	cutoff := x.clock.Now().UnixMilli() - x.idleTTL.Milliseconds()

	var pending []chan struct{}
	x.localActors.Range(func(key EntryKey, entry *referenceEntry) {
		if !entry.removable {
			return
		}
		activation := entry.peekOldActivation()
		if activation == nil || activation.lastAccessMillis() >= cutoff {
			return
		}
		if !x.cleanupInFlight.Add(key) {
			// a cleanup from a previous scan is still queued for this key.
			return
		}
		done := make(chan struct{})
		job := func() error {
			defer close(done)
			defer x.cleanupInFlight.Remove(key)
			x.cleanupEntry(key, entry, cutoff)
			return nil
		}
		if x.serializer.Offer(key, job, x.maxQueueSize) {
			if block {
				pending = append(pending, done)
			}
		} else {
			x.cleanupInFlight.Remove(key)
		}
	})

	x.observers.compact()

	if block {
		for _, done := range pending {
			<-done
		}
	}
}

// cleanupEntry runs under the entry's execution slot.
func (x *Execution) cleanupEntry(key EntryKey, entry *referenceEntry, cutoff int64) {
	if current, ok := x.localActors.Get(key); !ok || current != entry {
		x.logger.Warnf("error during cleanup: the activation entry changed, this should not be possible: %s", key)
		return
	}

	if !entry.statelessWorker {
		activation := entry.peekOldActivation()
		if activation != nil && activation.instance != nil {
			if activation.lastAccessMillis() >= cutoff {
				// has been used recently enough, not disposing.
				return
			}
			x.deactivate(activation)
		}
		x.localActors.Delete(key)
		return
	}

	// walk the pool once: recently used activations rotate to the tail,
	// stale ones are deactivated and dropped. The entry itself is retained,
	// the pool may re-fill.
	count := entry.poolSize()
	for i := 0; i < count; i++ {
		activation := entry.popOldest()
		if activation == nil {
			break
		}
		if activation.lastAccessMillis() >= cutoff {
			entry.pushActivation(activation, x.logger)
			continue
		}
		x.deactivate(activation)
	}
}

// deactivate tears an activation down: pre-deactivation hooks, OnDeactivate,
// post-deactivation hooks. Teardown errors are logged and the activation is
// discarded regardless.
func (x *Execution) deactivate(activation *Activation) {
	instance := activation.instance
	if instance == nil {
		return
	}
	activation.setState(ActivationDeactivating)
	ctx := ContextWithRuntime(context.Background(), x)

	var err error
	for _, lifetime := range x.lifetime {
		err = multierr.Append(err, lifetime.PreDeactivation(ctx, instance))
	}
	err = multierr.Append(err, instance.OnDeactivate(ctx))
	for _, lifetime := range x.lifetime {
		err = multierr.Append(err, lifetime.PostDeactivation(ctx, instance))
	}
	if err != nil {
		x.logger.Errorf("error during the clean up of %s: %v", activation.entry.reference, errors.NewDeactivationFailure(err))
	}

	activation.instance = nil
	activation.setState(ActivationRetired)
}
