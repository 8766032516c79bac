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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabikliot/orbit/log"
)

func singletonEntry() *referenceEntry {
	return &referenceEntry{
		reference: NewReference(1, "ITestActor", "a"),
		removable: true,
	}
}

func workerEntry() *referenceEntry {
	return &referenceEntry{
		reference:       NewReference(7, "IWorker", "s"),
		statelessWorker: true,
		removable:       true,
	}
}

func TestSingletonPopAndPush(t *testing.T) {
	entry := singletonEntry()

	first := entry.popActivation(100)
	require.NotNil(t, first)
	assert.Nil(t, entry.peekOldActivation(), "slot is cleared while checked out")

	entry.pushActivation(first, log.DiscardLogger)
	assert.Same(t, first, entry.peekOldActivation())

	again := entry.popActivation(200)
	assert.Same(t, first, again, "the single activation is reused")
}

func TestSingletonDoubleCheckInKeepsLastActivation(t *testing.T) {
	entry := singletonEntry()
	first := entry.popActivation(100)
	second := newActivation(entry, 100)

	entry.pushActivation(first, log.DiscardLogger)
	// a second occupant is anomalous and logged, the slot keeps the newcomer.
	entry.pushActivation(second, log.DiscardLogger)
	assert.Same(t, second, entry.peekOldActivation())
}

func TestWorkerPoolIsLIFO(t *testing.T) {
	entry := workerEntry()

	first := entry.popActivation(1)
	second := entry.popActivation(2)
	assert.NotSame(t, first, second, "an empty pool yields fresh activations")

	entry.pushActivation(first, log.DiscardLogger)
	entry.pushActivation(second, log.DiscardLogger)

	// the most recently checked in activation is reused first.
	assert.Same(t, second, entry.popActivation(3))
	assert.Same(t, first, entry.popActivation(4))
}

func TestWorkerPoolPeeksOldest(t *testing.T) {
	entry := workerEntry()
	first := entry.popActivation(1)
	second := entry.popActivation(2)
	entry.pushActivation(first, log.DiscardLogger)
	entry.pushActivation(second, log.DiscardLogger)

	assert.Same(t, first, entry.peekOldActivation())
	assert.Equal(t, 2, entry.poolSize())
	assert.Same(t, first, entry.popOldest())
	assert.Same(t, second, entry.popOldest())
	assert.Nil(t, entry.popOldest())
}

func TestActivationStateTransitions(t *testing.T) {
	entry := singletonEntry()
	activation := entry.popActivation(100)

	assert.Equal(t, ActivationVacant, activation.State())
	activation.setState(ActivationLive)
	assert.Equal(t, ActivationLive, activation.State())
	activation.setState(ActivationDeactivating)
	assert.Equal(t, ActivationDeactivating, activation.State())
	activation.setState(ActivationRetired)
	assert.Equal(t, ActivationRetired, activation.State())
}

func TestActivationTouch(t *testing.T) {
	entry := singletonEntry()
	activation := entry.popActivation(100)
	assert.EqualValues(t, 100, activation.lastAccessMillis())
	activation.touch(250)
	assert.EqualValues(t, 250, activation.lastAccessMillis())
}
