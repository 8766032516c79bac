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

// Package errors defines the error vocabulary of the orbit runtime.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutionRefused is returned when the per-identity execution queue is
	// saturated and a new invocation cannot be enqueued.
	ErrExecutionRefused = errors.New("execution refused")

	// ErrNoImplementation is returned when no concrete actor implementation is
	// registered on this node for the requested interface.
	ErrNoImplementation = errors.New("no actor implementation on this node")

	// ErrObserverGone is returned when the targeted observer object has been
	// garbage-collected.
	ErrObserverGone = errors.New("observer no longer present")

	// ErrUnknownInterface is returned when no descriptor exists for the
	// requested interface id.
	ErrUnknownInterface = errors.New("unknown actor interface")

	// ErrAlreadyStarted is returned when starting a runtime that is running.
	ErrAlreadyStarted = errors.New("runtime has already started")

	// ErrNotStarted is returned when using a runtime that has not started.
	ErrNotStarted = errors.New("runtime is not running")

	// ErrNilMessenger is returned when a runtime is built without a messenger.
	ErrNilMessenger = errors.New("messenger is required")

	// ErrNilFactoryProvider is returned when a runtime is built without a
	// reference factory provider.
	ErrNilFactoryProvider = errors.New("factory provider is required")

	// ErrNoLocator is returned when an outbound call targets an unresolved
	// address and no locator is installed.
	ErrNoLocator = errors.New("no locator installed")

	// ErrInvalidObserver is returned when installing an observer that is not a
	// non-nil pointer.
	ErrInvalidObserver = errors.New("observer must be a non-nil pointer")

	// ErrObserverIDMismatch is returned when the same observer object is
	// installed twice with different ids.
	ErrObserverIDMismatch = errors.New("observer installed twice with different ids")

	// ErrObserverIDClash is returned when an observer id clashes with a
	// pre-existing observer.
	ErrObserverIDClash = errors.New("observer id clashes with a pre-existing observer")

	// ErrNoFactory is returned when no reference factory accepts the observer.
	ErrNoFactory = errors.New("no factory found for observer")

	// ErrNotReference is returned when binding an object that is not an actor
	// reference.
	ErrNotReference = errors.New("must be a reference")

	// ErrNilID is returned when a required identity string is empty.
	ErrNilID = errors.New("id is required")

	// ErrNoStorageProvider is returned when actor state is accessed while no
	// storage provider is installed on the runtime.
	ErrNoStorageProvider = errors.New("no storage provider installed")
)

// NewActivationFailure wraps an error that occurred during actor construction,
// pre-activation, state loading or OnActivate. The activation is never
// published when this is returned.
func NewActivationFailure(err error) error {
	return fmt.Errorf("actor activation failed: %w", err)
}

// NewDeactivationFailure wraps an error that occurred during actor teardown.
// The activation is discarded regardless.
func NewDeactivationFailure(err error) error {
	return fmt.Errorf("actor deactivation failed: %w", err)
}
