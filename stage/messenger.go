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

	"github.com/gabikliot/orbit/future"
)

// NodeAddress identifies a node in the cluster. The empty value means the
// address is unknown and must be resolved through the Locator.
type NodeAddress string

// NoAddress is the unresolved node address.
const NoAddress NodeAddress = ""

// ResponseKind discriminates the payload of a response message.
type ResponseKind int32

const (
	// NormalResponse carries the successful result of an invocation.
	NormalResponse ResponseKind = iota + 1
	// ExceptionResponse carries an application error raised by the invocation.
	ExceptionResponse
	// ErrorResponse carries an infrastructure error text.
	ErrorResponse
)

// String returns the textual form of the response kind.
func (k ResponseKind) String() string {
	switch k {
	case NormalResponse:
		return "NormalResponse"
	case ExceptionResponse:
		return "ExceptionResponse"
	case ErrorResponse:
		return "ErrorResponse"
	default:
		return "UnknownResponse"
	}
}

// Messenger ships messages between nodes. Serialization, the pending-call
// table and invocation-level timeouts live behind this interface.
type Messenger interface {
	// NodeAddress returns the address of the local node.
	NodeAddress() NodeAddress

	// SendMessage ships an invocation to the given node and returns a future
	// completed with the remote result, or immediately for one-way sends.
	SendMessage(ctx context.Context, to NodeAddress, oneWay bool, interfaceID, methodID int32, actorID string, args []any) *future.Future[any]

	// SendResponse delivers the result of a locally handled invocation back to
	// the caller node.
	SendResponse(to NodeAddress, kind ResponseKind, messageID int32, payload any) error

	// TimeoutCleanup expires stale entries of the pending-call table. The
	// runtime invokes it periodically.
	TimeoutCleanup()
}

// Locator resolves the node address hosting the activation of an actor
// reference. Cluster membership and placement live behind this interface.
type Locator interface {
	// LocateActor returns the address of the node owning the given reference.
	LocateActor(ctx context.Context, reference *ActorReference) (NodeAddress, error)
}
