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
)

// MessageContext is the per-invocation ambient data visible to user code
// while a method executes: the target reference, the method, the caller node
// and a runtime-local trace id. It travels in the context.Context handed to
// the user method, so nested invocations inherit and restore it naturally.
type MessageContext struct {
	reference *ActorReference
	methodID  int32
	sender    NodeAddress
	traceID   int64
}

// Reference returns the reference of the activation handling the message.
func (c *MessageContext) Reference() *ActorReference { return c.reference }

// MethodID returns the id of the method being invoked.
func (c *MessageContext) MethodID() int32 { return c.methodID }

// Sender returns the address of the node the message came from.
func (c *MessageContext) Sender() NodeAddress { return c.sender }

// TraceID returns the runtime-local trace id of the invocation.
func (c *MessageContext) TraceID() int64 { return c.traceID }

type messageContextKey struct{}

type runtimeContextKey struct{}

// ContextWithMessage returns a context carrying the given message context.
func ContextWithMessage(ctx context.Context, message *MessageContext) context.Context {
	return context.WithValue(ctx, messageContextKey{}, message)
}

// MessageFromContext returns the message context of the current invocation,
// or nil when the context does not stem from a message handling.
func MessageFromContext(ctx context.Context) *MessageContext {
	message, _ := ctx.Value(messageContextKey{}).(*MessageContext)
	return message
}

// ContextWithRuntime returns a context carrying the given runtime as the
// current one.
func ContextWithRuntime(ctx context.Context, runtime Runtime) context.Context {
	return context.WithValue(ctx, runtimeContextKey{}, runtime)
}

// RuntimeFromContext returns the runtime bound to the context, falling back
// to the process-default runtime.
func RuntimeFromContext(ctx context.Context) Runtime {
	if runtime, ok := ctx.Value(runtimeContextKey{}).(Runtime); ok {
		return runtime
	}
	return DefaultRuntime()
}

// CurrentActivation returns the reference of the activation executing in this
// context, or nil outside of message handling.
func CurrentActivation(ctx context.Context) *ActorReference {
	message := MessageFromContext(ctx)
	if message == nil {
		return nil
	}
	return message.reference
}

// CurrentTraceID returns the trace id of the invocation executing in this
// context, or zero outside of message handling.
func CurrentTraceID(ctx context.Context) int64 {
	message := MessageFromContext(ctx)
	if message == nil {
		return 0
	}
	return message.traceID
}
