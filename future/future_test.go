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

package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAwaitSuccess(t *testing.T) {
	promise := NewPromise[string]()
	go promise.Success("done")

	value, err := promise.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestAwaitFailure(t *testing.T) {
	boom := errors.New("boom")
	promise := NewPromise[string]()
	promise.Failure(boom)

	value, err := promise.Future().Await(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, value)
}

func TestAwaitContextCancellation(t *testing.T) {
	promise := NewPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := promise.Future().Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// unblock nothing: the promise was never completed.
	promise.Success(1)
}

func TestCompleteOnce(t *testing.T) {
	promise := NewPromise[int]()
	promise.Success(1)
	promise.Success(2)
	promise.Failure(errors.New("late"))

	value, err := promise.Future().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestCompletedAndFailed(t *testing.T) {
	value, err := Completed(42).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.True(t, Completed(42).IsCompleted())

	boom := errors.New("boom")
	_, err = Failed[int](boom).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGo(t *testing.T) {
	result := Go(func() (int, error) {
		return 7, nil
	})
	value, err := result.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}

func TestOnComplete(t *testing.T) {
	t.Run("registered before completion", func(t *testing.T) {
		promise := NewPromise[int]()
		var wg sync.WaitGroup
		wg.Add(1)
		var seen int
		promise.Future().OnComplete(func(value int, _ error) {
			seen = value
			wg.Done()
		})
		promise.Success(9)
		wg.Wait()
		assert.Equal(t, 9, seen)
	})

	t.Run("registered after completion runs inline", func(t *testing.T) {
		fut := Completed(3)
		ran := false
		fut.OnComplete(func(value int, err error) {
			require.NoError(t, err)
			assert.Equal(t, 3, value)
			ran = true
		})
		assert.True(t, ran)
	})
}
