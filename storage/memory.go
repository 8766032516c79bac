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

// Package storage ships storage providers for actor state. The in-memory
// provider keeps msgpack-encoded snapshots per identity; it is the natural
// choice for tests and single-node deployments.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gabikliot/orbit/stage"
)

// MemoryProvider is a stage.StorageProvider holding state snapshots in
// process memory. Snapshots are msgpack-encoded so reads hand back a copy,
// never a shared record.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// enforce compilation and linter error
var _ stage.StorageProvider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty in-memory storage provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		data: make(map[string][]byte),
	}
}

// Start implements stage.Provider.
func (p *MemoryProvider) Start(context.Context) error { return nil }

// Stop implements stage.Provider.
func (p *MemoryProvider) Stop(context.Context) error { return nil }

// ReadState loads the snapshot of the reference into state. It reports false
// when no snapshot has been written yet.
func (p *MemoryProvider) ReadState(_ context.Context, reference *stage.ActorReference, state any) (bool, error) {
	p.mu.RLock()
	encoded, ok := p.data[stateKey(reference)]
	p.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(encoded, state); err != nil {
		return false, fmt.Errorf("decoding state of %s: %w", reference, err)
	}
	return true, nil
}

// WriteState snapshots the state of the reference.
func (p *MemoryProvider) WriteState(_ context.Context, reference *stage.ActorReference, state any) error {
	encoded, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state of %s: %w", reference, err)
	}
	p.mu.Lock()
	p.data[stateKey(reference)] = encoded
	p.mu.Unlock()
	return nil
}

// ClearState removes the snapshot of the reference.
func (p *MemoryProvider) ClearState(_ context.Context, reference *stage.ActorReference) error {
	p.mu.Lock()
	delete(p.data, stateKey(reference))
	p.mu.Unlock()
	return nil
}

func stateKey(reference *stage.ActorReference) string {
	return fmt.Sprintf("%d/%s", reference.InterfaceID(), reference.ID())
}
