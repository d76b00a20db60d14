// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// SuppressionStore persists addresses that must never be sent to again.
type SuppressionStore struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
}

// NewSuppressionStore creates a new SuppressionStore.
func NewSuppressionStore(
	logger *slog.Logger,
	kv KV,
) *SuppressionStore {
	return &SuppressionStore{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// Suppress records an address as undeliverable. Re-suppressing an already
// suppressed address overwrites the entry with the newer reason.
func (s *SuppressionStore) Suppress(
	ctx context.Context,
	entry Entry,
) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal suppression entry: %w", err)
	}

	if _, err := s.kv.Put(ctx, suppressionKey(entry.Address), data); err != nil {
		return fmt.Errorf("put suppression entry: %w", err)
	}

	return nil
}

// IsSuppressed reports whether an address has a suppression entry.
func (s *SuppressionStore) IsSuppressed(
	ctx context.Context,
	address string,
) (bool, error) {
	_, err := s.Get(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNotSuppressed) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Get retrieves the suppression entry for an address.
func (s *SuppressionStore) Get(
	ctx context.Context,
	address string,
) (*Entry, error) {
	kve, err := s.kv.Get(ctx, suppressionKey(address))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotSuppressed
		}
		return nil, fmt.Errorf("get suppression entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(kve.Value(), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal suppression entry: %w", err)
	}

	return &entry, nil
}
