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

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
)

// KV is the subset of jetstream.KeyValue the store needs. Narrowing the
// surface keeps test fakes small.
type KV interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// ensure KVStore implements Store at compile time.
var _ Store = (*KVStore)(nil)

// KVStore implements Store backed by a NATS KeyValue bucket. Event retention
// is the bucket's TTL responsibility, configured at bucket creation.
type KVStore struct {
	kv     KV
	logger *slog.Logger
}

// NewKVStore creates a new KVStore.
func NewKVStore(
	logger *slog.Logger,
	kv KV,
) *KVStore {
	return &KVStore{
		kv:     kv,
		logger: logger,
	}
}

// Write persists a security event to the KV bucket.
func (s *KVStore) Write(
	ctx context.Context,
	event Event,
) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}

	if _, err := s.kv.Put(ctx, event.ID, data); err != nil {
		return fmt.Errorf("put security event: %w", err)
	}

	return nil
}

// Get retrieves a single security event by ID.
func (s *KVStore) Get(
	ctx context.Context,
	id string,
) (*Event, error) {
	kve, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get security event: %w", err)
	}

	var event Event
	if err := json.Unmarshal(kve.Value(), &event); err != nil {
		return nil, fmt.Errorf("unmarshal security event: %w", err)
	}

	return &event, nil
}

// List retrieves security events with pagination, newest first.
func (s *KVStore) List(
	ctx context.Context,
	limit int,
	offset int,
) ([]Event, int, error) {
	keys, err := s.sortedKeys(ctx)
	if err != nil {
		return nil, 0, err
	}

	total := len(keys)
	if offset >= total {
		return []Event{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return s.collect(ctx, keys[offset:end]), total, nil
}

// QuerySince retrieves events recorded at or after the given time. ULID keys
// encode their timestamp, so the cutoff is a key comparison and stale keys
// are skipped without fetching their values.
func (s *KVStore) QuerySince(
	ctx context.Context,
	since time.Time,
) ([]Event, error) {
	keys, err := s.sortedKeys(ctx)
	if err != nil {
		return nil, err
	}

	minKey := strings.ToUpper(ulid.MustNew(uint64(since.UnixMilli()), zeroEntropy{}).String())

	recent := make([]string, 0, len(keys))
	for _, key := range keys {
		if key >= minKey {
			recent = append(recent, key)
		}
	}

	return s.collect(ctx, recent), nil
}

// zeroEntropy yields all-zero randomness so a ULID built from it is the
// smallest possible key for its timestamp.
type zeroEntropy struct{}

func (zeroEntropy) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// sortedKeys fetches all keys newest-first.
func (s *KVStore) sortedKeys(
	ctx context.Context,
) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		// an empty bucket is not an error
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list security event keys: %w", err)
	}

	// ULIDs sort chronologically; reverse for newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	return keys, nil
}

// collect fetches and decodes events for the given keys, skipping entries
// that fail to load.
func (s *KVStore) collect(
	ctx context.Context,
	keys []string,
) []Event {
	events := make([]Event, 0, len(keys))
	for _, key := range keys {
		kve, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Warn(
				"failed to get security event",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		var event Event
		if err := json.Unmarshal(kve.Value(), &event); err != nil {
			s.logger.Warn(
				"failed to unmarshal security event",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		events = append(events, event)
	}

	return events
}
