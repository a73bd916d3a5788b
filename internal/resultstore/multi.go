// Copyright 2016 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resultstore

import (
	"context"
	"fmt"

	"github.com/go-nexus/nexus"
	"golang.org/x/sync/errgroup"
)

// MultiStore fans a single Put out to every backend concurrently, e.g. to
// write a result to both S3 (for durability) and Spanner (for querying)
// in the same call without paying for them serially.
type MultiStore struct {
	backends []Store
}

// NewMultiStore wraps one or more backends as a single Store.
func NewMultiStore(backends ...Store) *MultiStore {
	return &MultiStore{backends: backends}
}

// Put writes to every backend concurrently, returning the first error
// encountered (if any) once all writes have finished.
func (m *MultiStore) Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range m.backends {
		b := b
		g.Go(func() error {
			return b.Put(ctx, runID, exec)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("resultstore: multi-backend write for %q failed: %w", runID, err)
	}
	return nil
}

// Get reads from the first backend, matching the assumption that all
// configured backends hold the same data (MultiStore is meant for
// redundant writes, not sharded reads).
func (m *MultiStore) Get(ctx context.Context, runID string) (Record, error) {
	if len(m.backends) == 0 {
		return Record{}, ErrNotFound
	}
	return m.backends[0].Get(ctx, runID)
}
