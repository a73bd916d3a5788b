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

// Package resultstore persists schedule executions across CI runs so that
// flaky- and slow-test trends (see internal/trend) can be computed from
// history instead of a single run.
package resultstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-nexus/nexus"
)

// Record is what gets persisted for one schedule execution.
type Record struct {
	RunID        string                  `json:"run_id"`
	Execution    nexus.ScheduleExecution `json:"execution"`
	TotalTests   int                     `json:"total_tests"`
	FailedTests  int                     `json:"failed_tests"`
	TotalChecks  int                     `json:"total_checks"`
	FailedChecks int                     `json:"failed_checks"`
}

func newRecord(runID string, exec nexus.ScheduleExecution) Record {
	return Record{
		RunID:        runID,
		Execution:    exec,
		TotalTests:   exec.CountTotalTests(),
		FailedTests:  exec.CountFailedTests(),
		TotalChecks:  exec.CountTotalChecks(),
		FailedChecks: exec.CountFailedChecks(),
	}
}

// Store persists and retrieves schedule executions keyed by run ID. Every
// backend (memory, S3, GCS, Spanner, MySQL) implements this same small
// surface, one file per backend.
type Store interface {
	Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error
	Get(ctx context.Context, runID string) (Record, error)
}

// ErrNotFound is returned by Get when no record exists for a run ID.
var ErrNotFound = fmt.Errorf("resultstore: run not found")

// MemoryStore is an in-memory Store, the default used by tests and by
// cmd/nexus when no durable backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Put encodes and stores exec under runID, overwriting any previous value.
func (s *MemoryStore) Put(_ context.Context, runID string, exec nexus.ScheduleExecution) error {
	b, err := json.Marshal(newRecord(runID, exec))
	if err != nil {
		return fmt.Errorf("resultstore: failed to marshal record for %q: %w", runID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[runID] = b
	return nil
}

// Get returns the record previously stored under runID.
func (s *MemoryStore) Get(_ context.Context, runID string) (Record, error) {
	s.mu.RLock()
	b, ok := s.records[runID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to unmarshal record for %q: %w", runID, err)
	}
	return r, nil
}
