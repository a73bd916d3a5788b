// Copyright 2024 The Tessera authors. All Rights Reserved.
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
	"encoding/json"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/go-nexus/nexus"
	"google.golang.org/grpc/codes"
)

// SpannerStore persists result records in a Cloud Spanner table, giving
// CI dashboards a queryable history of failed/total counts per run
// without needing to deserialize every record's JSON blob to chart trend
// lines. The table is expected to already exist:
//
//	CREATE TABLE NexusRuns (
//	  RunID        STRING(MAX) NOT NULL,
//	  TotalTests   INT64 NOT NULL,
//	  FailedTests  INT64 NOT NULL,
//	  TotalChecks  INT64 NOT NULL,
//	  FailedChecks INT64 NOT NULL,
//	  Execution    BYTES(MAX) NOT NULL,
//	) PRIMARY KEY (RunID);
type SpannerStore struct {
	client *spanner.Client
	table  string
}

// NewSpannerStore creates a SpannerStore against the given database path
// (projects/P/instances/I/databases/D).
func NewSpannerStore(ctx context.Context, db string) (*SpannerStore, error) {
	c, err := spanner.NewClient(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("resultstore: failed to create Spanner client for %q: %w", db, err)
	}
	return &SpannerStore{client: c, table: "NexusRuns"}, nil
}

// Put upserts exec's record as a single Spanner row.
func (s *SpannerStore) Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	execBytes, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("resultstore: failed to marshal execution for %q: %w", runID, err)
	}
	rec := newRecord(runID, exec)
	mut := spanner.InsertOrUpdate(s.table,
		[]string{"RunID", "TotalTests", "FailedTests", "TotalChecks", "FailedChecks", "Execution"},
		[]interface{}{rec.RunID, int64(rec.TotalTests), int64(rec.FailedTests), int64(rec.TotalChecks), int64(rec.FailedChecks), execBytes},
	)
	if _, err := s.client.Apply(ctx, []*spanner.Mutation{mut}); err != nil {
		return fmt.Errorf("resultstore: failed to apply mutation for %q: %w", runID, err)
	}
	return nil
}

// Get reads back the record previously written for runID.
func (s *SpannerStore) Get(ctx context.Context, runID string) (Record, error) {
	row, err := s.client.Single().ReadRow(ctx, s.table, spanner.Key{runID},
		[]string{"RunID", "TotalTests", "FailedTests", "TotalChecks", "FailedChecks", "Execution"})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("resultstore: failed to read row %q: %w", runID, err)
	}

	var rec Record
	var execBytes []byte
	var totalTests, failedTests, totalChecks, failedChecks int64
	if err := row.Columns(&rec.RunID, &totalTests, &failedTests, &totalChecks, &failedChecks, &execBytes); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to scan row %q: %w", runID, err)
	}
	rec.TotalTests, rec.FailedTests, rec.TotalChecks, rec.FailedChecks = int(totalTests), int(failedTests), int(totalChecks), int(failedChecks)
	if err := json.Unmarshal(execBytes, &rec.Execution); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to unmarshal execution for %q: %w", runID, err)
	}
	return rec, nil
}
