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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/go-nexus/nexus"
)

// MySQLStore is the non-GCP, non-AWS analogue of SpannerStore/S3Store,
// for shops running their own MySQL instance. The table is expected to
// already exist:
//
//	CREATE TABLE nexus_runs (
//	  run_id        VARCHAR(255) PRIMARY KEY,
//	  total_tests   INT NOT NULL,
//	  failed_tests  INT NOT NULL,
//	  total_checks  INT NOT NULL,
//	  failed_checks INT NOT NULL,
//	  execution     JSON NOT NULL
//	);
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQLStore against the given DSN.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("resultstore: failed to open mysql connection: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Put upserts exec's record as a single row.
func (s *MySQLStore) Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	execBytes, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("resultstore: failed to marshal execution for %q: %w", runID, err)
	}
	rec := newRecord(runID, exec)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nexus_runs (run_id, total_tests, failed_tests, total_checks, failed_checks, execution)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_tests = VALUES(total_tests),
			failed_tests = VALUES(failed_tests),
			total_checks = VALUES(total_checks),
			failed_checks = VALUES(failed_checks),
			execution = VALUES(execution)`,
		rec.RunID, rec.TotalTests, rec.FailedTests, rec.TotalChecks, rec.FailedChecks, execBytes)
	if err != nil {
		return fmt.Errorf("resultstore: failed to upsert row %q: %w", runID, err)
	}
	return nil
}

// Get reads back the record previously written for runID.
func (s *MySQLStore) Get(ctx context.Context, runID string) (Record, error) {
	var rec Record
	var execBytes []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, total_tests, failed_tests, total_checks, failed_checks, execution FROM nexus_runs WHERE run_id = ?`, runID)
	if err := row.Scan(&rec.RunID, &rec.TotalTests, &rec.FailedTests, &rec.TotalChecks, &rec.FailedChecks, &execBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("resultstore: failed to read row %q: %w", runID, err)
	}
	if err := json.Unmarshal(execBytes, &rec.Execution); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to unmarshal execution for %q: %w", runID, err)
	}
	return rec, nil
}
