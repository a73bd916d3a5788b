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
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-nexus/nexus"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
)

// GCSStore is the Google Cloud Storage analogue of S3Store, for shops
// running their CI on GCP instead of AWS.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// NewGCSStore creates a GCSStore writing into bucket under prefix.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("resultstore: failed to create GCS client: %w", err)
	}
	return &GCSStore{client: c, bucket: bucket, prefix: prefix, limiter: rate.NewLimiter(rate.Limit(20), 5)}, nil
}

func (s *GCSStore) objName(runID string) string {
	return path.Join(s.prefix, runID+".json")
}

// Put writes exec's record as a GCS object, retrying transient failures.
func (s *GCSStore) Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("resultstore: rate limiter wait failed: %w", err)
	}
	b, err := json.Marshal(newRecord(runID, exec))
	if err != nil {
		return fmt.Errorf("resultstore: failed to marshal record for %q: %w", runID, err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.objName(runID))
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		w := obj.NewWriter(ctx)
		w.ContentType = "application/json"
		if _, err := w.Write(b); err != nil {
			return struct{}{}, fmt.Errorf("failed to write object %q: %w", s.objName(runID), err)
		}
		return struct{}{}, w.Close()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	return err
}

// Get reads back the record previously written for runID.
func (s *GCSStore) Get(ctx context.Context, runID string) (Record, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.objName(runID)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, iterator.Done) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("resultstore: failed to open reader for %q: %w", s.objName(runID), err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to read %q: %w", s.objName(runID), err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to unmarshal record for %q: %w", runID, err)
	}
	return rec, nil
}
