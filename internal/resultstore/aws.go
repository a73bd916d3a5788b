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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-nexus/nexus"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

// S3Store persists result records as objects in an S3 bucket, one object
// per run ID. Writes are rate-limited and retried with backoff via
// x/time/rate and cenkalti/backoff so a large parallel run doesn't
// overwhelm the bucket.
type S3Store struct {
	client      *s3.Client
	bucket      string
	prefix      string
	limiter     *rate.Limiter
	contentType string
}

// NewS3Store creates an S3Store writing into bucket under prefix. The
// bucket must already exist.
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	sdkConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("resultstore: failed to load default AWS configuration: %w", err)
	}
	return &S3Store{
		client:      s3.NewFromConfig(sdkConfig),
		bucket:      bucket,
		prefix:      prefix,
		limiter:     rate.NewLimiter(rate.Limit(20), 5),
		contentType: "application/json",
	}, nil
}

func (s *S3Store) keyToObjName(runID string) string {
	return path.Join(s.prefix, runID+".json")
}

// Put writes exec's record to S3, retrying transient failures with
// exponential backoff and waiting on the rate limiter to avoid
// overwhelming the bucket during a large parallel test run.
func (s *S3Store) Put(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("resultstore: rate limiter wait failed: %w", err)
	}
	b, err := json.Marshal(newRecord(runID, exec))
	if err != nil {
		return fmt.Errorf("resultstore: failed to marshal record for %q: %w", runID, err)
	}

	objName := s.keyToObjName(runID)
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(objName),
			Body:        bytes.NewReader(b),
			ContentType: aws.String(s.contentType),
		})
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to write object %q to bucket %q: %w", objName, s.bucket, err)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return err
	}
	klog.V(2).Infof("resultstore: wrote %q to bucket %q", objName, s.bucket)
	return nil
}

// Get reads back the record previously written for runID.
func (s *S3Store) Get(ctx context.Context, runID string) (Record, error) {
	objName := s.keyToObjName(runID)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("resultstore: failed to read object %q in bucket %q: %w", objName, s.bucket, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to read object body %q: %w", objName, err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("resultstore: failed to unmarshal record for %q: %w", runID, err)
	}
	return r, nil
}
