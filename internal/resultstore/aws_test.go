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
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"golang.org/x/time/rate"
)

// newFakeS3Store spins up an in-memory S3-compatible server (gofakes3) and
// points an S3Store at it, so tests exercise the real client library
// without needing network access to an actual bucket.
func newFakeS3Store(t *testing.T, bucket string) *S3Store {
	t.Helper()
	backend := s3mem.New()
	faker := gofakes3.New(backend)
	ts := httptest.NewServer(faker.Server())
	t.Cleanup(ts.Close)

	client := s3.NewFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("FAKE", "FAKE", ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(ts.URL)
		o.UsePathStyle = true
	})

	ctx := context.Background()
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("CreateBucket(%q) = %v, want nil", bucket, err)
	}

	return &S3Store{
		client:      client,
		bucket:      bucket,
		prefix:      "nexus-runs",
		limiter:     rate.NewLimiter(rate.Limit(1000), 10),
		contentType: "application/json",
	}
}

func TestS3StoreRoundTrip(t *testing.T) {
	s := newFakeS3Store(t, "nexus-test-bucket")
	ctx := context.Background()
	exec := sampleExecution(true)

	if err := s.Put(ctx, "run-s3", exec); err != nil {
		t.Fatalf("Put() = %v, want nil", err)
	}
	got, err := s.Get(ctx, "run-s3")
	if err != nil {
		t.Fatalf("Get() = %v, want nil", err)
	}
	if got.FailedTests != exec.CountFailedTests() {
		t.Errorf("FailedTests = %d, want %d", got.FailedTests, exec.CountFailedTests())
	}
}

func TestS3StoreGetMissing(t *testing.T) {
	s := newFakeS3Store(t, "nexus-test-bucket-2")
	if _, err := s.Get(context.Background(), "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() err = %v, want ErrNotFound", err)
	}
}
