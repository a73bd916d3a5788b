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
	"errors"
	"testing"

	"github.com/go-nexus/nexus"
)

func sampleExecution(failing bool) nexus.ScheduleExecution {
	sec := nexus.Section{Name: "root", ExecutedChecks: 1}
	if failing {
		sec.FailedChecks = 1
		sec.IsConsideredFailing = true
	}
	return nexus.ScheduleExecution{
		Executions: []nexus.TestExecution{
			{
				Instance: nexus.Instance{Declaration: &nexus.Declaration{Name: "some_test"}},
				Root:     sec,
			},
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		failing bool
	}{
		{desc: "passing-run", failing: false},
		{desc: "failing-run", failing: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			s := NewMemoryStore()
			ctx := context.Background()
			exec := sampleExecution(tc.failing)

			if err := s.Put(ctx, "run-1", exec); err != nil {
				t.Fatalf("Put() = %v, want nil", err)
			}
			got, err := s.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("Get() = %v, want nil", err)
			}
			if got.FailedTests != exec.CountFailedTests() {
				t.Errorf("FailedTests = %d, want %d", got.FailedTests, exec.CountFailedTests())
			}
			if got.TotalChecks != exec.CountTotalChecks() {
				t.Errorf("TotalChecks = %d, want %d", got.TotalChecks, exec.CountTotalChecks())
			}
		})
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() err = %v, want ErrNotFound", err)
	}
}

type failingStore struct {
	err error
}

func (f *failingStore) Put(context.Context, string, nexus.ScheduleExecution) error { return f.err }
func (f *failingStore) Get(context.Context, string) (Record, error)                { return Record{}, f.err }

func TestMultiStoreFanOut(t *testing.T) {
	a, b := NewMemoryStore(), NewMemoryStore()
	m := NewMultiStore(a, b)
	exec := sampleExecution(false)

	if err := m.Put(context.Background(), "run-2", exec); err != nil {
		t.Fatalf("Put() = %v, want nil", err)
	}
	for name, s := range map[string]*MemoryStore{"a": a, "b": b} {
		if _, err := s.Get(context.Background(), "run-2"); err != nil {
			t.Errorf("backend %s: Get() = %v, want nil", name, err)
		}
	}
}

func TestMultiStorePutPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	m := NewMultiStore(NewMemoryStore(), &failingStore{err: wantErr})

	err := m.Put(context.Background(), "run-3", sampleExecution(false))
	if err == nil || !errors.Is(err, wantErr) {
		t.Errorf("Put() = %v, want wrapping %v", err, wantErr)
	}
}

func TestMultiStoreGetWithNoBackendsReturnsNotFound(t *testing.T) {
	m := NewMultiStore()
	if _, err := m.Get(context.Background(), "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty MultiStore = %v, want ErrNotFound", err)
	}
}
