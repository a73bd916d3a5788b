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

package trend

import (
	"testing"

	"github.com/go-nexus/nexus"
)

func execWithDuration(name string, seconds float64) nexus.TestExecution {
	return nexus.TestExecution{
		Instance: nexus.Instance{Declaration: &nexus.Declaration{Name: name}},
		Root:     nexus.Section{DurationSeconds: seconds},
	}
}

func TestTrackerFirstObservationNeverRegresses(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Observe(execWithDuration("t", 10)); ok {
		t.Errorf("Observe() on first run reported a regression, want none (no history yet)")
	}
}

func TestTrackerFlagsSlowdown(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.Observe(execWithDuration("t", 1.0))
	}
	reg, ok := tr.Observe(execWithDuration("t", 10.0))
	if !ok {
		t.Fatalf("Observe() after a 10x slowdown reported no regression, want one")
	}
	if reg.TestName != "t" {
		t.Errorf("Regression.TestName = %q, want %q", reg.TestName, "t")
	}
	if reg.LastSeconds != 10.0 {
		t.Errorf("Regression.LastSeconds = %v, want 10.0", reg.LastSeconds)
	}
}

func TestTrackerIgnoresSmallVariance(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.Observe(execWithDuration("t", 1.0))
	}
	if _, ok := tr.Observe(execWithDuration("t", 1.1)); ok {
		t.Errorf("Observe() after a 10%% increase reported a regression, want none (below SlowdownThreshold)")
	}
}

func TestTrackerTracksEachTestNameIndependently(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.Observe(execWithDuration("slow_history", 5.0))
	}
	if _, ok := tr.Observe(execWithDuration("new_test", 100.0)); ok {
		t.Errorf("Observe() on a brand new test name reported a regression, want none (no history for new_test yet)")
	}
}
