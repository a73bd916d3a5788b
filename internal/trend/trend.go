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

// Package trend tracks each test's duration across runs with a moving
// average, so the CLI can flag a test that has gotten noticeably slower
// even though it still passes.
package trend

import (
	"fmt"
	"sync"

	movingaverage "github.com/RobinUS2/golang-moving-average"

	"github.com/go-nexus/nexus"
)

// defaultWindow is how many recent runs of a given test feed its moving
// average.
const defaultWindow = 20

// SlowdownThreshold is how much slower (as a fraction of the moving
// average) a run must be before Tracker.Observe reports it as a
// regression.
const SlowdownThreshold = 0.5

// Tracker keeps one moving average per test name.
type Tracker struct {
	mu        sync.Mutex
	durations map[string]*movingaverage.MovingAverage
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{durations: make(map[string]*movingaverage.MovingAverage)}
}

// Regression describes a test whose latest run was significantly slower
// than its recent history.
type Regression struct {
	TestName    string
	LastSeconds float64
	AvgSeconds  float64
}

func (r Regression) String() string {
	return fmt.Sprintf("%s got slower: %.3fs vs a recent average of %.3fs", r.TestName, r.LastSeconds, r.AvgSeconds)
}

// Observe feeds one test's result into its moving average and reports a
// Regression if the new duration exceeds the prior average by more than
// SlowdownThreshold. It never prevents the test from being reported as
// passing: slowdown tracking augments, but does not replace, the
// pass/fail verdict from Section.IsConsideredFailing.
func (t *Tracker) Observe(exec nexus.TestExecution) (Regression, bool) {
	name := exec.Instance.Declaration.Name
	duration := exec.Root.DurationSeconds

	t.mu.Lock()
	defer t.mu.Unlock()

	ma, ok := t.durations[name]
	if !ok {
		ma = movingaverage.New(defaultWindow)
		t.durations[name] = ma
	}

	prevAvg := ma.Avg()
	ma.Add(duration)

	if prevAvg <= 0 {
		return Regression{}, false
	}
	if duration > prevAvg*(1+SlowdownThreshold) {
		return Regression{TestName: name, LastSeconds: duration, AvgSeconds: prevAvg}, true
	}
	return Regression{}, false
}
