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

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/go-nexus/nexus"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				return total
			}
		}
	}
	t.Fatalf("no counter named %q found", name)
	return 0
}

func TestRecorderObserveInstance(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	rec, err := NewRecorder(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewRecorder() = %v, want nil", err)
	}

	passing := nexus.TestExecution{
		Instance: nexus.Instance{Declaration: &nexus.Declaration{Name: "passing_test"}},
		Root:     nexus.Section{ExecutedChecks: 2},
	}
	failing := nexus.TestExecution{
		Instance: nexus.Instance{Declaration: &nexus.Declaration{Name: "failing_test"}},
		Root:     nexus.Section{ExecutedChecks: 3, FailedChecks: 1, IsConsideredFailing: true},
	}

	ctx := context.Background()
	rec.ObserveInstance(ctx, passing)
	rec.ObserveInstance(ctx, failing)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() = %v, want nil", err)
	}

	if got, want := sumOf(t, rm, "nexus.tests_total"), int64(2); got != want {
		t.Errorf("tests_total = %d, want %d", got, want)
	}
	if got, want := sumOf(t, rm, "nexus.tests_failed_total"), int64(1); got != want {
		t.Errorf("tests_failed_total = %d, want %d", got, want)
	}
	if got, want := sumOf(t, rm, "nexus.checks_total"), int64(5); got != want {
		t.Errorf("checks_total = %d, want %d", got, want)
	}
	if got, want := sumOf(t, rm, "nexus.checks_failed_total"), int64(1); got != want {
		t.Errorf("checks_failed_total = %d, want %d", got, want)
	}
}

func TestDefaultResource(t *testing.T) {
	res := DefaultResource("nexus-test")
	found := false
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "service.name" && attr.Value.AsString() == "nexus-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("DefaultResource(%q) attributes = %v, want service.name attribute", "nexus-test", res.Attributes())
	}
}
