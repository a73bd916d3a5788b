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
	"fmt"

	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// GCPResource merges DefaultResource with attributes detected from the
// GCP environment (project, zone, instance), so a schedule run executed
// on GCE/GKE/Cloud Run CI workers is tagged automatically.
func GCPResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithAttributes(DefaultResource(serviceName).Attributes()...),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to detect GCP resource attributes: %w", err)
	}
	return res, nil
}

// StartRuntimeInstrumentation reports Go runtime stats (goroutines, GC
// pauses, heap size) via mp, useful for spotting a test suite that is
// leaking goroutines across runs.
func StartRuntimeInstrumentation(mp metric.MeterProvider) error {
	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		return fmt.Errorf("telemetry: failed to start runtime instrumentation: %w", err)
	}
	return nil
}
