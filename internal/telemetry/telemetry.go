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

// Package telemetry wires the engine's own execution up to OpenTelemetry,
// giving a schedule run counters, a duration histogram, and trace spans
// around each instance the same way a storage layer instruments its own
// calls with tracer.Start.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-nexus/nexus"
)

const instrumentationName = "github.com/go-nexus/nexus"

var tracer = otel.Tracer(instrumentationName)

// Recorder holds the instruments used to observe a schedule run.
type Recorder struct {
	testsTotal        metric.Int64Counter
	testsFailedTotal  metric.Int64Counter
	checksTotal       metric.Int64Counter
	checksFailedTotal metric.Int64Counter
	durationSeconds   metric.Float64Histogram
}

// NewRecorder creates a Recorder from the given meter, registering every
// instrument the engine reports against.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	testsTotal, err := meter.Int64Counter("nexus.tests_total", metric.WithDescription("Total test instances executed"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create tests_total counter: %w", err)
	}
	testsFailedTotal, err := meter.Int64Counter("nexus.tests_failed_total", metric.WithDescription("Test instances considered failing"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create tests_failed_total counter: %w", err)
	}
	checksTotal, err := meter.Int64Counter("nexus.checks_total", metric.WithDescription("Total CHECK/REQUIRE evaluations"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create checks_total counter: %w", err)
	}
	checksFailedTotal, err := meter.Int64Counter("nexus.checks_failed_total", metric.WithDescription("Failed CHECK/REQUIRE evaluations"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create checks_failed_total counter: %w", err)
	}
	durationSeconds, err := meter.Float64Histogram("nexus.leaf_duration_seconds", metric.WithDescription("Duration of each explored leaf section"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create leaf_duration_seconds histogram: %w", err)
	}

	return &Recorder{
		testsTotal:        testsTotal,
		testsFailedTotal:  testsFailedTotal,
		checksTotal:       checksTotal,
		checksFailedTotal: checksFailedTotal,
		durationSeconds:   durationSeconds,
	}, nil
}

// ObserveInstance records one TestExecution's stats against the
// instruments and wraps it in its own trace span.
func (r *Recorder) ObserveInstance(ctx context.Context, exec nexus.TestExecution) {
	_, span := tracer.Start(ctx, "nexus.execute_instance",
		trace.WithAttributes(attribute.String("nexus.test_name", exec.Instance.Declaration.Name)))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("nexus.test_name", exec.Instance.Declaration.Name))
	r.testsTotal.Add(ctx, 1, attrs)
	if exec.IsConsideredFailing() {
		r.testsFailedTotal.Add(ctx, 1, attrs)
	}
	r.checksTotal.Add(ctx, int64(exec.Root.ExecutedChecks), attrs)
	r.checksFailedTotal.Add(ctx, int64(exec.Root.FailedChecks), attrs)

	var recordLeaves func(s nexus.Section)
	recordLeaves = func(s nexus.Section) {
		if len(s.Subsections) == 0 {
			r.durationSeconds.Record(ctx, s.DurationSeconds, attrs)
			return
		}
		for _, sub := range s.Subsections {
			recordLeaves(sub)
		}
	}
	recordLeaves(exec.Root)
}

// NewHTTPMeterProvider builds a MeterProvider that exports over plain
// HTTP OTLP (otlpmetrichttp), tagged with res (pass GCPResource's result
// for GCP-detected attributes). Call the returned shutdown func before
// process exit to flush pending metrics.
func NewHTTPMeterProvider(ctx context.Context, endpoint string, res *resource.Resource) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: failed to create OTLP HTTP metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	return mp, mp.Shutdown, nil
}

// NewTracerProvider builds a TracerProvider, used so ObserveInstance's
// spans go somewhere other than the no-op default.
func NewTracerProvider(res *resource.Resource) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
}

// DefaultResource returns a resource describing this process, tagged
// with semconv's service-name convention.
func DefaultResource(serviceName string) *resource.Resource {
	return resource.NewSchemaless(semconv.ServiceName(serviceName))
}
