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

// The nexus binary runs registered tests with a live progress view.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"k8s.io/klog/v2"

	"github.com/go-nexus/nexus"
	"github.com/go-nexus/nexus/internal/resultstore"
	"github.com/go-nexus/nexus/internal/telemetry"
	"github.com/go-nexus/nexus/internal/trend"
)

var (
	verbose         = flag.Bool("v_progress", false, "Log each test as it starts, and each test that fails, in addition to the live view.")
	jsonOut         = flag.String("json_out", "", "If set, write the full schedule execution as JSON to this path.")
	resultStoreKind = flag.String("resultstore", "memory", "Result store backend: memory, s3, gcs, spanner, mysql, or none.")
	resultStoreDSN  = flag.String("resultstore_dsn", "", "Backend-specific location: bucket name (objects go under nexus-runs/), Spanner database path, or MySQL DSN.")
	noLiveProgress  = flag.Bool("no_progress", false, "Disable the bubbletea live progress view (useful in CI logs).")
	otlpEndpoint    = flag.String("otlp_endpoint", "", "If set, export per-instance counters, a duration histogram, and trace spans to this OTLP HTTP collector.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	ctx := context.Background()

	cfg := nexus.ScheduleConfigFromArgs(flag.Args())
	cfg.Verbose = *verbose
	sched := nexus.CreateSchedule(cfg, nexus.StaticRegistry())
	if len(sched.Instances) == 0 {
		klog.Exitf("nexus: no tests matched %v", flag.Args())
	}

	runID := uuid.NewString()
	tracker := trend.NewTracker()

	recorder, shutdownTelemetry, err := setupTelemetry(ctx)
	if err != nil {
		klog.Errorf("nexus: failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(ctx); err != nil {
			klog.Errorf("nexus: failed to flush telemetry: %v", err)
		}
	}()

	observe := func(e nexus.TestExecution) {
		reportRegression(tracker, e)
		if recorder != nil {
			recorder.ObserveInstance(ctx, e)
		}
	}

	var exec nexus.ScheduleExecution
	if *noLiveProgress {
		exec = nexus.ExecuteWithObserver(sched, cfg, observe)
	} else {
		exec = runWithProgress(sched, cfg, observe)
	}

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, exec); err != nil {
			klog.Errorf("nexus: failed to write %s: %v", *jsonOut, err)
		}
	}

	if err := publishResult(ctx, runID, exec); err != nil {
		klog.Errorf("nexus: failed to publish result: %v", err)
	}

	printSummary(exec)
	if exec.CountFailedTests() > 0 {
		os.Exit(1)
	}
}

func runWithProgress(sched nexus.Schedule, cfg nexus.ScheduleConfig, observe func(nexus.TestExecution)) nexus.ScheduleExecution {
	model := newProgressModel(len(sched.Instances))
	p := tea.NewProgram(model)

	var exec nexus.ScheduleExecution
	done := make(chan struct{})
	go func() {
		exec = nexus.ExecuteWithObserver(sched, cfg, func(e nexus.TestExecution) {
			observe(e)
			p.Send(instanceDoneMsg{exec: e})
		})
		p.Send(allDoneMsg{})
		close(done)
	}()

	if _, err := p.Run(); err != nil {
		klog.Errorf("nexus: progress view exited with error: %v", err)
	}
	<-done
	return exec
}

func reportRegression(tracker *trend.Tracker, e nexus.TestExecution) {
	if reg, ok := tracker.Observe(e); ok {
		klog.Warningf("nexus: %s", reg)
	}
}

// setupTelemetry wires up OpenTelemetry when -otlp_endpoint is set,
// returning a no-op shutdown and a nil Recorder otherwise so callers don't
// need to branch on whether telemetry is enabled.
func setupTelemetry(ctx context.Context) (*telemetry.Recorder, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if *otlpEndpoint == "" {
		return nil, noop, nil
	}

	res := telemetry.DefaultResource("nexus")
	mp, shutdownMetrics, err := telemetry.NewHTTPMeterProvider(ctx, *otlpEndpoint, res)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create meter provider: %w", err)
	}

	tp := telemetry.NewTracerProvider(res)
	otel.SetTracerProvider(tp)

	recorder, err := telemetry.NewRecorder(mp.Meter("nexus"))
	if err != nil {
		return nil, shutdownMetrics, fmt.Errorf("failed to create recorder: %w", err)
	}

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return shutdownMetrics(ctx)
	}
	return recorder, shutdown, nil
}

func publishResult(ctx context.Context, runID string, exec nexus.ScheduleExecution) error {
	store, err := newResultStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	return store.Put(ctx, runID, exec)
}

func newResultStore(ctx context.Context) (resultstore.Store, error) {
	switch *resultStoreKind {
	case "none":
		return nil, nil
	case "memory":
		return resultstore.NewMemoryStore(), nil
	case "s3":
		return resultstore.NewS3Store(ctx, *resultStoreDSN, "nexus-runs")
	case "gcs":
		return resultstore.NewGCSStore(ctx, *resultStoreDSN, "nexus-runs")
	case "spanner":
		return resultstore.NewSpannerStore(ctx, *resultStoreDSN)
	case "mysql":
		return resultstore.NewMySQLStore(*resultStoreDSN)
	default:
		return nil, fmt.Errorf("unknown -resultstore kind %q", *resultStoreKind)
	}
}

func writeJSON(path string, exec nexus.ScheduleExecution) error {
	b, err := json.MarshalIndent(exec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule execution: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func printSummary(exec nexus.ScheduleExecution) {
	for _, e := range exec.Executions {
		if e.IsConsideredFailing() {
			fmt.Printf("FAILED %s (%s)\n", e.Instance.Declaration.Name, humanizeDuration(e.Root.DurationSeconds))
		}
	}
	fmt.Printf("%d/%d tests failed, %d/%d checks failed\n",
		exec.CountFailedTests(), exec.CountTotalTests(), exec.CountFailedChecks(), exec.CountTotalChecks())
}

func humanizeDuration(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).String()
}
