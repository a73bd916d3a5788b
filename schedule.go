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

package nexus

import "strings"

// Instance is a reference to a declaration plus its scheduled position. It
// is immutable once the schedule is built.
type Instance struct {
	Declaration *Declaration
}

// ScheduleConfig is the collaborator contract the core treats opaquely:
// the engine only reads Filters/RunDisabledTests/Verbose, never parses
// argv itself (that belongs to whatever CLI wraps this package, see
// cmd/nexus). IsDiscoveryMode and ReportXMLResults exist purely so a
// reporter-mode flag can ride alongside the schedule without the core
// caring what it means.
type ScheduleConfig struct {
	Filters          []string
	RunDisabledTests bool
	Verbose          bool
	IsDiscoveryMode  bool
	ReportXMLResults bool
}

// ScheduleConfigFromArgs builds a ScheduleConfig from bare positional
// arguments (already flag-stripped): every argument is a filter, and the
// presence of any filter lacking a '*' wildcard implies the caller wants a
// specific (possibly disabled) test run by exact-ish name, so disabled
// tests are re-enabled for this run.
func ScheduleConfigFromArgs(args []string) ScheduleConfig {
	cfg := ScheduleConfig{Filters: append([]string(nil), args...)}
	for _, f := range cfg.Filters {
		if !strings.Contains(f, "*") {
			cfg.RunDisabledTests = true
			break
		}
	}
	return cfg
}

// Schedule is the ordered set of test instances selected to run.
type Schedule struct {
	Instances []Instance
}

// CreateSchedule filters registry declarations by enablement and by
// substring match against cfg.Filters. Matching is intentionally simple
// substring matching rather than real glob syntax; richer pattern
// matching is left to whatever wraps this function.
func CreateSchedule(cfg ScheduleConfig, reg *Registry) Schedule {
	var sched Schedule
	for _, decl := range reg.Declarations {
		if !decl.Config.Enabled && !cfg.RunDisabledTests {
			continue
		}

		if len(cfg.Filters) > 0 {
			matched := false
			for _, f := range cfg.Filters {
				if f == "" {
					continue
				}
				if strings.Contains(decl.Name, f) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		sched.Instances = append(sched.Instances, Instance{Declaration: decl})
	}
	return sched
}
