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

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Run drives the static registry end to end: build a schedule from args,
// execute it, print a short summary, and return a process exit code (0
// when nothing failed). It is the library-level equivalent of the
// original nx::run CLI entrypoint; cmd/nexus wraps this with real flag
// parsing, live progress reporting and result-store publishing.
func Run(args []string) int {
	cfg := ScheduleConfigFromArgs(args)
	sched := CreateSchedule(cfg, StaticRegistry())

	if len(sched.Instances) == 0 {
		klog.Warning("nexus: no tests matched")
		return 0
	}

	exec := Execute(sched, cfg)
	printSummary(exec)

	if exec.CountFailedTests() > 0 {
		return 1
	}
	return 0
}

func printSummary(exec ScheduleExecution) {
	for _, e := range exec.Executions {
		if !e.IsConsideredFailing() {
			continue
		}
		fmt.Printf("FAILED %s\n", e.Instance.Declaration.Name)
		printFailingSection(e.Root, "  ")
	}
	fmt.Printf("%d/%d tests failed, %d/%d checks failed\n",
		exec.CountFailedTests(), exec.CountTotalTests(),
		exec.CountFailedChecks(), exec.CountTotalChecks())
}

func printFailingSection(sec Section, indent string) {
	if !sec.IsConsideredFailing {
		return
	}
	for _, e := range sec.Errors {
		fmt.Printf("%s%s: %s (%s)\n", indent, e.Location, e.Expanded, e.Expr)
		for _, extra := range e.ExtraLines {
			fmt.Printf("%s  %s\n", indent, extra)
		}
	}
	for _, child := range sec.Subsections {
		printFailingSection(child, indent+"  ")
	}
}
