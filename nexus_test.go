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
	"strings"
	"testing"
)

func runBody(name string, body func()) TestExecution {
	decl := &Declaration{
		Name:     name,
		Config:   Cfg{Enabled: true},
		Function: body,
		Location: Location{File: "nexus_test.go", Line: 1},
	}
	return ExecuteInstance(Instance{Declaration: decl})
}

func TestCheckArithmetic(t *testing.T) {
	exec := runBody("arithmetic", func() {
		Check("2+2 == 4", Equal(2+2, 4))
		Check("2+2 == 5", Equal(2+2, 5))
	})

	if got, want := exec.Root.ExecutedChecks, 2; got != want {
		t.Errorf("ExecutedChecks = %d, want %d", got, want)
	}
	if got, want := exec.Root.FailedChecks, 1; got != want {
		t.Errorf("FailedChecks = %d, want %d", got, want)
	}
	if !exec.IsConsideredFailing() {
		t.Errorf("expected execution to be considered failing")
	}
	if len(exec.Root.Errors) != 1 || !strings.Contains(exec.Root.Errors[0].Expanded, "4 == 5") {
		t.Errorf("unexpected errors: %+v", exec.Root.Errors)
	}
}

func TestSectionPreorderTraversal(t *testing.T) {
	var order []string
	exec := runBody("tree", func() {
		Section("a", func() {
			Section("a1", func() {
				order = append(order, "a1")
				Check("true", True(true))
			})
			Section("a2", func() {
				order = append(order, "a2")
				Check("true", True(true))
			})
		})
		Section("b", func() {
			order = append(order, "b")
			Check("true", True(true))
		})
	})

	want := []string{"a1", "a2", "b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("order[%d] = %q, want %q (full order %v)", i, order[i], name, order)
		}
	}
	if exec.IsConsideredFailing() {
		t.Errorf("unexpected failure: %+v", exec.Root.Errors)
	}
	if exec.Root.ExecutedChecks != 3 {
		t.Errorf("ExecutedChecks = %d, want 3", exec.Root.ExecutedChecks)
	}
}

func TestDynamicLoopSections(t *testing.T) {
	var seen []int
	exec := runBody("loop", func() {
		for i := 0; i < 3; i++ {
			Section(fmt.Sprintf("iter-%d", i), func() {
				seen = append(seen, i)
				Check("true", True(true))
			})
		}
	})

	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 2 {
		t.Errorf("seen = %v, want [0 1 2]", seen)
	}
	if exec.IsConsideredFailing() {
		t.Errorf("unexpected failure: %+v", exec.Root.Errors)
	}
}

func TestDuplicateSectionMisuse(t *testing.T) {
	runs := 0
	exec := runBody("dup", func() {
		runs++
		Section("x", func() {
			Check("true", True(true))
		})
		Section("x", func() {
			Check("true", True(true))
		})
	})

	if runs != 1 {
		t.Errorf("expected the duplicate to abort after a single run, got %d runs", runs)
	}
	if !exec.IsConsideredFailing() {
		t.Errorf("expected duplicate section to be considered failing")
	}
	found := false
	for _, e := range exec.Root.Errors {
		if strings.Contains(e.Expr, "duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a duplicate-section error, got %+v", exec.Root.Errors)
	}
}

func TestRequireAbortsRemainderOfSection(t *testing.T) {
	var ran []string
	exec := runBody("require", func() {
		Section("first", func() {
			ran = append(ran, "first-before")
			Require("1 == 2", Equal(1, 2))
			ran = append(ran, "first-after")
		})
		Section("second", func() {
			ran = append(ran, "second")
			Check("true", True(true))
		})
	})

	for _, s := range ran {
		if s == "first-after" {
			t.Errorf("code after a failing Require must not run, ran=%v", ran)
		}
	}
	foundFirst, foundSecond := false, false
	for _, s := range ran {
		if s == "first-before" {
			foundFirst = true
		}
		if s == "second" {
			foundSecond = true
		}
	}
	if !foundFirst || !foundSecond {
		t.Errorf("expected both sections to run once each, ran=%v", ran)
	}
	if !exec.IsConsideredFailing() {
		t.Errorf("expected failure from the aborted Require")
	}
}

func TestEmptyLeafSectionIsFailing(t *testing.T) {
	exec := runBody("empty", func() {
		Section("nothing-here", func() {})
	})

	if !exec.IsConsideredFailing() {
		t.Errorf("expected a leaf with no checks to be considered failing")
	}
	var sawEmpty bool
	for _, s := range exec.Root.Subsections {
		for _, e := range s.Errors {
			if strings.Contains(e.Expanded, "did not contain CHECK/REQUIRE") {
				sawEmpty = true
			}
		}
	}
	if !sawEmpty {
		t.Errorf("expected an empty-checks error on the leaf, got %+v", exec.Root)
	}
}

func TestUncaughtErrorIsClassified(t *testing.T) {
	exec := runBody("panics", func() {
		Check("true", True(true))
		panic(fmt.Errorf("boom"))
	})

	if !exec.IsConsideredFailing() {
		t.Errorf("expected the uncaught panic to fail the test")
	}
	found := false
	for _, e := range exec.Root.Errors {
		if strings.Contains(e.Expanded, "uncaught exception: boom") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an uncaught-exception error mentioning %q, got %+v", "boom", exec.Root.Errors)
	}
}

func TestUncaughtUnknownValueIsClassified(t *testing.T) {
	exec := runBody("panics-unknown", func() {
		panic(42)
	})

	found := false
	for _, e := range exec.Root.Errors {
		if e.Expanded == "uncaught unknown exception" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an 'uncaught unknown exception' error, got %+v", exec.Root.Errors)
	}
}

func TestScheduleFiltersBySubstring(t *testing.T) {
	reg := &Registry{}
	reg.AddDeclaration("alpha/one", Cfg{Enabled: true}, func() {}, Location{})
	reg.AddDeclaration("alpha/two", Cfg{Enabled: true}, func() {}, Location{})
	reg.AddDeclaration("beta/one", Cfg{Enabled: true}, func() {}, Location{})

	sched := CreateSchedule(ScheduleConfig{Filters: []string{"alpha"}}, reg)
	if len(sched.Instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(sched.Instances))
	}
	for _, inst := range sched.Instances {
		if !strings.HasPrefix(inst.Declaration.Name, "alpha") {
			t.Errorf("unexpected instance %q selected by filter", inst.Declaration.Name)
		}
	}
}

func TestScheduleSkipsDisabledUnlessExplicit(t *testing.T) {
	reg := &Registry{}
	reg.AddDeclaration("enabled", Cfg{Enabled: true}, func() {}, Location{})
	reg.AddDeclaration("disabled", Cfg{Enabled: false}, func() {}, Location{})

	sched := CreateSchedule(ScheduleConfig{}, reg)
	if len(sched.Instances) != 1 || sched.Instances[0].Declaration.Name != "enabled" {
		t.Fatalf("unexpected schedule: %+v", sched.Instances)
	}

	cfg := ScheduleConfigFromArgs([]string{"disabled"})
	sched = CreateSchedule(cfg, reg)
	if len(sched.Instances) != 1 || sched.Instances[0].Declaration.Name != "disabled" {
		t.Fatalf("expected exact-name filter to re-enable disabled test, got %+v", sched.Instances)
	}
}

func TestHandleChainAttachesExtraLines(t *testing.T) {
	exec := runBody("handle-chain", func() {
		Check("1 == 2", Equal(1, 2)).
			Context("context line").
			Note("note line").
			Dump(42).
			DumpLabel("label", []int{1, 2, 3})
	})

	if len(exec.Root.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %+v", len(exec.Root.Errors), exec.Root.Errors)
	}
	want := []string{
		"context: context line",
		"note: note line",
		debugString(42),
		"label: " + debugString([]int{1, 2, 3}),
	}
	got := exec.Root.Errors[0].ExtraLines
	if len(got) != len(want) {
		t.Fatalf("ExtraLines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtraLines[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHandleChainIsNoopOnPassingCheck(t *testing.T) {
	exec := runBody("handle-chain-pass", func() {
		Check("1 == 1", Equal(1, 1)).Context("should never be attached anywhere")
		Check("true", True(true))
	})

	if exec.IsConsideredFailing() {
		t.Errorf("unexpected failure: %+v", exec.Root.Errors)
	}
	if len(exec.Root.Errors) != 0 {
		t.Errorf("expected no errors, got %+v", exec.Root.Errors)
	}
}

func TestFailRecordsCheckKindFailure(t *testing.T) {
	exec := runBody("fail", func() {
		Fail("unreachable default case")
		Check("true", True(true))
	})

	if !exec.IsConsideredFailing() {
		t.Errorf("expected Fail to mark the execution as failing")
	}
	if exec.Root.ExecutedChecks != 2 || exec.Root.FailedChecks != 1 {
		t.Errorf("ExecutedChecks/FailedChecks = %d/%d, want 2/1", exec.Root.ExecutedChecks, exec.Root.FailedChecks)
	}
	if len(exec.Root.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %+v", len(exec.Root.Errors), exec.Root.Errors)
	}
	e := exec.Root.Errors[0]
	if e.Expr != "CHECK(FAIL)" {
		t.Errorf("Expr = %q, want %q", e.Expr, "CHECK(FAIL)")
	}
	if e.Expanded != "unreachable default case" {
		t.Errorf("Expanded = %q, want %q", e.Expanded, "unreachable default case")
	}
}

func TestFailWithNoArgsUsesDefaultMessage(t *testing.T) {
	exec := runBody("fail-no-args", func() {
		Fail()
	})

	if len(exec.Root.Errors) != 1 || exec.Root.Errors[0].Expanded != "failed" {
		t.Errorf("got errors %+v, want a single error with Expanded %q", exec.Root.Errors, "failed")
	}
}

func TestSucceedRecordsPassingCheckAndAvoidsEmptySectionError(t *testing.T) {
	exec := runBody("succeed", func() {
		Succeed("reached the end without panicking")
	})

	if exec.IsConsideredFailing() {
		t.Errorf("unexpected failure: %+v", exec.Root.Errors)
	}
	if exec.Root.ExecutedChecks != 1 || exec.Root.FailedChecks != 0 {
		t.Errorf("ExecutedChecks/FailedChecks = %d/%d, want 1/0", exec.Root.ExecutedChecks, exec.Root.FailedChecks)
	}
	if len(exec.Root.Errors) != 0 {
		t.Errorf("expected no errors, got %+v", exec.Root.Errors)
	}
}

func TestSucceedWithNoArgsRecordsNoError(t *testing.T) {
	var captured *Handle
	runBody("succeed-default", func() {
		captured = Succeed()
	})
	if captured == nil || captured.err != nil {
		t.Errorf("expected Succeed's Handle to wrap no error, got %+v", captured)
	}
}

// TestVanishingSectionIsDetectedAsUnreachable exercises the scenario where a
// section is declared on one run but the path to it is not retraced on a
// later run before its parent is considered done: the child is discovered
// open but never closed, never becomes isDone, and must be synthesized into
// an unreachable-section error rather than hanging the scheduler loop.
func TestVanishingSectionIsDetectedAsUnreachable(t *testing.T) {
	run := 0
	exec := runBody("vanishing", func() {
		run++
		Section("stable", func() {
			Check("true", True(true))
			// "always" runs and claims this run's one leaf slot before
			// "conditional" is ever reached, so on run 1 "conditional" is
			// only discovered and queued, never entered.
			Section("always", func() {
				Check("true", True(true))
			})
			if run == 1 {
				Section("conditional", func() {
					Check("true", True(true))
				})
			}
		})
	})

	if run < 2 {
		t.Fatalf("expected at least 2 runs, got %d", run)
	}
	if !exec.IsConsideredFailing() {
		t.Errorf("expected the vanished section to be considered failing")
	}

	var stable *Section
	for i := range exec.Root.Subsections {
		if exec.Root.Subsections[i].Name == "stable" {
			stable = &exec.Root.Subsections[i]
		}
	}
	if stable == nil {
		t.Fatalf("expected a %q subsection, got %+v", "stable", exec.Root.Subsections)
	}

	found := false
	for _, e := range stable.Errors {
		if strings.Contains(e.Expanded, "unreachable") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unreachable-section error on %q, got %+v", "stable", stable.Errors)
	}
}
