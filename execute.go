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
	"time"

	"k8s.io/klog/v2"
)

// ExecuteInstance runs a single scheduled instance to completion, i.e.
// repeatedly invokes its declaration's function until every reachable
// leaf section of the tree it discovers has executed exactly once. Each
// invocation is one "run" of the loop: at most one new leaf is explored
// per run, retrying until every reachable leaf has run exactly once.
func ExecuteInstance(inst Instance) TestExecution {
	decl := inst.Declaration
	ctx := &testContext{root: newSectionNode(decl.Name, decl.Location)}
	ctx.root.lastVisited = -1

	for !ctx.root.isDone {
		runOnce(ctx, decl)
	}

	exec := TestExecution{Instance: inst}
	ctx.root.finalizeSectionTo(&exec.Root)
	return exec
}

// runOnce drives exactly one pass of the scheduler loop: reset the
// per-run bookkeeping, run the declaration's function under a fresh
// currPath rooted at ctx.root, time it, classify any panic, and
// attribute the run's stats to whichever node ran as this run's leaf.
func runOnce(ctx *testContext, decl *Declaration) {
	ctx.execCount++
	ctx.leafSection = nil
	ctx.currPath = []*sectionNode{ctx.root}
	ctx.executedChecks = 0
	ctx.failedChecks = 0
	ctx.errors = nil
	ctx.root.nextOpen = nil

	pushContext(ctx)
	defer popContext()

	start := time.Now()
	panicked, abortLoop := runProtected(ctx, decl)
	duration := time.Since(start).Seconds()

	target := ctx.leafSection
	if target == nil {
		target = ctx.root
	}
	target.executedChecks += ctx.executedChecks
	target.failedChecks += ctx.failedChecks
	target.errors = append(target.errors, ctx.errors...)
	target.durationSeconds += duration

	if abortLoop {
		ctx.root.isDone = true
		return
	}

	// If no section was ever entered this run, decl's own body was the
	// run's whole leaf: there is nothing else to discover by retrying, so
	// it is done regardless of whether it panicked.
	if ctx.leafSection == nil {
		ctx.root.isDone = true
		return
	}

	// A panic (typically a failing Require) unwinds straight out of
	// decl.Function, so any sibling Section call lexically after the
	// point of the panic is never reached this run at all — not even
	// skipped, simply never invoked — and so never gets the chance to
	// leave its mark on root.nextOpen. Treat any panicked run as
	// inconclusive and retry; the branch that already finished is now
	// isDone and will be skipped immediately next time, so this costs at
	// most one extra run before the remaining siblings are reached and
	// root.nextOpen starts reflecting reality again.
	if panicked {
		return
	}

	// root.nextOpen is left non-nil by openSection whenever a top-level
	// Section call was skipped this run because a sibling already claimed
	// the run's one leaf slot (see openSection/closeSection): that means
	// an undone branch remains. If it is nil, the branch explored this
	// run was the last one outstanding.
	if ctx.root.nextOpen == nil {
		ctx.root.isDone = true
	}
}

// runProtected invokes decl.Function, recovering and classifying any
// panic the way the original's catch clauses classify C++ exceptions.
// It reports whether the caller's whole schedule loop for this instance
// must stop (framework-level corruption), as opposed to simply treating
// this run as a failed-but-survivable leaf.
func runProtected(ctx *testContext, decl *Declaration) (panicked, abortLoop bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		panicked = true

		switch v := r.(type) {
		case requireFailedSignal:
			// Already recorded by Require; nothing further to add.

		case duplicateSectionSignal:
			ctx.errors = append(ctx.errors, &TestError{
				Expr:     "duplicate section",
				Location: v.location,
				Expanded: fmt.Sprintf("duplicate section: %q", v.name),
			})
			abortLoop = true

		case error:
			ctx.errors = append(ctx.errors, &TestError{
				Expr:     "uncaught exception",
				Location: decl.Location,
				Expanded: fmt.Sprintf("uncaught exception: %s", v.Error()),
			})

		case string:
			ctx.errors = append(ctx.errors, &TestError{
				Expr:     "uncaught exception",
				Location: decl.Location,
				Expanded: fmt.Sprintf("uncaught exception: %s", v),
			})

		default:
			klog.V(2).Infof("nexus: %s panicked with non-error, non-string value %#v", decl.Name, v)
			ctx.errors = append(ctx.errors, &TestError{
				Expr:     "uncaught exception",
				Location: decl.Location,
				Expanded: "uncaught unknown exception",
			})
		}
	}()

	decl.Function()
	return false, false
}

// Execute runs every instance in sched in order, producing one
// TestExecution per instance.
func Execute(sched Schedule, cfg ScheduleConfig) ScheduleExecution {
	return ExecuteWithObserver(sched, cfg, nil)
}

// ExecuteWithObserver is Execute, additionally invoking observe (if
// non-nil) after each instance finishes. cmd/nexus uses this to drive a
// live progress view without the core engine needing to know bubbletea
// exists.
func ExecuteWithObserver(sched Schedule, cfg ScheduleConfig, observe func(TestExecution)) ScheduleExecution {
	var result ScheduleExecution
	for _, inst := range sched.Instances {
		if cfg.Verbose {
			klog.Infof("nexus: running %s", inst.Declaration.Name)
		}
		exec := ExecuteInstance(inst)
		result.Executions = append(result.Executions, exec)
		if cfg.Verbose && exec.IsConsideredFailing() {
			klog.Infof("nexus: %s failed", inst.Declaration.Name)
		}
		if observe != nil {
			observe(exec)
		}
	}
	return result
}
