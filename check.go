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
	"runtime"
	"strings"
)

// requireFailedSignal is the typed unwinder a failing Require raises to
// abort the current run of the test body. Require's failure path panics immediately —
// there is no way to make Go evaluate Require(...) without first finishing
// the call — so a Handle chained onto a failing Require is never reached.
// A caller who needs extra diagnostic context on a Require failure should
// attach it via Check first.
type requireFailedSignal struct{}

// Handle lets a caller attach extra diagnostic context to the most recent
// Check/Require/Fail/Succeed call. It is a no-op when there is nothing to
// attach to: no test is running, or the check passed and recorded no
// error.
type Handle struct {
	err *TestError
}

// Context attaches a "context: msg" line to the failing check's diagnostic.
func (h *Handle) Context(msg string) *Handle {
	if h == nil || h.err == nil {
		return h
	}
	h.err.ExtraLines = append(h.err.ExtraLines, "context: "+msg)
	return h
}

// Note attaches a free-form "note: msg" line to the failing check's
// diagnostic.
func (h *Handle) Note(msg string) *Handle {
	if h == nil || h.err == nil {
		return h
	}
	h.err.ExtraLines = append(h.err.ExtraLines, "note: "+msg)
	return h
}

// Dump attaches the debug rendering of v to the failing check's
// diagnostic.
func (h *Handle) Dump(v any) *Handle {
	if h == nil || h.err == nil {
		return h
	}
	h.err.ExtraLines = append(h.err.ExtraLines, debugString(v))
	return h
}

// DumpLabel attaches a labeled debug rendering of v.
func (h *Handle) DumpLabel(label string, v any) *Handle {
	if h == nil || h.err == nil {
		return h
	}
	h.err.ExtraLines = append(h.err.ExtraLines, fmt.Sprintf("%s: %s", label, debugString(v)))
	return h
}

// recordCheck is the Go analogue of report_check_result: it is a no-op
// outside a running test, always updates the executed/failed counters
// when one is running, and appends (and returns a pointer into) a
// TestError only on failure, so that successful checks never create one.
func recordCheck(kind Kind, expr string, r Result, loc Location) *Handle {
	ctx := topContext()
	if ctx == nil {
		return &Handle{}
	}

	ctx.executedChecks++
	if r.Passed {
		return &Handle{}
	}
	ctx.failedChecks++

	prefix := "CHECK"
	if kind == KindRequire {
		prefix = "REQUIRE"
	}

	expanded := r.Expanded
	if r.Op == OpNone {
		// A unary capture (True) has no lhs/rhs to decompose, so its
		// Expanded is just the bare value (e.g. "false"); expr is only
		// known here, at the call site, so the readable diagnostic is
		// built here instead of in True.
		expanded = fmt.Sprintf("'%s' failed", expr)
	}

	err := &TestError{
		Expr:     fmt.Sprintf("%s(%s)", prefix, expr),
		Location: loc,
		Expanded: expanded,
	}
	ctx.errors = append(ctx.errors, err)
	return &Handle{err: err}
}

// Check evaluates a soft assertion: on failure it records a TestError and
// execution continues in the same section.
func Check(expr string, r Result) *Handle {
	_, file, line, _ := runtime.Caller(1)
	return recordCheck(KindCheck, expr, r, Location{File: file, Line: line})
}

// Require evaluates a hard assertion: on failure it records the same
// TestError a Check would, then immediately aborts the current run (the
// rest of the section and of the test body) by panicking with
// requireFailedSignal, which the scheduler loop recovers
// without adding a further error (the recorded TestError already explains
// the failure).
func Require(expr string, r Result) *Handle {
	_, file, line, _ := runtime.Caller(1)
	h := recordCheck(KindRequire, expr, r, Location{File: file, Line: line})
	if !r.Passed {
		panic(requireFailedSignal{})
	}
	return h
}

// Fail unconditionally records a failing check, e.g. for a switch default
// case that should never be reached. Extra message fragments are joined
// with "; " into the diagnostic.
func Fail(msg ...string) *Handle {
	_, file, line, _ := runtime.Caller(1)
	expanded := "failed"
	if len(msg) > 0 {
		expanded = strings.Join(msg, "; ")
	}
	h := recordCheck(KindCheck, "FAIL", Result{Passed: false, Expanded: expanded}, Location{File: file, Line: line})
	if h.err != nil {
		// recordCheck renders an OpNone failure as "'FAIL' failed"; Fail's
		// own message is the diagnostic instead.
		h.err.Expanded = expanded
	}
	return h
}

// Succeed unconditionally records a passing check. It exists so a
// section whose correctness is established without any comparison (e.g.
// "reached this point without panicking") still counts as having
// exercised an assertion, avoiding the synthesized empty-checks error.
func Succeed(msg ...string) *Handle {
	_, file, line, _ := runtime.Caller(1)
	expanded := "succeeded"
	if len(msg) > 0 {
		expanded = strings.Join(msg, "; ")
	}
	return recordCheck(KindCheck, "SUCCEED", Result{Passed: true, Expanded: expanded}, Location{File: file, Line: line})
}
