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

// testContext holds everything mutated while one run of a test's callable
// is executing. A test body runs single-threaded and cooperatively, so a
// package-level stack of contexts, rather than passing a context value
// through every Section/Check call, keeps those functions' signatures free
// of an extra context parameter, the same way testing.T's methods read
// from goroutine-local state via t.
type testContext struct {
	root        *sectionNode
	currPath    []*sectionNode
	leafSection *sectionNode
	execCount   int

	executedChecks int
	failedChecks   int
	errors         []*TestError
}

var contextStack []*testContext

// pushContext installs ctx as the active context, supporting nested
// self-test execution (a test that itself drives a nested Schedule) by
// shadowing rather than replacing the outer context.
func pushContext(ctx *testContext) {
	contextStack = append(contextStack, ctx)
}

func popContext() {
	contextStack = contextStack[:len(contextStack)-1]
}

// topContext returns the active context, or nil if no test is running.
func topContext() *testContext {
	if len(contextStack) == 0 {
		return nil
	}
	return contextStack[len(contextStack)-1]
}
