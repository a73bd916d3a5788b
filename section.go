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
)

// sectionNode is one node of the in-memory section tree, built lazily
// across repeated executions of a test's callable. Nodes are exclusively
// owned by their parent; the running execution holds only non-owning
// references to nodes on the current path.
type sectionNode struct {
	name     string
	location Location
	children map[string]*sectionNode
	order    []*sectionNode

	nextOpen    *sectionNode
	isDone      bool
	lastVisited int // sentinel -1: never visited

	executedChecks  int
	failedChecks    int
	errors          []*TestError
	durationSeconds float64
}

func newSectionNode(name string, loc Location) *sectionNode {
	return &sectionNode{
		name:        name,
		location:    loc,
		children:    make(map[string]*sectionNode),
		lastVisited: -1,
	}
}

// duplicateSectionSignal is the typed unwinder raised when a section is
// opened twice within the same execution (misuse).
type duplicateSectionSignal struct {
	name     string
	location Location
}

// opener is the bookkeeping Section threads from its open to its deferred
// close; it has no exported surface, it exists only to let closeSection
// know whether there is anything to close.
type opener struct {
	entered bool
}

// Section declares a named sub-scenario. body runs only if this run of the
// scheduler loop selected this section's subtree to explore; otherwise
// Section records the name for future runs and returns immediately. Go has
// no block-scope destructors, so the "opener" is folded into the Section
// call itself — deferring the close logic runs it at exactly the point a
// destructor would have fired in a RAII-based design, including on panic
// (REQUIRE failure, nested duplicate-section misuse, or a user panic
// unwinding through the body).
//
// Dynamic section names (for looped sections) are built with fmt.Sprintf
// by the caller before calling Section, so each generated name is entered
// once per distinct value.
func Section(name string, body func()) {
	ctx := topContext()
	if ctx == nil {
		panic("nexus: Section called outside a running test")
	}

	_, file, line, _ := runtime.Caller(1)
	op := openSection(ctx, name, Location{File: file, Line: line})
	if !op.entered {
		return
	}
	defer closeSection(ctx)
	body()
}

// openSection decides whether this run should enter child, or merely
// record that it exists for a future run.
func openSection(ctx *testContext, name string, loc Location) opener {
	parent := ctx.currPath[len(ctx.currPath)-1]

	child, ok := parent.children[name]
	if !ok {
		child = newSectionNode(name, loc)
		parent.children[name] = child
		parent.order = append(parent.order, child)
	}

	if child.lastVisited == ctx.execCount {
		panic(duplicateSectionSignal{name: name, location: loc})
	}
	child.lastVisited = ctx.execCount

	if ctx.leafSection != nil {
		// A leaf already ran this run; remember where to resume next time.
		parent.nextOpen = child
		return opener{entered: false}
	}

	if child.isDone {
		return opener{entered: false}
	}

	ctx.currPath = append(ctx.currPath, child)
	child.nextOpen = nil
	return opener{entered: true}
}

// closeSection runs when a section that was entered finishes normally or
// unwinds via panic. It only ever runs when openSection returned
// entered==true, since Section defers it immediately after that check.
func closeSection(ctx *testContext) {
	n := len(ctx.currPath)
	sub := ctx.currPath[n-1]
	parentOfSub := ctx.currPath[n-2]

	if sub.nextOpen == nil {
		if ctx.leafSection == nil {
			ctx.leafSection = sub
		}
		sub.isDone = true
	} else {
		parentOfSub.nextOpen = sub.nextOpen
	}

	ctx.currPath = ctx.currPath[:n-1]
}

// finalizeSectionTo recursively rolls per-leaf stats up to the root and
// synthesizes the unreachable-section and empty-checks errors.
func (n *sectionNode) finalizeSectionTo(sec *Section) {
	sec.Name = n.name
	sec.Location = n.location
	sec.IsConsideredFailing = false
	sec.ExecutedChecks = n.executedChecks
	sec.FailedChecks = n.failedChecks
	sec.DurationSeconds = n.durationSeconds
	for _, e := range n.errors {
		sec.Errors = append(sec.Errors, *e)
	}

	for _, child := range n.order {
		var csec Section
		child.finalizeSectionTo(&csec)
		sec.Subsections = append(sec.Subsections, csec)

		sec.ExecutedChecks += csec.ExecutedChecks
		sec.FailedChecks += csec.FailedChecks
		sec.DurationSeconds += csec.DurationSeconds
		sec.Errors = append(sec.Errors, csec.Errors...)
		sec.IsConsideredFailing = sec.IsConsideredFailing || csec.IsConsideredFailing

		if n.isDone && !child.isDone {
			sec.Errors = append(sec.Errors, TestError{
				Expr:     "unreachable section",
				Location: child.location,
				Expanded: fmt.Sprintf("section %q was discovered but unreachable from parent", child.name),
			})
			sec.IsConsideredFailing = true
		}
	}

	if sec.ExecutedChecks == 0 {
		sec.Errors = append(sec.Errors, TestError{
			Expr:       "no CHECK/REQUIRE",
			Location:   n.location,
			ExtraLines: []string{"This is often a bug and can be silenced with Check(\"true\", nexus.True(true))"},
			Expanded:   "test did not contain CHECK/REQUIRE",
		})
		sec.IsConsideredFailing = true
	}

	sec.IsConsideredFailing = sec.IsConsideredFailing || sec.FailedChecks > 0 || len(n.errors) > 0
}
