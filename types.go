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

import "fmt"

// Location is a source position, Go's analogue of std::source_location.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Op identifies the comparison operator a comparison constructor (Equal,
// Less, ...) decomposed, or OpNone for a bare truthiness check.
type Op int

const (
	OpNone Op = iota
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual
)

func (o Op) String() string {
	switch o {
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	default:
		return ""
	}
}

// Kind distinguishes a soft CHECK from a hard REQUIRE.
type Kind int

const (
	KindCheck Kind = iota
	KindRequire
)

// TestError is a framework- or check-originated error attached to a
// section. Expr and Expanded are never equal: some editor integrations
// collapse a diagnostic to a bare "failed" when they are, so every
// constructor in this package is careful to make them differ.
type TestError struct {
	Expr       string
	Location   Location
	ExtraLines []string
	Expanded   string
}

// Section is the finalized, read-only view of one node of the section
// tree, populated by finalizeSectionTo after a test has finished executing.
type Section struct {
	Name                string
	Location            Location
	Subsections         []Section
	Errors              []TestError
	ExecutedChecks      int
	FailedChecks        int
	DurationSeconds     float64
	IsConsideredFailing bool
}

// TestExecution is the outcome of running one scheduled test instance to
// completion (i.e. until every reachable leaf section has executed once).
type TestExecution struct {
	Instance Instance
	Root     Section
}

// IsConsideredFailing reports whether any part of the section tree failed.
func (e TestExecution) IsConsideredFailing() bool {
	return e.Root.IsConsideredFailing
}

// ScheduleExecution is the result of executing every instance in a Schedule.
type ScheduleExecution struct {
	Executions []TestExecution
}

// CountTotalTests returns the number of executed test instances.
func (s ScheduleExecution) CountTotalTests() int { return len(s.Executions) }

// CountFailedTests returns the number of instances considered failing.
func (s ScheduleExecution) CountFailedTests() int {
	n := 0
	for _, e := range s.Executions {
		if e.IsConsideredFailing() {
			n++
		}
	}
	return n
}

// CountTotalChecks returns the sum of CHECK/REQUIRE evaluations across all
// executed instances.
func (s ScheduleExecution) CountTotalChecks() int {
	n := 0
	for _, e := range s.Executions {
		n += e.Root.ExecutedChecks
	}
	return n
}

// CountFailedChecks returns the sum of failed CHECK/REQUIRE evaluations.
func (s ScheduleExecution) CountFailedChecks() int {
	n := 0
	for _, e := range s.Executions {
		n += e.Root.FailedChecks
	}
	return n
}
