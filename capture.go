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
	"cmp"
	"fmt"

	"github.com/kylelemons/godebug/pretty"
)

// Result is what a comparison constructor (Equal, Less, ...) hands to
// Check/Require. Go has no operator overloading to intercept `a == b`
// inside a macro the way the original does, so callers build a Result
// explicitly — CHECK_EQ(a, b)-style. The constructor decomposes the
// comparison into the same "lhs op rhs" diagnostic (operand values, not
// source text) the original produces from its binary_expr_capture, and
// Check/Require record it.
type Result struct {
	Passed   bool
	Op       Op
	Expanded string
}

func debugString(v any) string {
	return pretty.Sprint(v)
}

func binaryResult[T any](op Op, lhs, rhs T, passed bool) Result {
	return Result{
		Passed:   passed,
		Op:       op,
		Expanded: fmt.Sprintf("%s %s %s", debugString(lhs), op.String(), debugString(rhs)),
	}
}

// Equal reports whether lhs == rhs, decomposed the way a == b would be by
// the original's binary_expr_capture.
func Equal[T comparable](lhs, rhs T) Result {
	return binaryResult(OpEqual, lhs, rhs, lhs == rhs)
}

// NotEqual reports whether lhs != rhs.
func NotEqual[T comparable](lhs, rhs T) Result {
	return binaryResult(OpNotEqual, lhs, rhs, lhs != rhs)
}

// Less reports whether lhs < rhs.
func Less[T cmp.Ordered](lhs, rhs T) Result {
	return binaryResult(OpLess, lhs, rhs, lhs < rhs)
}

// LessOrEqual reports whether lhs <= rhs.
func LessOrEqual[T cmp.Ordered](lhs, rhs T) Result {
	return binaryResult(OpLessEqual, lhs, rhs, lhs <= rhs)
}

// Greater reports whether lhs > rhs.
func Greater[T cmp.Ordered](lhs, rhs T) Result {
	return binaryResult(OpGreater, lhs, rhs, lhs > rhs)
}

// GreaterOrEqual reports whether lhs >= rhs.
func GreaterOrEqual[T cmp.Ordered](lhs, rhs T) Result {
	return binaryResult(OpGreaterEqual, lhs, rhs, lhs >= rhs)
}

// True wraps a bare boolean expression, the unary_expr_capture case: there
// is no lhs/rhs to decompose, so the expanded diagnostic is just the
// value itself.
func True(v bool) Result {
	return Result{
		Passed:   v,
		Op:       OpNone,
		Expanded: debugString(v),
	}
}
