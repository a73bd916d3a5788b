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

// Package nexus is a section-tree test engine: tests declare nested named
// sections, and the engine re-runs the test body once per unvisited leaf
// section until the whole tree has been explored. CHECK-style soft
// assertions and REQUIRE-style hard assertions are attributed to whichever
// leaf section was running when they fired.
package nexus
