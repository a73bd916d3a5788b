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

import "runtime"

// Declaration is a registered test: a name, its merged config, the body to
// run, and the source location it was registered from.
type Declaration struct {
	Name     string
	Config   Cfg
	Function func() `json:"-"`
	Location Location
}

// Registry owns the set of declarations known to the process.
type Registry struct {
	Declarations []*Declaration
}

// AddDeclaration appends a new declaration to the registry.
func (r *Registry) AddDeclaration(name string, cfg Cfg, fn func(), loc Location) *Declaration {
	d := &Declaration{Name: name, Config: cfg, Function: fn, Location: loc}
	r.Declarations = append(r.Declarations, d)
	return d
}

var staticRegistry = &Registry{}

// StaticRegistry returns the process-wide registry populated by Register.
// It is a process-lifetime singleton, mutable only while tests are being
// registered and read-only once execution begins.
func StaticRegistry() *Registry { return staticRegistry }

// Register adds a test declaration to the static registry. Go test
// binaries have no reliable static-initialization ordering across
// packages, so unlike the C++ original (which can rely on a TEST(...)
// macro's static-init side effect), Register is the only registration
// path: callers invoke it directly, typically from an init() in the
// package that defines the test, or explicitly from main before Run.
func Register(name string, fn func(), opts ...Option) *Declaration {
	_, file, line, _ := runtime.Caller(1)
	return staticRegistry.AddDeclaration(name, mergeConfig(opts...), fn, Location{File: file, Line: line})
}
