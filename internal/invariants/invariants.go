// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants gates expensive self-checks behind the "invariants" and
// "race" build tags.
package invariants

import "fmt"

// RaceEnabled is true if we were built with the "race" build tag.
const RaceEnabled = raceEnabled

// Assertf panics with the formatted message if cond is false and invariants
// are enabled. In other builds the call compiles away.
func Assertf(cond bool, format string, args ...interface{}) {
	if Enabled && !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
