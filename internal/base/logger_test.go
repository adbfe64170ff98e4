// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}()

	var l Logger = DefaultLogger{}
	l.Infof("loaded %d rows", 3)
	l.Errorf("skipping %q", "x")
	require.Equal(t, "loaded 3 rows\nskipping \"x\"\n", buf.String())
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Infof("ignored")
	l.Errorf("ignored")
	require.Panics(t, func() { l.Fatalf("boom") })
}
