// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package callgrind extracts the inclusive cost of a function from a
// callgrind profile.
//
// The profile is read line by line. Classify turns each line into a tagged
// Line, and a small state machine consumes the lines: it waits for the events
// header, then for a function definition matching the target, and collects
// cost lines until the next function definition. Every block attributed to
// the target is summed, including the inclusive costs of calls made from it.
package callgrind

import (
	"fmt"
	"strings"
)

// Kind classifies a line of a callgrind profile.
type Kind uint8

const (
	// OtherLine is any line the parser does not act on.
	OtherLine Kind = iota
	// HeaderLine is a "positions:" or "events:" header.
	HeaderLine
	// AliasLine names a called function ("cfn="), possibly defining a
	// compressed id for it.
	AliasLine
	// FunctionStart begins the cost block of a function ("fn=").
	FunctionStart
	// CostLine holds position and cost columns.
	CostLine
)

var kindNames = [...]string{
	OtherLine:     "other",
	HeaderLine:    "header",
	AliasLine:     "alias",
	FunctionStart: "function",
	CostLine:      "cost",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Line is a classified profile line. Which fields are set depends on Kind.
type Line struct {
	Kind Kind
	// Key is the header name for HeaderLine.
	Key string
	// ID is the compressed id, including parentheses, of AliasLine and
	// FunctionStart lines that use name compression.
	ID string
	// Name is the function name of AliasLine and FunctionStart lines. It is
	// empty when the line only references a previously defined ID.
	Name string
	// Fields holds the header values of HeaderLine and the columns of
	// CostLine.
	Fields []string
}

// String implements fmt.Stringer.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(l.Kind.String())
	if l.Key != "" {
		fmt.Fprintf(&b, " key=%s", l.Key)
	}
	if l.ID != "" {
		fmt.Fprintf(&b, " id=%s", l.ID)
	}
	if l.Name != "" {
		fmt.Fprintf(&b, " name=%q", l.Name)
	}
	if len(l.Fields) > 0 {
		fmt.Fprintf(&b, " fields=%s", strings.Join(l.Fields, ","))
	}
	return b.String()
}

var headerKeys = []string{"positions", "events"}

// Classify tokenizes one line of a profile.
func Classify(s string) Line {
	s = strings.TrimRight(s, "\r")
	if s == "" {
		return Line{Kind: OtherLine}
	}
	for _, key := range headerKeys {
		if v, ok := strings.CutPrefix(s, key+":"); ok {
			return Line{Kind: HeaderLine, Key: key, Fields: strings.Fields(v)}
		}
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '+', c == '-', c == '*':
		return Line{Kind: CostLine, Fields: strings.Fields(s)}
	}
	key, val, ok := strings.Cut(s, "=")
	if !ok {
		return Line{Kind: OtherLine}
	}
	var kind Kind
	switch key {
	case "fn":
		kind = FunctionStart
	case "cfn":
		kind = AliasLine
	default:
		return Line{Kind: OtherLine}
	}
	l := Line{Kind: kind}
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "(") {
		if end := strings.IndexByte(val, ')'); end > 0 {
			l.ID = val[:end+1]
			val = strings.TrimSpace(val[end+1:])
		}
	}
	l.Name = val
	return l
}
