// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package callgrind

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrFunctionNotFound is returned when no cost block in the profile belongs
// to the requested function. It is distinct from a function whose cost is
// zero.
var ErrFunctionNotFound = errors.New("callgrind: function not found")

// Matcher selects the function whose cost is extracted.
type Matcher interface {
	Match(name string) bool
	String() string
}

// ExactName matches a function by its full name.
type ExactName string

// Match implements Matcher.
func (n ExactName) Match(name string) bool { return name == string(n) }

func (n ExactName) String() string { return fmt.Sprintf("name %q", string(n)) }

// NameContains matches every function whose name contains the given string.
type NameContains string

// Match implements Matcher.
func (n NameContains) Match(name string) bool {
	return name != "" && strings.Contains(name, string(n))
}

func (n NameContains) String() string { return fmt.Sprintf("name containing %q", string(n)) }

// Cost is the accumulated cost per event.
type Cost struct {
	Events []string
	Values []uint64
}

// Get returns the cost of the named event.
func (c Cost) Get(event string) (uint64, bool) {
	i := slices.Index(c.Events, event)
	if i < 0 {
		return 0, false
	}
	return c.Values[i], true
}

// Map returns the costs keyed by event name.
func (c Cost) Map() map[string]uint64 {
	m := make(map[string]uint64, len(c.Events))
	for i, e := range c.Events {
		m[e] = c.Values[i]
	}
	return m
}

// String implements fmt.Stringer.
func (c Cost) String() string {
	var b strings.Builder
	for i, e := range c.Events {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", e, c.Values[i])
	}
	return b.String()
}

type state uint8

const (
	seekHeader state = iota
	seekFunction
	collecting
	done
)

var stateNames = [...]string{
	seekHeader:   "seek-header",
	seekFunction: "seek-function",
	collecting:   "collecting",
	done:         "done",
}

func (s state) String() string { return stateNames[s] }

// parser holds the state of a single pass over a profile.
type parser struct {
	state     state
	match     Matcher
	positions int
	events    []string
	values    []uint64
	// names maps compressed function ids to names.
	names  map[string]string
	found  bool
	lineno int
}

func newParser(m Matcher) *parser {
	return &parser{
		state: seekHeader,
		match: m,
		// Without a positions header every cost line starts with a line
		// number.
		positions: 1,
		names:     make(map[string]string),
	}
}

// resolve returns the function name of a function or alias line, recording
// the id if the line defines one.
func (p *parser) resolve(l Line) string {
	if l.ID == "" {
		return l.Name
	}
	if l.Name != "" {
		p.names[l.ID] = l.Name
		return l.Name
	}
	return p.names[l.ID]
}

func (p *parser) step(l Line) error {
	switch l.Kind {
	case HeaderLine:
		switch l.Key {
		case "positions":
			p.positions = len(l.Fields)
		case "events":
			if p.events != nil && !slices.Equal(p.events, l.Fields) {
				return errors.Newf("events redefined as %s", strings.Join(l.Fields, " "))
			}
			if len(l.Fields) == 0 {
				return errors.New("empty events header")
			}
			p.events = l.Fields
			if p.values == nil {
				p.values = make([]uint64, len(l.Fields))
			}
			if p.state == seekHeader {
				p.state = seekFunction
			}
		}

	case AliasLine:
		p.resolve(l)

	case FunctionStart:
		name := p.resolve(l)
		if p.state == seekHeader {
			return nil
		}
		if p.match.Match(name) {
			p.state = collecting
			p.found = true
		} else {
			p.state = seekFunction
		}

	case CostLine:
		if p.state != collecting {
			return nil
		}
		if len(l.Fields) < p.positions {
			return errors.Newf("cost line has %d columns, want at least %d positions", len(l.Fields), p.positions)
		}
		costs := l.Fields[p.positions:]
		if len(costs) > len(p.events) {
			return errors.Newf("cost line has %d costs for %d events", len(costs), len(p.events))
		}
		// Missing trailing costs are zero.
		for i, s := range costs {
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "cost of %s", p.events[i])
			}
			p.values[i] += v
		}
	}
	return nil
}

// Parse reads a profile and returns the inclusive cost of the function
// selected by m, summed over all of its cost blocks. If the function never
// appears the error is marked with ErrFunctionNotFound.
func Parse(r io.Reader, m Matcher) (Cost, error) {
	p := newParser(m)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64<<10), 16<<20)
	for s.Scan() {
		p.lineno++
		if err := p.step(Classify(s.Text())); err != nil {
			return Cost{}, errors.Wrapf(err, "callgrind: line %d (%s)", p.lineno, p.state)
		}
	}
	if err := s.Err(); err != nil {
		return Cost{}, errors.Wrap(err, "callgrind: reading profile")
	}
	p.state = done
	if p.events == nil {
		return Cost{}, errors.New("callgrind: profile has no events header")
	}
	if !p.found {
		return Cost{}, errors.Mark(errors.Newf("callgrind: no function with %s", m), ErrFunctionNotFound)
	}
	return Cost{Events: slices.Clone(p.events), Values: p.values}, nil
}
