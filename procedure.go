// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"fmt"
	"io"
	"iter"

	"github.com/cockroachdb/errors"
)

// OpKind identifies the kind of an unpack operation.
type OpKind uint8

const (
	// OpLoad loads LoadWidth bytes starting at Op.Offset of the input.
	OpLoad OpKind = iota
	// OpShuffle permutes the loaded bytes using the shuffle mask Op.Mask.
	OpShuffle
	// OpShift aligns each lane using the shift mask Op.Mask.
	OpShift
	// OpStore writes the four lanes to the output starting at lane Op.Offset.
	OpStore
)

var opKindNames = [...]string{
	OpLoad:    "load",
	OpShuffle: "shuffle",
	OpShift:   "shift",
	OpStore:   "store",
}

// String implements fmt.Stringer.
func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// Op is one step of the unpacking walk.
type Op struct {
	Kind OpKind
	// Step is the index of the outer step the operation belongs to.
	Step int
	// K is the outer-step input cursor: the step's first input byte divided
	// by the number of groups per step.
	K int
	// Group is the absolute index of the 8-lane group.
	Group int
	// Half selects the first (0) or second (1) half-group of four lanes.
	Half int
	// Offset is the input byte offset of a load or the first output lane of a
	// store. It is zero for shuffles and shifts.
	Offset int
	// Mask indexes Procedure.Masks for shuffles and shifts.
	Mask int
}

// String implements fmt.Stringer.
func (op Op) String() string {
	switch op.Kind {
	case OpLoad, OpStore:
		return fmt.Sprintf("%s group=%d half=%d offset=%d", op.Kind, op.Group, op.Half, op.Offset)
	default:
		return fmt.Sprintf("%s group=%d half=%d mask=%d", op.Kind, op.Group, op.Half, op.Mask)
	}
}

const (
	lanesPerGroup  = 8
	halvesPerGroup = 2
	lanesPerHalf   = lanesPerGroup / halvesPerGroup
)

// DefaultGroupsPerStep is the number of 8-lane groups a Procedure unpacks per
// outer step unless WithGroupsPerStep says otherwise.
const DefaultGroupsPerStep = 16

// Procedure describes the walk that decompresses a whole buffer: every 8-lane
// group is split into two half-groups of four 32-bit lanes, each of which is
// loaded, shuffled, shifted and stored independently.
type Procedure struct {
	cf            CompressionFactor
	maxIndex      int
	groupsPerStep int
	// masks[h] holds the masks of half h. They are the same for every group
	// because each 8-lane group starts on a byte boundary.
	masks [halvesPerGroup]GroupMasks
}

// ProcedureOption configures a Procedure.
type ProcedureOption func(*Procedure)

// WithGroupsPerStep sets the number of 8-lane groups processed per outer step.
func WithGroupsPerStep(n int) ProcedureOption {
	return func(p *Procedure) {
		p.groupsPerStep = n
	}
}

// NewProcedure returns the procedure that unpacks lanes [0, maxIndex] (rounded
// up to whole outer steps) of a buffer packed with cf bits per value.
func NewProcedure(cf CompressionFactor, maxIndex int, opts ...ProcedureOption) (*Procedure, error) {
	if err := CheckFit(cf, Group4); err != nil {
		return nil, err
	}
	if maxIndex < 0 {
		return nil, invalidf("max index %d is negative", maxIndex)
	}
	p := &Procedure{
		cf:            cf,
		maxIndex:      maxIndex,
		groupsPerStep: DefaultGroupsPerStep,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.groupsPerStep < 1 {
		return nil, invalidf("groups per step %d must be positive", p.groupsPerStep)
	}
	for h := range p.masks {
		p.masks[h] = computeMasks(cf, Group4, h)
	}
	return p, nil
}

// CompressionFactor returns the factor the procedure unpacks.
func (p *Procedure) CompressionFactor() CompressionFactor {
	return p.cf
}

// MaxIndex returns the highest lane the procedure was asked to cover.
func (p *Procedure) MaxIndex() int {
	return p.maxIndex
}

// GroupsPerStep returns the number of 8-lane groups per outer step.
func (p *Procedure) GroupsPerStep() int {
	return p.groupsPerStep
}

// LanesPerStep returns the number of output lanes produced per outer step.
func (p *Procedure) LanesPerStep() int {
	return p.groupsPerStep * lanesPerGroup
}

// Steps returns the number of outer steps needed to cover MaxIndex.
func (p *Procedure) Steps() int {
	return p.maxIndex/p.LanesPerStep() + 1
}

// Lanes returns the number of output lanes the procedure writes.
func (p *Procedure) Lanes() int {
	return p.Steps() * p.LanesPerStep()
}

// InputBytes returns the number of packed bytes holding the procedure's lanes.
func (p *Procedure) InputBytes() int {
	return (p.Lanes()*int(p.cf) + 7) / 8
}

// Masks returns the masks referenced by Op.Mask.
func (p *Procedure) Masks() []GroupMasks {
	return p.masks[:]
}

// loadOffset returns the input byte a half-group's load is anchored at.
func (p *Procedure) loadOffset(group, half int) int {
	return (group*lanesPerGroup + half*lanesPerHalf) * int(p.cf) / 8
}

// Ops returns the operations of the walk in execution order. The sequence is
// finite and may be iterated any number of times.
func (p *Procedure) Ops() iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for i := range p.Steps() {
			k := i * int(p.cf)
			for j := range p.groupsPerStep {
				g := i*p.groupsPerStep + j
				for h := range halvesPerGroup {
					op := Op{Step: i, K: k, Group: g, Half: h}
					for _, kind := range [...]OpKind{OpLoad, OpShuffle, OpShift, OpStore} {
						op.Kind, op.Offset, op.Mask = kind, 0, 0
						switch kind {
						case OpLoad:
							op.Offset = p.loadOffset(g, h)
						case OpShuffle, OpShift:
							op.Mask = h
						case OpStore:
							op.Offset = g*lanesPerGroup + h*lanesPerHalf
						}
						if !yield(op) {
							return
						}
					}
				}
			}
		}
	}
}

var registerNames = [halvesPerGroup]string{"a", "b"}

// WriteTrace writes a textual trace of the procedure, one line per
// operation, annotated with the outer-step state at step boundaries.
func WriteTrace(w io.Writer, p *Procedure) error {
	ew := &errWriter{w: w}
	step := -1
	footer := func() {
		ew.printf("k = %d\n", (step+1)*int(p.cf))
		ew.printf("---\n")
	}
	for op := range p.Ops() {
		if op.Step != step {
			if step >= 0 {
				footer()
			}
			step = op.Step
			ew.printf("i = %d\n", step)
		}
		r := registerNames[op.Half]
		switch op.Kind {
		case OpLoad:
			ew.printf("    parallel_load b_%s from input[%d]\n", r, op.Offset)
		case OpShuffle:
			ew.printf("    shuffle b_%s to c_%s using shuffle_mask%s\n", r, r, formatTuple(p.masks[op.Mask].Shuffle))
		case OpShift:
			ew.printf("    parallel_shift c_%s by %s\n", r, formatTuple(p.masks[op.Mask].Shift))
		case OpStore:
			ew.printf("    parallel_store c_%s in output[%d]\n", r, op.Offset)
			if op.Half == halvesPerGroup-1 {
				ew.printf("    ---\n")
			}
		}
		if ew.err != nil {
			return ew.err
		}
	}
	if step >= 0 {
		footer()
	}
	return ew.err
}

// errWriter remembers the first write error so that a sequence of writes can
// be checked once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	if _, err := fmt.Fprintf(ew.w, format, args...); err != nil {
		ew.err = errors.Wrap(err, "bitunpack: writing trace")
	}
}
