package swan

import "sort"

// LocationCalculator maps offsets within a sub-fragment (or within an
// expression wrapped in synthetic "0(...)" padding) back to (line, column)
// in the original source (spec §4.4).
type LocationCalculator struct {
	baseOffset      int
	gaps            []int
	lineTerminators []int
}

// NewLocationCalculator builds the root calculator for a whole document: its
// baseOffset is 0 and it owns the reader's gap/line-terminator tables.
func NewLocationCalculator(gaps, lineTerminators []int) *LocationCalculator {
	return &LocationCalculator{gaps: gaps, lineTerminators: lineTerminators}
}

// GetOffsetWithGap returns the absolute offset in the original source for a
// fragment-local offset o, re-inserting any CRLF gaps that fall strictly
// within this fragment (i.e. after baseOffset, which is already an
// absolute position incorporating every gap before it). A small
// fixed-point loop handles the case where inserting k gaps pushes the
// target past another gap boundary; in practice this converges in at most
// one or two iterations since a single mustache/expression fragment rarely
// straddles more than a couple of collapsed CRLFs.
func (c *LocationCalculator) GetOffsetWithGap(o int) int {
	lo := sort.Search(len(c.gaps), func(i int) bool { return c.gaps[i] > c.baseOffset })
	k := 0
	for {
		abs := c.baseOffset + o + k
		count := sort.Search(len(c.gaps)-lo, func(i int) bool { return c.gaps[lo+i] > abs }) // gaps in (baseOffset, abs]
		if count == k {
			return abs
		}
		k = count
	}
}

// GetLocation returns the (line, column) for a fragment-local offset o.
func (c *LocationCalculator) GetLocation(o int) Position {
	abs := c.GetOffsetWithGap(o)
	idx := sort.Search(len(c.lineTerminators), func(i int) bool { return c.lineTerminators[i] >= abs })
	if idx == 0 {
		return Position{Line: 1, Column: abs}
	}
	return Position{Line: idx + 1, Column: abs - c.lineTerminators[idx-1] - 1}
}

// getAbsoluteAndLoc is a convenience combining GetOffsetWithGap and
// GetLocation for a fragment-local offset.
func (c *LocationCalculator) getAbsoluteAndLoc(o int) (int, Position) {
	return c.GetOffsetWithGap(o), c.GetLocation(o)
}

// FixRange rewrites a fragment-local Range/Loc pair into the absolute
// coordinate system.
func (c *LocationCalculator) FixRange(r Range) (Range, Loc) {
	startAbs, startPos := c.getAbsoluteAndLoc(r.Start)
	endAbs, endPos := c.getAbsoluteAndLoc(r.End)
	return Range{Start: startAbs, End: endAbs}, Loc{Start: startPos, End: endPos}
}

// FixError rewrites a ParseError's Index/LineNumber/Column in place, for
// errors produced by the script-parser backend (spec §4.4 fixErrorLocation).
func (c *LocationCalculator) FixError(e *ParseError) {
	abs, pos := c.getAbsoluteAndLoc(e.Index)
	e.Index = abs
	e.LineNumber = pos.Line
	e.Column = pos.Column
}

// GetSubCalculatorAfter returns a nested calculator whose fragment-local
// offset 0 corresponds to this calculator's fragment-local offset o. Note
// this composes by plain addition, not through GetOffsetWithGap: o is taken
// to be on the same axis as baseOffset, and every caller passes an absolute
// source offset (a token's Range.Start) to the root calculator, so the new
// baseOffset already accounts for every gap before it and the
// sub-calculator's GetOffsetWithGap re-inserts only the gaps after it.
// Composing through GetOffsetWithGap here would count those earlier gaps
// twice.
func (c *LocationCalculator) GetSubCalculatorAfter(o int) *LocationCalculator {
	return &LocationCalculator{
		baseOffset:      c.baseOffset + o,
		gaps:            c.gaps,
		lineTerminators: c.lineTerminators,
	}
}

// GetSubCalculatorShift returns a nested calculator shifted by delta
// fragment-local offsets without re-basing through GetOffsetWithGap (used
// for the "0(<expr>)" wrapping trick: Shift(-2) compensates for the two
// prefix characters "0(").
func (c *LocationCalculator) GetSubCalculatorShift(delta int) *LocationCalculator {
	return &LocationCalculator{
		baseOffset:      c.baseOffset + delta,
		gaps:            c.gaps,
		lineTerminators: c.lineTerminators,
	}
}
