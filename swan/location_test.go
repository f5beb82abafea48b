package swan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationCalculator_NoGaps(t *testing.T) {
	calc := NewLocationCalculator(nil, []int{4, 9})
	require.Equal(t, 3, calc.GetOffsetWithGap(3))
	loc := calc.GetLocation(3)
	require.Equal(t, Position{Line: 1, Column: 3}, loc)

	loc2 := calc.GetLocation(7)
	require.Equal(t, 2, loc2.Line)
}

func TestLocationCalculator_GapInsidesFragment(t *testing.T) {
	// A single collapsed CRLF recorded at absolute offset 5: a fragment-local
	// offset at or past that point must come back one byte further along the
	// absolute axis than its naive (ungapped) value.
	calc := NewLocationCalculator([]int{5}, nil)
	require.Equal(t, 2, calc.GetOffsetWithGap(2))
	require.Equal(t, 6, calc.GetOffsetWithGap(5))
}

func TestLocationCalculator_SubCalculatorDoesNotDoubleCount(t *testing.T) {
	// Two gaps: one before the sub-fragment's base, one inside it. The
	// sub-calculator's baseOffset already absorbed the first; only the
	// second should ever be counted again.
	root := NewLocationCalculator([]int{2, 10}, nil)
	sub := root.GetSubCalculatorAfter(8) // baseOffset becomes 8, already past the first gap

	// Fragment-local 0 maps to absolute 8, still before the second gap (10).
	require.Equal(t, 8, sub.GetOffsetWithGap(0))
	// Fragment-local 3 crosses the second gap at absolute 10: 8+3=11, which
	// is past it, so it should come back shifted by exactly one (the single
	// gap within (8, 11]), not two.
	require.Equal(t, 12, sub.GetOffsetWithGap(3))
}

func TestLocationCalculator_FixRangeRoundTrip(t *testing.T) {
	calc := NewLocationCalculator(nil, []int{10})
	r, loc := calc.FixRange(Range{Start: 2, End: 5})
	require.Equal(t, Range{Start: 2, End: 5}, r)
	require.Equal(t, Position{Line: 1, Column: 2}, loc.Start)
	require.Equal(t, Position{Line: 1, Column: 5}, loc.End)
}

func TestLocationCalculator_FixErrorMutatesInPlace(t *testing.T) {
	calc := NewLocationCalculator(nil, []int{3})
	e := &ParseError{Index: 5}
	calc.FixError(e)
	require.Equal(t, 5, e.Index)
	require.Equal(t, 2, e.LineNumber)
}
