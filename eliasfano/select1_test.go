package eliasfano

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vigna/webgraph-go/internal/bitarray"
)

// TestSelect1ExactSpillPath builds a single inventory block whose bit-span
// exceeds maxSpan, forcing BuildSelect1 to record its ones in exactSpill
// (spec §4.E) rather than leaving it locatable by scanForward.
func TestSelect1ExactSpillPath(t *testing.T) {
	const length = 200000
	const gap = 70000 // > maxSpan (65536), so the first block spills

	u := bitarray.NewArray(length)
	u.SetBit(0)
	u.SetBit(gap)

	sel, err := BuildSelect1(u, 2, DefaultSpillCapacity, true)
	require.NoError(t, err)

	pos0, err := sel.Select(0)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos0)

	pos1, err := sel.Select(1)
	require.NoError(t, err)
	require.Equal(t, int64(gap), pos1)

	_, err = sel.Select(2)
	require.ErrorIs(t, err, ErrOutOfBound)
}

// TestSelect1ExactSpillGrowsBuffer exercises the spill-buffer growth path
// when a spilled block needs more entries than spillCapacity allows and
// allowRealloc is true.
func TestSelect1ExactSpillGrowsBuffer(t *testing.T) {
	const length = 200000
	const gap = 70000

	u := bitarray.NewArray(length)
	u.SetBit(0)
	u.SetBit(gap)

	sel, err := BuildSelect1(u, 2, 1, true)
	require.NoError(t, err)

	pos1, err := sel.Select(1)
	require.NoError(t, err)
	require.Equal(t, int64(gap), pos1)
}

// TestSelect1ExactSpillTooSmall checks BuildSelect1 fails with
// ErrSpillTooSmall when the spilled block overflows spillCapacity and
// allowRealloc is false.
func TestSelect1ExactSpillTooSmall(t *testing.T) {
	const length = 200000
	const gap = 70000

	u := bitarray.NewArray(length)
	u.SetBit(0)
	u.SetBit(gap)

	_, err := BuildSelect1(u, 2, 1, false)
	require.ErrorIs(t, err, ErrSpillTooSmall)
}
