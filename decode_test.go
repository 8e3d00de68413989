package bvgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vigna/webgraph-go/internal/bitio"
	"github.com/vigna/webgraph-go/internal/bvtest"
	"github.com/vigna/webgraph-go/properties"
)

func gammaMeta() *properties.Metadata {
	return &properties.Metadata{ZetaK: 3, Flags: properties.CompressionFlags{}}
}

func TestCopyBlocksEvenBlockCountContinuesCopying(t *testing.T) {
	w := bvtest.NewBitWriter()
	w.WriteGamma(1) // b0 skip, zero-biased: length 1 -> skip elem 0
	w.WriteGamma(2) // b1 copy, one-biased: length 3 -> copy elems 1,2,3
	r := bitio.NewReader(bitio.ByteSource(w.Bytes()))

	refList := []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := copyBlocks(r, gammaMeta(), refList, 2)
	require.NoError(t, err)
	// skip 1 (pos=1), copy 3 (out=[1,2,3], pos=4); bc=2 even -> last
	// explicit block (index 1) was copy, so the trailing run also copies.
	require.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

func TestCopyBlocksOddBlockCountStopsAfterSkip(t *testing.T) {
	w := bvtest.NewBitWriter()
	w.WriteGamma(2) // b0 skip, zero-biased: length 2 -> skip elems 0,1
	w.WriteGamma(2) // b1 copy, one-biased: length 3 -> copy elems 2,3,4
	w.WriteGamma(1) // b2 skip, one-biased: length 2 -> skip elems 5,6
	r := bitio.NewReader(bitio.ByteSource(w.Bytes()))

	refList := []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := copyBlocks(r, gammaMeta(), refList, 3)
	require.NoError(t, err)
	// bc=3 odd -> last explicit block (index 2) was skip, so the trailing
	// run also skips: elements 7,8,9 never get copied.
	require.Equal(t, []uint64{2, 3, 4}, out)
}

func TestDecodeIntervalsTwoRuns(t *testing.T) {
	w := bvtest.NewBitWriter()
	w.WriteGamma(bvtest.ZigZag(4)) // left = x+1+4 = 105
	w.WriteGamma(1)                // length = 1+minIntervalLength(3) = 4 -> [105,108]
	w.WriteGamma(2)                // left2 = end(109)+2+1 = 112
	w.WriteGamma(0)                // length = 0+3 = 3 -> [112,114]
	r := bitio.NewReader(bitio.ByteSource(w.Bytes()))

	meta := gammaMeta()
	meta.MinIntervalLength = 3
	out, err := decodeIntervals(r, meta, 100, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{105, 106, 107, 108, 112, 113, 114}, out)
}

func TestDecodeResidualsNegativeFirst(t *testing.T) {
	w := bvtest.NewBitWriter()
	w.WriteGamma(bvtest.ZigZag(-1)) // first = x + (-1) = 9
	w.WriteGamma(5)                 // second = prev + 5 + 1 = 15
	r := bitio.NewReader(bitio.ByteSource(w.Bytes()))

	out, err := decodeResiduals(r, gammaMeta(), 10, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{9, 15}, out)
}

func TestMerge3(t *testing.T) {
	out := merge3([]uint64{1, 5, 9}, []uint64{2, 3}, []uint64{4, 6, 7, 8})
	require.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

// TestReferenceCompressionEndToEnd hand-builds a two-vertex graph where
// vertex 1 references vertex 0 and copies a subset of its successor list
// via block runs, exercising decode.go's reference-compression path
// (spec §4.G step 3) end to end through both access modes.
func TestReferenceCompressionEndToEnd(t *testing.T) {
	w := bvtest.NewBitWriter()
	offsets := make([]uint64, 2)

	offsets[0] = w.BitLen()
	bvtest.EncodeVertex(w, 0, []uint64{10, 11, 12, 13, 14}, 1, 0)

	offsets[1] = w.BitLen()
	w.WriteGamma(3) // d=3
	w.WriteGamma(1) // ref=1 -> copies from vertex 0
	w.WriteGamma(3) // bc=3
	w.WriteGamma(1) // b0 skip, zero-biased=1 -> skip elem 10
	w.WriteGamma(2) // b1 copy, one-biased=3 -> copy 11,12,13
	w.WriteGamma(0) // b2 skip, one-biased=1 -> skip elem 14

	dir := t.TempDir()
	base := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(base+".graph", w.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(base+".offsets", bvtest.EncodeOffsets(offsets), 0o644))
	props := "nodes=2\narcs=8\nwindowsize=1\nmaxrefcount=1\nminintervallength=0\nzetak=3\nversion=0\n"
	require.NoError(t, os.WriteFile(base+".properties", []byte(props), 0o644))

	g, err := Load(base, WithOffsetStep(2))
	require.NoError(t, err)
	defer g.Close()

	ra, err := NewRandomAccess(g)
	require.NoError(t, err)
	succ1, err := ra.Successors(1)
	require.NoError(t, err)
	require.Equal(t, []uint64{11, 12, 13}, succ1)

	it, err := NewSequentialIterator(g)
	require.NoError(t, err)
	var seqSucc1 []uint64
	for it.Next() {
		if it.Vertex() == 1 {
			seqSucc1 = append([]uint64(nil), it.Successors()...)
		}
	}
	require.NoError(t, it.Err())
	require.Equal(t, succ1, seqSucc1)
}

// TestReferenceCopyAllZeroBlockCount exercises the bc==0 shortcut, which
// copies refList in full without reading any block-length codes.
func TestReferenceCopyAllZeroBlockCount(t *testing.T) {
	w := bvtest.NewBitWriter()
	offsets := make([]uint64, 2)

	offsets[0] = w.BitLen()
	bvtest.EncodeVertex(w, 0, []uint64{10, 11, 12}, 1, 0)

	offsets[1] = w.BitLen()
	w.WriteGamma(3) // d=3
	w.WriteGamma(1) // ref=1 -> vertex 0
	w.WriteGamma(0) // bc=0 -> copy all of refList

	dir := t.TempDir()
	base := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(base+".graph", w.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(base+".offsets", bvtest.EncodeOffsets(offsets), 0o644))
	props := "nodes=2\narcs=6\nwindowsize=1\nmaxrefcount=1\nminintervallength=0\nzetak=3\nversion=0\n"
	require.NoError(t, os.WriteFile(base+".properties", []byte(props), 0o644))

	g, err := Load(base, WithOffsetStep(2))
	require.NoError(t, err)
	defer g.Close()

	ra, err := NewRandomAccess(g)
	require.NoError(t, err)
	succ1, err := ra.Successors(1)
	require.NoError(t, err)
	require.Equal(t, []uint64{10, 11, 12}, succ1)
}

// TestMaxRefCountGuard builds a three-vertex chain (2 references 1
// references 0) exceeding maxrefcount=1, and checks decodeVertex refuses
// to follow the second hop.
func TestMaxRefCountGuard(t *testing.T) {
	w := bvtest.NewBitWriter()
	offsets := make([]uint64, 3)

	offsets[0] = w.BitLen()
	bvtest.EncodeVertex(w, 0, []uint64{10, 11, 12}, 1, 0)

	offsets[1] = w.BitLen()
	w.WriteGamma(3) // d
	w.WriteGamma(1) // ref=1 -> vertex 0
	w.WriteGamma(0) // bc=0, copy all

	offsets[2] = w.BitLen()
	w.WriteGamma(3) // d
	w.WriteGamma(1) // ref=1 -> vertex 1 (chain now 2 > maxrefcount=1)
	w.WriteGamma(0) // bc=0

	dir := t.TempDir()
	base := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(base+".graph", w.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(base+".offsets", bvtest.EncodeOffsets(offsets), 0o644))
	props := "nodes=3\narcs=9\nwindowsize=1\nmaxrefcount=1\nminintervallength=0\nzetak=3\nversion=0\n"
	require.NoError(t, os.WriteFile(base+".properties", []byte(props), 0o644))

	g, err := Load(base, WithOffsetStep(2))
	require.NoError(t, err)
	defer g.Close()

	ra, err := NewRandomAccess(g)
	require.NoError(t, err)
	_, err = ra.Successors(2)
	require.Error(t, err)
	require.Equal(t, KindCorrupt, KindOf(err))
}
