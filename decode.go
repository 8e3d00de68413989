package bvgraph

import (
	"github.com/vigna/webgraph-go/internal/bitio"
	"github.com/vigna/webgraph-go/internal/ucode"
	"github.com/vigna/webgraph-go/properties"
)

// resolver supplies the already-decoded successor list of a referenced
// vertex (spec §4.G step 3). SequentialIterator serves this from its
// rolling window; RandomAccess may need to decode the reference on
// demand, recursing through decodeVertex with chain incremented, bounded
// by Metadata.MaxRefCount (SUPPLEMENTED FEATURES item 2).
type resolver func(ref uint64, chain int) ([]uint64, error)

// decodeVertex reconstructs vertex x's out-degree and successor list,
// reading from r positioned at the start of x's encoding (spec §4.G).
// chain counts the reference hops taken to reach this call, used to
// enforce MaxRefCount (SUPPLEMENTED FEATURES item 2).
func (g *Graph) decodeVertex(r *bitio.Reader, x uint64, chain int, resolve resolver) (uint64, []uint64, error) {
	m := g.meta

	d, err := ucode.Decode(r, m.OutdegreeCode(), m.ZetaK)
	if err != nil {
		return 0, nil, newErr("decodeVertex", KindIO, err)
	}
	if d == 0 {
		return 0, nil, nil
	}

	var copied []uint64
	var copiedArcs int

	if m.WindowSize > 0 {
		ref, err := ucode.Decode(r, m.ReferenceCode(), m.ZetaK)
		if err != nil {
			return d, nil, newErr("decodeVertex", KindIO, err)
		}
		if ref > 0 {
			if ref > uint64(m.WindowSize) || ref > x {
				return d, nil, newErr("decodeVertex", KindCorrupt, nil)
			}
			if chain+1 > m.MaxRefCount {
				return d, nil, newErr("decodeVertex", KindCorrupt, nil)
			}
			refList, err := resolve(x-ref, chain+1)
			if err != nil {
				return d, nil, err
			}

			bc, err := ucode.Decode(r, m.BlockCountCode(), m.ZetaK)
			if err != nil {
				return d, nil, newErr("decodeVertex", KindIO, err)
			}
			if bc == 0 {
				copied = append(copied, refList...)
			} else {
				copied, err = copyBlocks(r, m, refList, bc)
				if err != nil {
					return d, nil, err
				}
			}
			copiedArcs = len(copied)
		}
	}

	var intervalList []uint64
	if m.MinIntervalLength > 0 {
		ic, err := ucode.Decode(r, m.IntervalCountCode(), m.ZetaK)
		if err != nil {
			return d, nil, newErr("decodeVertex", KindIO, err)
		}
		if ic > 0 {
			intervalList, err = decodeIntervals(r, m, x, int(ic))
			if err != nil {
				return d, nil, err
			}
		}
	}

	residualCount := int64(d) - int64(copiedArcs) - int64(len(intervalList))
	if residualCount < 0 {
		return d, nil, newErr("decodeVertex", KindCorrupt, nil)
	}
	var residuals []uint64
	if residualCount > 0 {
		residuals, err = decodeResiduals(r, m, x, int(residualCount))
		if err != nil {
			return d, nil, err
		}
	}

	out := merge3(copied, intervalList, residuals)
	if uint64(len(out)) != d {
		return d, nil, newErr("decodeVertex", KindCorrupt, nil)
	}
	return d, out, nil
}

// copyBlocks applies the skip/copy run-length alternation of spec §4.G
// step 3 to refList, starting with a skip run. The first block length is
// read as-is (zero-biased); later ones are read-plus-one (one-biased).
// The implicit trailing run after the last explicit block shares that
// block's action (copy stays copy, skip stays skip) rather than
// alternating once more.
func copyBlocks(r *bitio.Reader, m *properties.Metadata, refList []uint64, bc uint64) ([]uint64, error) {
	var out []uint64
	pos := 0
	lastWasCopy := false
	for i := uint64(0); i < bc; i++ {
		v, err := ucode.Decode(r, m.BlockCode(), m.ZetaK)
		if err != nil {
			return nil, newErr("copyBlocks", KindIO, err)
		}
		blen := v
		if i > 0 {
			blen = v + 1
		}
		isCopy := i%2 == 1
		end := pos + int(blen)
		if end > len(refList) {
			return nil, newErr("copyBlocks", KindCorrupt, nil)
		}
		if isCopy {
			out = append(out, refList[pos:end]...)
		}
		pos = end
		lastWasCopy = isCopy
	}
	if lastWasCopy {
		out = append(out, refList[pos:]...)
	}
	return out, nil
}

// decodeIntervals reads ic (left-extreme, length) pairs per spec §4.G
// step 4 and expands each to its constituent vertex ids.
func decodeIntervals(r *bitio.Reader, m *properties.Metadata, x uint64, ic int) ([]uint64, error) {
	var out []uint64
	var left, end int64
	for j := 0; j < ic; j++ {
		raw, err := ucode.Decode(r, m.IntervalCode(), m.ZetaK)
		if err != nil {
			return nil, newErr("decodeIntervals", KindIO, err)
		}
		if j == 0 {
			left = int64(x) + 1 + ucode.UnZigZag(raw)
		} else {
			left = end + int64(raw) + 1
		}
		lenRaw, err := ucode.Decode(r, m.IntervalCode(), m.ZetaK)
		if err != nil {
			return nil, newErr("decodeIntervals", KindIO, err)
		}
		length := int64(lenRaw) + int64(m.MinIntervalLength)
		if length <= 0 || left < 0 {
			return nil, newErr("decodeIntervals", KindCorrupt, nil)
		}
		for v := left; v < left+length; v++ {
			out = append(out, uint64(v))
		}
		end = left + length
	}
	return out, nil
}

// decodeResiduals reads count residuals per spec §4.G step 5: the first
// is zig-zag relative to x, every subsequent one is the previous plus
// decoded+1.
func decodeResiduals(r *bitio.Reader, m *properties.Metadata, x uint64, count int) ([]uint64, error) {
	out := make([]uint64, 0, count)
	var prev int64
	for j := 0; j < count; j++ {
		raw, err := ucode.Decode(r, m.ResidualCode(), m.ZetaK)
		if err != nil {
			return nil, newErr("decodeResiduals", KindIO, err)
		}
		var v int64
		if j == 0 {
			v = int64(x) + ucode.UnZigZag(raw)
		} else {
			v = prev + int64(raw) + 1
		}
		if v < 0 {
			return nil, newErr("decodeResiduals", KindCorrupt, nil)
		}
		out = append(out, uint64(v))
		prev = v
	}
	return out, nil
}

// merge3 merges three already-sorted, duplicate-free slices into one
// sorted slice (spec §4.G step 6).
func merge3(a, b, c []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b)+len(c))
	i, j, k := 0, 0, 0
	for i < len(a) || j < len(b) || k < len(c) {
		var pick uint64
		from := -1
		if i < len(a) {
			pick = a[i]
			from = 0
		}
		if j < len(b) && (from == -1 || b[j] < pick) {
			pick = b[j]
			from = 1
		}
		if k < len(c) && (from == -1 || c[k] < pick) {
			pick = c[k]
			from = 2
		}
		out = append(out, pick)
		switch from {
		case 0:
			i++
		case 1:
			j++
		case 2:
			k++
		}
	}
	return out
}
