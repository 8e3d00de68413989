package eliasfano

import (
	"math/bits"

	"github.com/vigna/webgraph-go/internal/bitarray"
)

// MaxOnesPerInventory bounds how many 1-bits a single inventory block
// may cover, per spec §3 ("Select1 inventory").
const MaxOnesPerInventory = 8192

// maxSpan is the bit-span beyond which an inventory block is spilled
// into exact_spill rather than located by scanning (spec §4.E).
const maxSpan = 1 << 16

// DefaultSpillCapacity is the pre-allocated exact_spill capacity (spec
// §4.E "Spill sizing policy"): 10 * MaxOnesPerInventory entries.
const DefaultSpillCapacity = 10 * MaxOnesPerInventory

// Select1Index accelerates select1(k) — the position of the (k+1)-th
// 1-bit — over a bit array, using a two-level inventory plus an exact
// spill array for blocks whose bit-span is too wide to scan cheaply.
//
// This implements spec §4.E's sum-type alternative explicitly called
// out in §9's design notes (a parallel "spilled" bitmap rather than
// reusing the sign bit of a shared int64, which is what the C original
// in original_source/src/eflist.c does): Go has no need for the
// sign-bit tagged union the C source uses.
type Select1Index struct {
	words          []uint64
	onesPerInv     int
	log2OnesPerInv int
	inv            []int64 // inv[k]: position of first 1 of block k, if not spilled
	spilled        []bool
	spillStart     []int32
	exactSpill     []int64
	numOnes        uint64
}

// BuildSelect1 builds a Select1Index over u, which must hold exactly
// numOnes set bits. spillCapacity is the initial exact_spill capacity;
// when a build needs more than that, allowRealloc decides whether the
// index grows the spill buffer to the exact required size or fails with
// ErrSpillTooSmall.
func BuildSelect1(u *bitarray.Array, numOnes uint64, spillCapacity int, allowRealloc bool) (*Select1Index, error) {
	length := u.Len()
	sel := &Select1Index{words: u.Words(), numOnes: numOnes}

	window := 1
	if length > 0 {
		window = int((numOnes*MaxOnesPerInventory + uint64(length) - 1) / uint64(length))
		if window < 1 {
			window = 1
		}
	}
	sel.log2OnesPerInv = log2Floor(uint64(window))
	sel.onesPerInv = 1 << uint(sel.log2OnesPerInv)

	numBlocks := int((numOnes + uint64(sel.onesPerInv) - 1) / uint64(sel.onesPerInv))
	sel.inv = make([]int64, numBlocks+1)
	sel.spilled = make([]bool, numBlocks)
	sel.spillStart = make([]int32, numBlocks)

	// First pass: record the position of the first 1 of every block.
	var d uint64
	for i := 0; i < length; i++ {
		if u.GetBit(i) == 1 {
			if int(d)%sel.onesPerInv == 0 {
				sel.inv[int(d)/sel.onesPerInv] = int64(i)
			}
			d++
		}
	}
	sel.inv[numBlocks] = int64(length)

	// Second pass: any block whose bit-span is too wide gets its ones
	// recorded exactly in exactSpill.
	spillCap := spillCapacity
	sel.exactSpill = make([]int64, 0, spillCap)
	for block := 0; block < numBlocks; block++ {
		span := sel.inv[block+1] - sel.inv[block]
		if span < maxSpan {
			continue
		}
		sel.spilled[block] = true
		sel.spillStart[block] = int32(len(sel.exactSpill))
		start := int(sel.inv[block])
		end := int(sel.inv[block+1])
		for i := start; i < end; i++ {
			if u.GetBit(i) == 1 {
				if len(sel.exactSpill) >= spillCap {
					if !allowRealloc {
						return nil, ErrSpillTooSmall
					}
					grown := make([]int64, len(sel.exactSpill), len(sel.exactSpill)*2+1)
					copy(grown, sel.exactSpill)
					sel.exactSpill = grown
					spillCap = cap(sel.exactSpill)
				}
				sel.exactSpill = append(sel.exactSpill, int64(i))
			}
		}
	}
	return sel, nil
}

// Select returns select1(rank): the bit position of the (rank+1)-th
// 1-bit. It fails with ErrOutOfBound when rank >= the number of ones.
func (s *Select1Index) Select(rank uint64) (int64, error) {
	if rank >= s.numOnes {
		return 0, ErrOutOfBound
	}
	block := int(rank) >> uint(s.log2OnesPerInv)
	subrank := int(rank) & (s.onesPerInv - 1)

	if s.spilled[block] {
		return s.exactSpill[int(s.spillStart[block])+subrank], nil
	}
	start := s.inv[block]
	if subrank == 0 {
		return start, nil
	}
	return s.scanForward(start, subrank), nil
}

// scanForward locates the subrank-th 1-bit strictly after the 1-bit at
// position start, first bit-by-bit within start's word, then
// word-by-word via popcount, then a final bit scan — per spec §4.E.
func (s *Select1Index) scanForward(start int64, subrank int) int64 {
	wordIdx := int(start) >> 6
	bitOff := int(start) & 63
	remaining := subrank

	word := s.words[wordIdx]
	for b := bitOff + 1; b < 64; b++ {
		if (word>>uint(b))&1 != 0 {
			remaining--
			if remaining == 0 {
				return int64(wordIdx*64 + b)
			}
		}
	}
	wordIdx++
	for {
		ones := bits.OnesCount64(s.words[wordIdx])
		if remaining <= ones {
			break
		}
		remaining -= ones
		wordIdx++
	}
	word = s.words[wordIdx]
	for b := 0; b < 64; b++ {
		if (word>>uint(b))&1 != 0 {
			remaining--
			if remaining == 0 {
				return int64(wordIdx*64 + b)
			}
		}
	}
	panic("eliasfano: scanForward ran past the expected 1-bit")
}

func log2Floor(u uint64) int {
	if u == 0 {
		return 0
	}
	return bits.Len64(u) - 1
}
