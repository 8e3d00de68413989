// Package eliasfano implements the Elias-Fano monotone-sequence index
// (spec §3, §4.D) and its select1 acceleration structure (§4.E), the
// structures that let bvgraph's random-access reader find a vertex's bit
// offset in O(1) expected time without storing one 64-bit word per
// vertex. Grounded on erigon-lib's recsplit/eliasfano32 package (builder
// shape: New.../AddOffset/Build/Get) adapted to this package's exact
// bit layout, which follows spec §3/§4.D literally rather than erigon's
// DoubleEliasFano variant.
//
// Open question (spec §9 OQ1): offsets are treated as unsigned uint64
// throughout; the representable ceiling is 2^64-1, not 2^63-1.
package eliasfano

import (
	"math/bits"

	"github.com/vigna/webgraph-go/internal/bitarray"
)

// EliasFano encodes a monotone non-decreasing sequence x0 <= ... <=
// x(n-1) <= u using s = floor(log2((u+1)/n)) lower bits per element
// packed densely, plus an implicit upper-bits bitmap accelerated by a
// Select1Index.
type EliasFano struct {
	n     uint64
	u     uint64
	s     int
	lower *bitarray.Vector
	upper *bitarray.Array
	sel   *Select1Index

	pos       uint64 // number of elements added so far
	lastAdded uint64
	hasLast   bool
	built     bool
}

// New allocates an EliasFano ready to receive exactly n elements, none
// of which may exceed u.
func New(n, u uint64) *EliasFano {
	ef := &EliasFano{n: n, u: u}
	if n > 0 {
		ratio := (u + 1) / n
		if ratio >= 1 {
			ef.s = bits.Len64(ratio) - 1
		}
	}
	ef.lower = bitarray.NewVector(ef.s, int(n))
	var upperLen int
	if n > 0 {
		upperLen = int(n) + int(u>>uint(ef.s))
	}
	ef.upper = bitarray.NewArray(upperLen)
	return ef
}

// N returns the number of elements the list holds.
func (ef *EliasFano) N() uint64 { return ef.n }

// Bound returns the upper bound u passed to New.
func (ef *EliasFano) Bound() uint64 { return ef.u }

// LowBits returns s, the number of lower bits stored per element.
func (ef *EliasFano) LowBits() int { return ef.s }

// AddOffset appends the next element of the sequence. It mirrors
// eflist_add: it checks bounds (index and value) but, like the C
// original, trusts the caller for monotonicity on the single-element
// path — use AddBatch for a validated bulk load.
func (ef *EliasFano) AddOffset(x uint64) error {
	if ef.pos >= ef.n || x > ef.u {
		return ErrOutOfBound
	}
	ef.addAt(ef.pos, x)
	ef.pos++
	ef.hasLast = true
	ef.lastAdded = x
	return nil
}

// AddBatch appends a whole non-decreasing slice at once, validating
// monotonicity across the batch (and against whatever was added before),
// matching eflist_addbatch's batch_nondecreasing check.
func (ef *EliasFano) AddBatch(xs []uint64) error {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return ErrBatchNonDecreasing
		}
	}
	if ef.hasLast && len(xs) > 0 && xs[0] < ef.lastAdded {
		return ErrBatchNonDecreasing
	}
	for _, x := range xs {
		if err := ef.AddOffset(x); err != nil {
			return err
		}
	}
	return nil
}

func (ef *EliasFano) addAt(i, elem uint64) {
	if ef.s > 0 {
		mask := uint64(1)<<uint(ef.s) - 1
		ef.lower.Set(int(i), elem&mask)
	}
	k := int(elem>>uint(ef.s)) + int(i)
	ef.upper.SetBit(k)
}

// Build finalizes the select1 acceleration structure over the upper
// bits array. It must be called exactly once, after all n elements have
// been added, before Lookup is used.
func (ef *EliasFano) Build() error {
	sel, err := BuildSelect1(ef.upper, ef.n, DefaultSpillCapacity, true)
	if err != nil {
		return err
	}
	ef.sel = sel
	ef.built = true
	return nil
}

// Lookup returns the i-th element of the sequence: (select1(i) - i) <<
// s | lower[i], per spec §3/§4.D.
func (ef *EliasFano) Lookup(i uint64) (uint64, error) {
	if i >= ef.n {
		return 0, ErrOutOfBound
	}
	var low uint64
	if ef.s > 0 {
		low = ef.lower.Get(int(i))
	}
	high, err := ef.sel.Select(i)
	if err != nil {
		return 0, err
	}
	return ((uint64(high) - i) << uint(ef.s)) | low, nil
}
