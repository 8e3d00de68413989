// Package bvtest is a test-only BV-format encoder: it hand-builds the
// `.graph`/`.offsets` bit streams and a matching `.properties` text
// record for small fixtures, so package tests across the module can
// exercise spec §8's scenarios (S1-S6) without committing binary blobs —
// the same "build fixtures programmatically" approach erigon's own
// tests favor for formats simple enough to hand-encode.
package bvtest

import (
	"fmt"
	"math/bits"
)

// BitWriter accumulates bits MSB-first within each byte, the mirror
// image of bitio.Reader's expected layout (spec §4.A).
type BitWriter struct {
	buf  []byte
	cur  byte
	nbit uint
}

// NewBitWriter returns an empty BitWriter.
func NewBitWriter() *BitWriter { return &BitWriter{} }

// WriteBit appends a single bit.
func (w *BitWriter) WriteBit(b uint64) {
	w.cur = (w.cur << 1) | byte(b&1)
	w.nbit++
	if w.nbit == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbit = 0
	}
}

// WriteBits appends the low k bits of v, most significant first.
func (w *BitWriter) WriteBits(v uint64, k int) {
	for i := k - 1; i >= 0; i-- {
		w.WriteBit((v >> uint(i)) & 1)
	}
}

// WriteUnary appends q zero bits followed by a terminating one bit.
func (w *BitWriter) WriteUnary(q uint64) {
	for i := uint64(0); i < q; i++ {
		w.WriteBit(0)
	}
	w.WriteBit(1)
}

// WriteGamma appends x in gamma code: unary(len(x+1)-1) then the tail
// bits of x+1 below its leading one.
func (w *BitWriter) WriteGamma(x uint64) {
	v := x + 1
	q := bits.Len64(v) - 1
	w.WriteUnary(uint64(q))
	if q > 0 {
		tail := v - (uint64(1) << uint(q))
		w.WriteBits(tail, q)
	}
}

// WriteDelta appends x in delta code: the gamma-coded length followed
// by the tail bits, mirroring ucode.Delta's decode.
func (w *BitWriter) WriteDelta(x uint64) {
	v := x + 1
	q := bits.Len64(v) - 1
	w.WriteGamma(uint64(q))
	if q > 0 {
		tail := v - (uint64(1) << uint(q))
		w.WriteBits(tail, q)
	}
}

// WriteZeta appends x in zeta_k code, the exact inverse of ucode.Zeta.
func (w *BitWriter) WriteZeta(x uint64, k int) {
	h := 0
	for (x + 1) >= (uint64(1) << uint((h+1)*k)) {
		h++
	}
	lo := uint64(1) << uint(h*k)
	u := (uint64(1) << uint((h+1)*k)) - lo
	v := x - lo + 1
	w.WriteUnary(uint64(h))
	w.writeMinimalBinary(v, u)
}

// WriteNibble appends x as 4-bit nibbles MSB-first, each followed by a
// continuation bit (1 except on the last nibble), mirroring ucode.Nibble.
func (w *BitWriter) WriteNibble(x uint64) {
	n := 1
	for x>>uint(4*n) != 0 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		nib := (x >> uint(4*i)) & 0xF
		w.WriteBits(nib, 4)
		if i > 0 {
			w.WriteBit(1)
		} else {
			w.WriteBit(0)
		}
	}
}

func (w *BitWriter) writeMinimalBinary(v, u uint64) {
	if u <= 1 {
		return
	}
	floorLog, ceilLog := log2Floor(u), log2Ceil(u)
	z := (uint64(1) << uint(ceilLog)) - u
	if v < z {
		w.WriteBits(v, floorLog)
		return
	}
	sum := v + z
	w.WriteBits(sum>>1, floorLog)
	w.WriteBit(sum & 1)
}

func log2Floor(u uint64) int {
	n := 0
	for u > 1 {
		u >>= 1
		n++
	}
	return n
}

func log2Ceil(u uint64) int {
	f := log2Floor(u)
	if uint64(1)<<uint(f) == u {
		return f
	}
	return f + 1
}

// ZigZag mirrors ucode.ZigZag without importing the internal package
// (bvtest is deliberately dependency-light so it can be imported from
// any package's tests).
func ZigZag(x int64) uint64 {
	return uint64((x << 1) ^ (x >> 63))
}

// BitLen reports the writer's current length in bits.
func (w *BitWriter) BitLen() uint64 {
	return uint64(len(w.buf))*8 + uint64(w.nbit)
}

// Bytes flushes any partial trailing byte (zero-padded) and returns the
// accumulated buffer. Safe to call before the writer is "done" — later
// writes continue appending past the previously returned slice's bytes.
func (w *BitWriter) Bytes() []byte {
	if w.nbit == 0 {
		return append([]byte(nil), w.buf...)
	}
	padded := w.cur << (8 - w.nbit)
	out := append([]byte(nil), w.buf...)
	return append(out, padded)
}

// EncodeVertex writes vertex x's record assuming gamma coding
// throughout and no reference compression or interval extraction
// (reference count / interval count fields, when present per
// windowSize/minIntervalLen, are written as zero): out-degree followed
// by the plain residual list, first element zig-zag relative to x, the
// rest delta-from-previous-minus-one (spec §4.G steps 1, 3, 4, 5 with
// r=0, ic=0).
func EncodeVertex(w *BitWriter, x uint64, successors []uint64, windowSize, minIntervalLen int) {
	d := uint64(len(successors))
	w.WriteGamma(d)
	if d == 0 {
		return
	}
	if windowSize > 0 {
		w.WriteGamma(0)
	}
	if minIntervalLen > 0 {
		w.WriteGamma(0)
	}
	var prev int64
	for i, s := range successors {
		v := int64(s)
		if i == 0 {
			w.WriteGamma(ZigZag(v - int64(x)))
		} else {
			w.WriteGamma(uint64(v - prev - 1))
		}
		prev = v
	}
}

// EncodeOffsets writes the gamma-coded prefix-sum-delta bit stream
// `<base>.offsets` expects, given the absolute bit offset of every
// vertex (spec §6).
func EncodeOffsets(offsets []uint64) []byte {
	w := NewBitWriter()
	var prev uint64
	for i, o := range offsets {
		if i == 0 {
			w.WriteGamma(o)
		} else {
			w.WriteGamma(o - prev)
		}
		prev = o
	}
	return w.Bytes()
}

// ToyGraph bundles the three files a bvgraph.Load call reads, built
// in-memory from an adjacency list.
type ToyGraph struct {
	GraphBytes     []byte
	OffsetBytes    []byte
	PropertiesText string
	N, M           uint64
}

// BuildToyGraph encodes adj (adj[x] must be sorted ascending, x's own
// out-degree is len(adj[x])) as a windowsize=0/minintervallength=0/
// gamma-only BV graph — no reference compression or intervals, pure
// residual lists, which is sufficient to exercise every decoder path
// except steps 3 and 4 (those are covered by dedicated encoder-level
// unit tests in package bvgraph instead of via fixtures).
func BuildToyGraph(adj [][]uint64) *ToyGraph {
	n := uint64(len(adj))
	w := NewBitWriter()
	offsets := make([]uint64, n)
	var m uint64
	for x := uint64(0); x < n; x++ {
		offsets[x] = w.BitLen()
		EncodeVertex(w, x, adj[x], 0, 0)
		m += uint64(len(adj[x]))
	}
	props := fmt.Sprintf(
		"nodes=%d\narcs=%d\nwindowsize=0\nmaxrefcount=0\nminintervallength=0\nzetak=3\nversion=0\n",
		n, m,
	)
	return &ToyGraph{
		GraphBytes:     w.Bytes(),
		OffsetBytes:    EncodeOffsets(offsets),
		PropertiesText: props,
		N:              n,
		M:              m,
	}
}
