package ucode

import "github.com/vigna/webgraph-go/internal/bitio"

// Gamma decodes a γ-coded non-negative integer: a unary length q,
// followed by q raw bits forming the tail. Value = (1<<q) + tail - 1.
func Gamma(r *bitio.Reader) (uint64, error) {
	q, err := r.ReadUnary()
	if err != nil {
		return 0, err
	}
	if q == 0 {
		return 0, nil
	}
	tail, err := r.ReadBits(int(q))
	if err != nil {
		return 0, err
	}
	return (uint64(1) << q) + tail - 1, nil
}

// Delta decodes a δ-coded non-negative integer: the length q is itself
// γ-coded, followed by q raw tail bits. Value = (1<<q) + tail - 1.
func Delta(r *bitio.Reader) (uint64, error) {
	q, err := Gamma(r)
	if err != nil {
		return 0, err
	}
	if q == 0 {
		return 0, nil
	}
	tail, err := r.ReadBits(int(q))
	if err != nil {
		return 0, err
	}
	return (uint64(1) << q) + tail - 1, nil
}

// Zeta decodes a ζ_k-coded non-negative integer. h is the unary prefix;
// the remaining hk+k-1 bits (== floor(log2(u)) for u below) are decoded
// as a minimal-binary value bounded by u = 2^((h+1)k) - 2^(hk); the
// result adds back 2^(hk) - 1.
func Zeta(r *bitio.Reader, k int) (uint64, error) {
	h, err := r.ReadUnary()
	if err != nil {
		return 0, err
	}
	lo := uint64(1) << (uint(h) * uint(k))
	u := (uint64(1) << (uint(h+1) * uint(k))) - lo
	v, err := MinimalBinary(r, u)
	if err != nil {
		return 0, err
	}
	return v + lo - 1, nil
}

// Nibble decodes a sequence of 4-bit nibbles, each followed by a
// continuation bit: "nnnn c" repeated while c == 1. The decoded value is
// the big-endian concatenation of the nnnn nibbles.
func Nibble(r *bitio.Reader) (uint64, error) {
	var v uint64
	for {
		chunk, err := r.ReadBits(5)
		if err != nil {
			return 0, err
		}
		nibble := chunk >> 1
		cont := chunk & 1
		v = (v << 4) | nibble
		if cont == 0 {
			return v, nil
		}
	}
}

// MinimalBinary decodes x in [0, u) using ⌊log2 u⌋ bits when x falls in
// the "short" half of the range, and one extra bit otherwise.
func MinimalBinary(r *bitio.Reader, u uint64) (uint64, error) {
	if u <= 1 {
		return 0, nil
	}
	floorLog, ceilLog := log2Floor(u), log2Ceil(u)
	z := (uint64(1) << ceilLog) - u
	b, err := r.ReadBits(floorLog)
	if err != nil {
		return 0, err
	}
	if b < z {
		return b, nil
	}
	extra, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	return 2*b + extra - z, nil
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

// ZigZag maps a signed integer to an unsigned one, preserving small
// magnitudes: 0, -1, 1, -2, 2, ... -> 0, 1, 2, 3, 4, ...
func ZigZag(x int64) uint64 {
	return uint64((x << 1) ^ (x >> 63))
}

// UnZigZag inverts ZigZag: unsigned k -> (k>>1) ^ -(k&1).
func UnZigZag(k uint64) int64 {
	return int64(k>>1) ^ -int64(k&1)
}
