// Package ucode implements the universal integer codes used to encode
// every per-vertex field of a BV graph: gamma, delta, zeta_k, unary,
// nibble, and minimal binary, plus the zig-zag signed/unsigned mapping.
// Every decoder here is a pure function over a bitio.Reader. A decoder
// fails when it runs off the end of the bit stream or when a length
// prefix asks for more than 64 raw bits; Decode also fails with
// ErrUnsupportedCoding for a Code it does not implement.
package ucode

import "github.com/vigna/webgraph-go/internal/bitio"

// Code names the decodable universal codes, used by properties.Metadata
// to record which code each graph field was compressed with (spec §4.F
// compressionflags) and by the Decode dispatch function below.
type Code int

const (
	CodeGamma Code = iota
	CodeDelta
	CodeZeta
	CodeUnary
	CodeNibble
)

func (c Code) String() string {
	switch c {
	case CodeGamma:
		return "GAMMA"
	case CodeDelta:
		return "DELTA"
	case CodeZeta:
		return "ZETA"
	case CodeUnary:
		return "UNARY"
	case CodeNibble:
		return "NIBBLE"
	default:
		return "UNKNOWN"
	}
}

// ParseCode maps a compressionflags token (spec §4.F) to a Code.
func ParseCode(s string) (Code, bool) {
	switch s {
	case "GAMMA":
		return CodeGamma, true
	case "DELTA":
		return CodeDelta, true
	case "ZETA":
		return CodeZeta, true
	case "UNARY":
		return CodeUnary, true
	case "NIBBLE":
		return CodeNibble, true
	default:
		return 0, false
	}
}

// Decode reads one value using c, with zetaK used only when c is
// CodeZeta. It is the dispatch point component G calls for every
// per-field code selection recorded in properties.Metadata.
func Decode(r *bitio.Reader, c Code, zetaK int) (uint64, error) {
	switch c {
	case CodeGamma:
		return Gamma(r)
	case CodeDelta:
		return Delta(r)
	case CodeZeta:
		return Zeta(r, zetaK)
	case CodeUnary:
		return r.ReadUnary()
	case CodeNibble:
		return Nibble(r)
	default:
		return 0, ErrUnsupportedCoding
	}
}

// ErrUnsupportedCoding is returned by Decode for a Code value this
// decoder doesn't implement (spec §7 unsupported_coding).
var ErrUnsupportedCoding = errUnsupportedCoding{}

type errUnsupportedCoding struct{}

func (errUnsupportedCoding) Error() string { return "ucode: unsupported coding" }
