package properties

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vigna/webgraph-go/internal/ucode"
)

func TestParseDefaults(t *testing.T) {
	m, err := Parse(strings.NewReader("nodes=4\narcs=5\n"))
	require.NoError(t, err)
	require.Equal(t, uint64(4), m.Nodes)
	require.Equal(t, uint64(5), m.Arcs)
	require.Equal(t, DefaultWindowSize, m.WindowSize)
	require.Equal(t, DefaultMaxRefCount, m.MaxRefCount)
	require.Equal(t, DefaultMinIntervalLength, m.MinIntervalLength)
	require.Equal(t, DefaultZetaK, m.ZetaK)
}

func TestParseCommentsAndCase(t *testing.T) {
	text := "# a comment\nNODES=10\n  ARCS = 20 \n\nWindowSize=5\n"
	m, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, uint64(10), m.Nodes)
	require.Equal(t, uint64(20), m.Arcs)
	require.Equal(t, 5, m.WindowSize)
}

func TestParseCompressionFlags(t *testing.T) {
	text := "nodes=1\narcs=1\ncompressionflags=OUTDEGREES_GAMMA|REFERENCES_UNARY|BLOCK_COUNT_GAMMA|INTERVALS_DELTA|RESIDUALS_ZETA\n"
	m, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, ucode.CodeGamma, m.OutdegreeCode())
	require.Equal(t, ucode.CodeUnary, m.ReferenceCode())
	require.Equal(t, ucode.CodeGamma, m.BlockCountCode())
	require.Equal(t, ucode.CodeDelta, m.IntervalCode())
	require.Equal(t, ucode.CodeZeta, m.ResidualCode())
	// Fields absent from compressionflags fall back to gamma.
	require.Equal(t, ucode.CodeGamma, m.OffsetCode())
}

func TestParseCompressionFlagsWhitespaceSeparated(t *testing.T) {
	m, err := Parse(strings.NewReader("nodes=1\narcs=1\ncompressionflags=OUTDEGREES_ZETA OFFSETS_GAMMA\n"))
	require.NoError(t, err)
	require.Equal(t, ucode.CodeZeta, m.OutdegreeCode())
	require.Equal(t, ucode.CodeGamma, m.OffsetCode())
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("compressionflags=BOGUS_GAMMA\n"))
	require.ErrorIs(t, err, ErrCompressionFlag)
}

func TestParseUnknownCode(t *testing.T) {
	_, err := Parse(strings.NewReader("compressionflags=OUTDEGREES_BOGUS\n"))
	require.ErrorIs(t, err, ErrCompressionFlag)
}

func TestParseMalformedFlagToken(t *testing.T) {
	_, err := Parse(strings.NewReader("compressionflags=NOUNDERSCORE\n"))
	require.ErrorIs(t, err, ErrCompressionFlag)
}

func TestParseMissingEquals(t *testing.T) {
	_, err := Parse(strings.NewReader("nodes 4\n"))
	require.ErrorIs(t, err, ErrPropertyFile)
}

func TestParseBadNumber(t *testing.T) {
	_, err := Parse(strings.NewReader("nodes=abc\n"))
	require.ErrorIs(t, err, ErrPropertyFile)
}

func TestParseUnsupportedVersion(t *testing.T) {
	_, err := Parse(strings.NewReader("version=99\n"))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParseBitsPerLink(t *testing.T) {
	m, err := Parse(strings.NewReader("bitsperlink=3.75\n"))
	require.NoError(t, err)
	require.InDelta(t, 3.75, m.BitsPerLink, 1e-9)
}
