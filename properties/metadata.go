// Package properties parses a BV graph's `<base>.properties` record
// (spec §4.F) into a Metadata struct: vertex/arc counts, the window and
// interval parameters, and the per-field codec choices `bvgraph`'s
// successor decoder (component G) dispatches on via ucode.Decode. It is
// the domain-aware sibling of the generic key=value reader spec.md calls
// out of scope — grounded on the shape of erigon-lib/recsplit.Index's
// OpenIndex, which likewise interprets a small typed on-disk header into
// struct fields with named defaults rather than a general config parser.
package properties

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vigna/webgraph-go/internal/ucode"
)

// Default values applied when the corresponding property key is absent,
// per spec.md §3 and SUPPLEMENTED FEATURES item 6 (the C original treats
// these as literal optional-field defaults, not required keys).
const (
	DefaultZetaK             = 3
	DefaultWindowSize        = 7
	DefaultMinIntervalLength = 3
	DefaultMaxRefCount       = 3
)

// Fields named in spec §4.F's compressionflags grammar: FIELD_CODE
// tokens, one per graph field that carries an independently selectable
// codec.
const (
	FieldOutdegrees    = "OUTDEGREES"
	FieldReferences    = "REFERENCES"
	FieldBlocks        = "BLOCKS"
	FieldIntervals     = "INTERVALS"
	FieldResiduals     = "RESIDUALS"
	FieldOffsets       = "OFFSETS"
	FieldBlockCount    = "BLOCK_COUNT"
	FieldReference     = "REFERENCE"
	FieldIntervalCount = "INTERVAL_COUNT"
)

var knownFields = map[string]bool{
	FieldOutdegrees: true, FieldReferences: true, FieldBlocks: true,
	FieldIntervals: true, FieldResiduals: true, FieldOffsets: true,
	FieldBlockCount: true, FieldReference: true, FieldIntervalCount: true,
}

// CompressionFlags holds the per-field codec selection parsed out of the
// compressionflags property, keyed by FIELD token.
type CompressionFlags map[string]ucode.Code

// Get returns the codec configured for field, falling back to
// ucode.CodeGamma (BV's historical default for every field) when field
// was not present in compressionflags.
func (f CompressionFlags) Get(field string) ucode.Code {
	if c, ok := f[field]; ok {
		return c
	}
	return ucode.CodeGamma
}

// Metadata is the parsed, typed form of a `<base>.properties` record
// (spec §3 "Graph descriptor" attributes sourced from properties).
type Metadata struct {
	Nodes             uint64
	Arcs              uint64
	WindowSize        int
	MaxRefCount       int
	MinIntervalLength int
	ZetaK             int
	BitsPerLink       float64
	Version           string
	Flags             CompressionFlags
}

// OutdegreeCode, ReferenceCode, BlockCountCode, BlockCode, IntervalCountCode
// expose the codec chosen for each successor-decoder field (component G),
// falling back to gamma per BV convention when compressionflags omits it.
// ReferenceCode reads the FieldReferences token ("REFERENCES", plural,
// matching the OUTDEGREES/BLOCKS/RESIDUALS/INTERVALS/OFFSETS naming
// pattern of the other per-vertex-field tokens); FieldReference
// (singular) is accepted as a known compressionflags token but is not
// independently consumed, since spec §3 lists exactly one "reference
// count" code selection, not two.
func (m *Metadata) OutdegreeCode() ucode.Code     { return m.Flags.Get(FieldOutdegrees) }
func (m *Metadata) ReferenceCode() ucode.Code     { return m.Flags.Get(FieldReferences) }
func (m *Metadata) BlockCountCode() ucode.Code    { return m.Flags.Get(FieldBlockCount) }
func (m *Metadata) BlockCode() ucode.Code         { return m.Flags.Get(FieldBlocks) }
func (m *Metadata) IntervalCountCode() ucode.Code { return m.Flags.Get(FieldIntervalCount) }
func (m *Metadata) IntervalCode() ucode.Code      { return m.Flags.Get(FieldIntervals) }
func (m *Metadata) ResidualCode() ucode.Code      { return m.Flags.Get(FieldResiduals) }
func (m *Metadata) OffsetCode() ucode.Code        { return m.Flags.Get(FieldOffsets) }

// supportedVersions is the set of `version` tags this decoder accepts.
// The BV format has had exactly one on-disk version in practice; listed
// explicitly so a future bump is a one-line change, not a silent accept.
var supportedVersions = map[string]bool{"": true, "0": true}

// Parse reads a `<base>.properties` record: `key=value` lines, `#`
// comments, case-insensitive keys (spec §6). Unknown keys are ignored
// (forwards-compatible); malformed lines or values fail with
// ErrPropertyFile, an unrecognized version with ErrUnsupportedVersion,
// and an unknown compressionflags token with ErrCompressionFlag.
func Parse(r io.Reader) (*Metadata, error) {
	m := &Metadata{
		WindowSize:        DefaultWindowSize,
		MaxRefCount:       DefaultMaxRefCount,
		MinIntervalLength: DefaultMinIntervalLength,
		ZetaK:             DefaultZetaK,
		Flags:             CompressionFlags{},
	}

	raw := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: missing '=' in line %q", ErrPropertyFile, line)
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := strings.TrimSpace(line[eq+1:])
		raw[key] = val
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPropertyFile, err)
	}

	var err error
	if m.Nodes, err = parseUint(raw, "nodes", 0); err != nil {
		return nil, err
	}
	if m.Arcs, err = parseUint(raw, "arcs", 0); err != nil {
		return nil, err
	}
	if m.WindowSize, err = parseIntDefault(raw, "windowsize", DefaultWindowSize); err != nil {
		return nil, err
	}
	if m.MaxRefCount, err = parseIntDefault(raw, "maxrefcount", DefaultMaxRefCount); err != nil {
		return nil, err
	}
	if m.MinIntervalLength, err = parseIntDefault(raw, "minintervallength", DefaultMinIntervalLength); err != nil {
		return nil, err
	}
	if m.ZetaK, err = parseIntDefault(raw, "zetak", DefaultZetaK); err != nil {
		return nil, err
	}
	if bits, ok := raw["bitsperlink"]; ok {
		f, ferr := strconv.ParseFloat(bits, 64)
		if ferr != nil {
			return nil, fmt.Errorf("%w: bitsperlink=%q: %v", ErrPropertyFile, bits, ferr)
		}
		m.BitsPerLink = f
	}

	m.Version = raw["version"]
	if !supportedVersions[m.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, m.Version)
	}

	if flags, ok := raw["compressionflags"]; ok {
		parsed, perr := parseCompressionFlags(flags)
		if perr != nil {
			return nil, perr
		}
		m.Flags = parsed
	}

	return m, nil
}

func parseUint(raw map[string]string, key string, def uint64) (uint64, error) {
	s, ok := raw[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrPropertyFile, key, s, err)
	}
	return v, nil
}

func parseIntDefault(raw map[string]string, key string, def int) (int, error) {
	s, ok := raw[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrPropertyFile, key, s, err)
	}
	return v, nil
}

// parseCompressionFlags splits on whitespace or '|' (spec §4.F) and
// parses each FIELD_CODE token.
func parseCompressionFlags(s string) (CompressionFlags, error) {
	fields := CompressionFlags{}
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t' || r == ','
	})
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		under := strings.LastIndexByte(tok, '_')
		if under < 0 {
			return nil, fmt.Errorf("%w: malformed compressionflags token %q", ErrCompressionFlag, tok)
		}
		// LastIndexByte is correct even for multi-underscore field names
		// (BLOCK_COUNT, INTERVAL_COUNT): the codec suffix itself never
		// contains an underscore.
		field, codeStr := tok[:under], tok[under+1:]
		if !knownFields[field] {
			return nil, fmt.Errorf("%w: unknown field %q", ErrCompressionFlag, field)
		}
		code, ok := ucode.ParseCode(codeStr)
		if !ok {
			return nil, fmt.Errorf("%w: unknown code %q", ErrCompressionFlag, codeStr)
		}
		fields[field] = code
	}
	return fields, nil
}
