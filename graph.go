// Package bvgraph reads compressed web-graph files in the BV
// (Boldi-Vigna) format: a bit-level-encoded directed graph supporting
// sequential iteration over every vertex's successor list and random
// access to an individual vertex's out-degree and successors, backed by
// an optional Elias-Fano index over per-vertex bit offsets.
//
// Package layout mirrors erigon-lib's "one succinct-structure concern
// per package" shape (recsplit, recsplit/eliasfano32): internal/bitio
// is the bit-level reader, internal/ucode the universal integer codecs,
// internal/bitarray the packed storage primitives, eliasfano the
// monotone-sequence index, properties the `.properties` parser, and
// this root package the graph descriptor, successor decoder, and
// iterators (spec §2 components G and H).
package bvgraph

import (
	"errors"
	"os"

	"github.com/c2h5oh/datasize"

	"github.com/vigna/webgraph-go/bvlog"
	"github.com/vigna/webgraph-go/eliasfano"
	"github.com/vigna/webgraph-go/internal/bitio"
	"github.com/vigna/webgraph-go/internal/ucode"
	"github.com/vigna/webgraph-go/properties"
)

// Graph is the immutable, load-time-frozen descriptor of a BV graph:
// parsed metadata plus whichever graph-byte source (in memory, mmap-ed,
// or none) and offsets representation (none, dense, Elias-Fano)
// offset_step selected (spec §3 "Graph descriptor", §6 "Load policy").
// A Graph is safe for concurrent use by independent iterators so long as
// no iterator mutates the underlying buffer (spec §5).
type Graph struct {
	meta *properties.Metadata

	src      bitio.Source
	mmapSrc  *bitio.MmapSource // non-nil only when offset_step < 0
	srcOwned bool

	offsetsDense []uint64
	ef           *eliasfano.EliasFano

	offsetStep int
	logger     bvlog.Logger
}

// Metadata returns the parsed `.properties` record backing g.
func (g *Graph) Metadata() *properties.Metadata { return g.meta }

// N returns the vertex count.
func (g *Graph) N() uint64 { return g.meta.Nodes }

// M returns the arc count.
func (g *Graph) M() uint64 { return g.meta.Arcs }

// LoadConfig configures Load; constructed via functional options
// (WithOffsetStep, WithLogger, WithGraphBuffer), matching the
// options-struct-plus-setters shape used across erigon-lib's
// RecSplitArgs and state package configs.
type LoadConfig struct {
	// OffsetStep selects the load policy (spec §6): -1 metadata-only,
	// <-1 mmap the graph and build an Elias-Fano offset index, 0 load
	// the graph with no offsets, 1 load dense 64-bit offsets, 2 build
	// an Elias-Fano index, >2 choose dense-vs-EF by comparing 8*n
	// bytes against OffsetStep (interpreted as bytes, not megabytes —
	// spec §9 OQ2's resolution, documented here and in DESIGN.md).
	OffsetStep int
	// Logger receives Load's structured progress messages. Nil is
	// equivalent to bvlog.Discard.
	Logger bvlog.Logger
	// GraphBuffer, when non-nil and OffsetStep >= 0, is used as the
	// graph byte source instead of reading `<base>.graph`; the Graph
	// does not own it and Close will not release it (spec §5 "External
	// vs internal buffers"). With OffsetStep < -1 the graph is mmap-ed
	// from `<base>.graph` and GraphBuffer is not used.
	GraphBuffer []byte
}

// Option mutates a LoadConfig.
type Option func(*LoadConfig)

// WithOffsetStep sets the load policy (spec §6).
func WithOffsetStep(step int) Option {
	return func(c *LoadConfig) { c.OffsetStep = step }
}

// WithLogger sets the structured logger Load reports progress to.
func WithLogger(l bvlog.Logger) Option {
	return func(c *LoadConfig) { c.Logger = l }
}

// WithGraphBuffer supplies an externally owned graph byte buffer,
// bypassing the `<base>.graph` read for every OffsetStep >= 0.
func WithGraphBuffer(buf []byte) Option {
	return func(c *LoadConfig) { c.GraphBuffer = buf }
}

// Load opens `<base>.properties` and, per the resolved OffsetStep,
// `<base>.graph` and `<base>.offsets`, returning an immutable Graph
// ready for sequential and/or random access (spec §2 "Data flow").
func Load(base string, opts ...Option) (*Graph, error) {
	cfg := LoadConfig{OffsetStep: 2, Logger: bvlog.Discard}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = bvlog.Discard
	}

	meta, err := loadMetadata(base)
	if err != nil {
		return nil, err
	}

	g := &Graph{meta: meta, offsetStep: cfg.OffsetStep, logger: cfg.Logger}
	cfg.Logger.Info("bvgraph: loading", "base", base, "offset_step", cfg.OffsetStep, "nodes", meta.Nodes)

	switch {
	case cfg.OffsetStep == -1:
		return g, nil
	case cfg.OffsetStep < -1:
		if err := g.mmapGraph(base); err != nil {
			return nil, err
		}
		if err := g.loadEFOffsets(base); err != nil {
			return nil, err
		}
	case cfg.OffsetStep == 0:
		if err := g.loadGraphBuffer(base, cfg.GraphBuffer); err != nil {
			return nil, err
		}
	case cfg.OffsetStep == 1:
		if err := g.loadGraphBuffer(base, cfg.GraphBuffer); err != nil {
			return nil, err
		}
		if err := g.loadDenseOffsets(base); err != nil {
			return nil, err
		}
	case cfg.OffsetStep == 2:
		if err := g.loadGraphBuffer(base, cfg.GraphBuffer); err != nil {
			return nil, err
		}
		if err := g.loadEFOffsets(base); err != nil {
			return nil, err
		}
	default: // > 2
		if err := g.loadGraphBuffer(base, cfg.GraphBuffer); err != nil {
			return nil, err
		}
		if 8*int64(meta.Nodes) <= int64(cfg.OffsetStep) {
			if err := g.loadDenseOffsets(base); err != nil {
				return nil, err
			}
		} else {
			cfg.Logger.Debug("bvgraph: offset_step budget too small for dense offsets, building EF index", "base", base)
			if err := g.loadEFOffsets(base); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func loadMetadata(base string) (*properties.Metadata, error) {
	f, err := os.Open(base + ".properties")
	if err != nil {
		return nil, newErr("Load", KindIO, err)
	}
	defer f.Close()

	meta, err := properties.Parse(f)
	if err != nil {
		switch {
		case errors.Is(err, properties.ErrUnsupportedVersion):
			return nil, newErr("Load", KindUnsupportedVersion, err)
		case errors.Is(err, properties.ErrCompressionFlag):
			return nil, newErr("Load", KindCompressionFlag, err)
		default:
			return nil, newErr("Load", KindPropertyFile, err)
		}
	}
	return meta, nil
}

func (g *Graph) mmapGraph(base string) error {
	src, err := bitio.OpenMmapSource(base + ".graph")
	if err != nil {
		return newErr("Load", KindIO, err)
	}
	g.mmapSrc = src
	g.src = src
	g.srcOwned = true
	return nil
}

func (g *Graph) loadGraphBuffer(base string, external []byte) error {
	if external != nil {
		g.src = bitio.ByteSource(external)
		g.srcOwned = false
		return nil
	}
	data, err := os.ReadFile(base + ".graph")
	if err != nil {
		return newErr("Load", KindIO, err)
	}
	g.src = bitio.ByteSource(data)
	g.srcOwned = true
	return nil
}

// readOffsetDeltas decodes `<base>.offsets`: n gamma-coded deltas whose
// prefix sum gives each vertex's absolute bit offset into `.graph`
// (spec §6).
func readOffsetDeltas(path string, n uint64) ([]uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr("Load", KindIO, err)
	}
	r := bitio.NewReader(bitio.ByteSource(data))
	offsets := make([]uint64, n)
	var cum uint64
	for i := uint64(0); i < n; i++ {
		delta, err := ucode.Gamma(r)
		if err != nil {
			return nil, newErr("Load", KindIO, err)
		}
		cum += delta
		offsets[i] = cum
	}
	return offsets, nil
}

func (g *Graph) loadDenseOffsets(base string) error {
	offs, err := readOffsetDeltas(base+".offsets", g.meta.Nodes)
	if err != nil {
		return err
	}
	g.offsetsDense = offs
	return nil
}

func (g *Graph) loadEFOffsets(base string) error {
	offs, err := readOffsetDeltas(base+".offsets", g.meta.Nodes)
	if err != nil {
		return err
	}
	var u uint64
	if len(offs) > 0 {
		u = offs[len(offs)-1]
	}
	ef := eliasfano.New(uint64(len(offs)), u)
	if err := ef.AddBatch(offs); err != nil {
		return newErr("Load", KindBatchNonDecreasing, err)
	}
	if err := ef.Build(); err != nil {
		return newErr("Load", KindSpillTooSmall, err)
	}
	g.ef = ef
	return nil
}

// offset resolves vertex x's absolute bit offset into `.graph`, per
// spec §4.H: dense array, else EF lookup, else requires_offsets.
func (g *Graph) offset(x uint64) (uint64, error) {
	if x >= g.meta.Nodes {
		return 0, newErr("offset", KindVertexOutOfRange, nil)
	}
	if g.offsetsDense != nil {
		return g.offsetsDense[x], nil
	}
	if g.ef != nil {
		v, err := g.ef.Lookup(x)
		if err != nil {
			return 0, newErr("offset", KindOutOfBound, err)
		}
		return v, nil
	}
	return 0, newErr("offset", KindRequiresOffsets, nil)
}

// Close releases every internally allocated resource exactly once
// (spec §5 "Resource policy"). Iterators over g must be released first;
// Close does not check this and double-Close is a caller bug.
func (g *Graph) Close() error {
	var err error
	if g.mmapSrc != nil {
		err = g.mmapSrc.Close()
		g.mmapSrc = nil
	}
	g.src = nil
	return err
}

// MemoryEstimate reports the memory RequiredMemory predicts a load would
// consume, broken down by buffer (spec §5 "Memory sizing contract").
type MemoryEstimate struct {
	GraphBuffer   datasize.ByteSize
	OffsetsBuffer datasize.ByteSize
	EFBuffer      datasize.ByteSize
}

// Total returns the sum of all three buffers.
func (m MemoryEstimate) Total() datasize.ByteSize {
	return m.GraphBuffer + m.OffsetsBuffer + m.EFBuffer
}

// RequiredMemory computes the memory a Load(base, WithOffsetStep(step))
// call would need, without performing the load, so callers can pre-size
// external buffers (spec §5). It reads only `<base>.properties` and
// stats `<base>.graph`.
func RequiredMemory(base string, offsetStep int) (*MemoryEstimate, error) {
	meta, err := loadMetadata(base)
	if err != nil {
		return nil, err
	}

	est := &MemoryEstimate{}
	if offsetStep != -1 {
		if fi, statErr := os.Stat(base + ".graph"); statErr == nil {
			est.GraphBuffer = datasize.ByteSize(fi.Size())
		}
	}

	dense := datasize.ByteSize(8 * meta.Nodes)
	switch {
	case offsetStep == -1, offsetStep == 0:
		// No offsets loaded.
	case offsetStep == 1:
		est.OffsetsBuffer = dense
	case offsetStep == 2, offsetStep < -1:
		est.EFBuffer = estimateEFSize(meta, est.GraphBuffer)
	default: // > 2, bytes budget (spec §9 OQ2)
		if int64(dense) <= int64(offsetStep) {
			est.OffsetsBuffer = dense
		} else {
			est.EFBuffer = estimateEFSize(meta, est.GraphBuffer)
		}
	}
	return est, nil
}

// estimateEFSize applies spec §4.D's space bound — n*(2 +
// ceil(log2(u/n))) bits — plus the select1 index's default pre-allocated
// exact_spill capacity (eliasfano.DefaultSpillCapacity entries), giving
// an upper-bound estimate matching BuildSelect1's actual allocation
// policy (spec §4.E "Spill sizing policy").
func estimateEFSize(meta *properties.Metadata, graphBytes datasize.ByteSize) datasize.ByteSize {
	n := meta.Nodes
	if n == 0 {
		return 0
	}
	u := uint64(float64(meta.Arcs) * meta.BitsPerLink)
	if u == 0 {
		u = uint64(graphBytes) * 8
	}
	ratio := (u + n - 1) / n // ceil(u/n), so ceilLog2 gives ceil(log2(u/n))
	bits := n * uint64(2+ceilLog2(ratio))
	spillBytes := uint64(eliasfano.DefaultSpillCapacity) * 8
	return datasize.ByteSize(bits/8 + spillBytes)
}

func ceilLog2(x uint64) int {
	if x <= 1 {
		return 0
	}
	n := 0
	v := x - 1
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}
