package bvgraph

import (
	"github.com/vigna/webgraph-go/internal/bitio"
	"github.com/vigna/webgraph-go/internal/ucode"
)

// SequentialIterator walks every vertex of a Graph in order, decoding
// each successor list exactly once (spec §4.H "Sequential iterator").
// It keeps a rolling window of the last WindowSize decoded lists so
// reference-compressed vertices can copy from an already-decoded
// neighbor without seeking backward. Not safe for concurrent use; open
// an independent iterator per goroutine (spec §5).
type SequentialIterator struct {
	g       *Graph
	r       *bitio.Reader
	curr    uint64
	started bool
	valid   bool
	succ    []uint64
	window  map[uint64][]uint64
	err     error
}

// NewSequentialIterator opens a sequential walk over g, starting before
// vertex 0. Fails with KindUnsupported if g has no graph byte source
// loaded (offset_step == -1).
func NewSequentialIterator(g *Graph) (*SequentialIterator, error) {
	if g.src == nil {
		return nil, newErr("NewSequentialIterator", KindUnsupported, nil)
	}
	return &SequentialIterator{
		g:      g,
		r:      bitio.NewReader(g.src),
		window: make(map[uint64][]uint64),
	}, nil
}

// Next advances to the next vertex, decoding its successor list. It
// returns false at end of stream or on decode error; check Err to
// distinguish the two.
func (it *SequentialIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.started {
		it.curr++
	} else {
		it.started = true
		it.curr = 0
	}
	if it.curr >= it.g.meta.Nodes {
		it.valid = false
		return false
	}

	_, succ, err := it.g.decodeVertex(it.r, it.curr, 0, it.resolve)
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	it.succ = succ
	if w := uint64(it.g.meta.WindowSize); w > 0 {
		it.window[it.curr] = succ
		if it.curr >= w {
			delete(it.window, it.curr-w)
		}
	}
	it.valid = true
	return true
}

// resolve serves a reference-compression copy from the rolling window;
// a miss means the bit stream disagreed with its own windowsize, a
// corrupt stream.
func (it *SequentialIterator) resolve(ref uint64, _ int) ([]uint64, error) {
	if list, ok := it.window[ref]; ok {
		return list, nil
	}
	return nil, newErr("decodeVertex", KindCorrupt, nil)
}

// Valid reports whether the iterator currently sits on a decoded vertex.
func (it *SequentialIterator) Valid() bool { return it.valid }

// Vertex returns the current vertex id.
func (it *SequentialIterator) Vertex() uint64 { return it.curr }

// Successors exposes the current vertex's successor list. The returned
// slice is invalidated by the next Next call.
func (it *SequentialIterator) Successors() []uint64 { return it.succ }

// Outdegree returns the current vertex's out-degree.
func (it *SequentialIterator) Outdegree() uint64 { return uint64(len(it.succ)) }

// Err returns the error, if any, that stopped iteration early.
func (it *SequentialIterator) Err() error { return it.err }

// Close releases the iterator. It does not close the underlying Graph.
func (it *SequentialIterator) Close() error { return nil }

// RandomAccess provides offset-indexed access to individual vertices'
// out-degree and successor list (spec §4.H "Random iterator"), backed by
// a small cache of the last WindowSize+1 decoded lists so that
// reference-compressed vertices visited out of order don't each trigger
// a fresh recursive decode. Not safe for concurrent use.
type RandomAccess struct {
	g     *Graph
	cache map[uint64][]uint64
	order []uint64
}

// NewRandomAccess opens a random-access view over g. Fails with
// KindUnsupported if g has no graph byte source loaded.
func NewRandomAccess(g *Graph) (*RandomAccess, error) {
	if g.src == nil {
		return nil, newErr("NewRandomAccess", KindUnsupported, nil)
	}
	return &RandomAccess{g: g, cache: make(map[uint64][]uint64)}, nil
}

// Outdegree seeks to offset(x) and decodes only the out-degree field,
// without walking references, intervals, or residuals — the "degree
// only fast path" (SUPPLEMENTED FEATURES item 4).
func (ra *RandomAccess) Outdegree(x uint64) (uint64, error) {
	if list, ok := ra.cache[x]; ok {
		return uint64(len(list)), nil
	}
	off, err := ra.g.offset(x)
	if err != nil {
		return 0, err
	}
	r := bitio.NewReader(ra.g.src)
	r.Seek(off)
	d, err := ucode.Decode(r, ra.g.meta.OutdegreeCode(), ra.g.meta.ZetaK)
	if err != nil {
		return 0, newErr("Outdegree", KindIO, err)
	}
	return d, nil
}

// Successors seeks to offset(x), fully decodes x's successor list, caches
// it, and returns it. The returned slice must not be mutated by the
// caller: it may be shared with the internal cache and with a later
// reference-compression copy.
func (ra *RandomAccess) Successors(x uint64) ([]uint64, error) {
	return ra.successors(x, 0)
}

func (ra *RandomAccess) successors(x uint64, chain int) ([]uint64, error) {
	if list, ok := ra.cache[x]; ok {
		return list, nil
	}
	off, err := ra.g.offset(x)
	if err != nil {
		return nil, err
	}
	r := bitio.NewReader(ra.g.src)
	r.Seek(off)
	_, succ, err := ra.g.decodeVertex(r, x, chain, ra.resolve)
	if err != nil {
		return nil, err
	}
	ra.store(x, succ)
	return succ, nil
}

// resolve recursively decodes a referenced vertex on demand — spec
// §4.G's reference chain, bounded by MaxRefCount inside decodeVertex
// itself (SUPPLEMENTED FEATURES item 2).
func (ra *RandomAccess) resolve(ref uint64, chain int) ([]uint64, error) {
	return ra.successors(ref, chain)
}

func (ra *RandomAccess) store(x uint64, succ []uint64) {
	ra.cache[x] = succ
	ra.order = append(ra.order, x)
	limit := ra.g.meta.WindowSize + 1
	if limit < 1 {
		limit = 1
	}
	for len(ra.order) > limit {
		delete(ra.cache, ra.order[0])
		ra.order = ra.order[1:]
	}
}

// Close releases the iterator. It does not close the underlying Graph.
func (ra *RandomAccess) Close() error { return nil }
