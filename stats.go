package bvgraph

// Stats aggregates per-graph counts gathered by a single sequential pass
// (spec §8 testable property 7; SUPPLEMENTED FEATURES item 5 — the
// original's `all` test-driver mode folded into a reusable library call
// rather than the CLI only).
type Stats struct {
	Nodes     uint64
	Arcs      uint64
	Dangling  uint64
	SelfLoops uint64
}

// ComputeStats walks g sequentially once, counting dangling vertices
// (out-degree 0) and self-loops (x present in succ(x)).
func ComputeStats(g *Graph) (*Stats, error) {
	it, err := NewSequentialIterator(g)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	st := &Stats{Nodes: g.N()}
	for it.Next() {
		succ := it.Successors()
		if len(succ) == 0 {
			st.Dangling++
		}
		st.Arcs += uint64(len(succ))
		x := it.Vertex()
		for _, s := range succ {
			if s == x {
				st.SelfLoops++
				break
			}
		}
	}
	if it.Err() != nil {
		return nil, it.Err()
	}
	return st, nil
}
