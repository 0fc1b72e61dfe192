package testutil

import (
	"math/rand/v2"
	"sort"

	"github.com/roach88/linklog/internal/snapshot"
)

// SequenceGenerator produces reproducible random snapshot sequences.
//
// Two generators built with the same seed and options yield identical
// output, which keeps randomized differential tests repeatable.
//
// Not safe for concurrent use.
type SequenceGenerator struct {
	rng *rand.Rand

	// MaxGap is the largest distance between consecutive lines of one node.
	MaxGap uint32
	// MaxMask is the largest mask size generated (inclusive).
	MaxMask int
}

// NewSequenceGenerator creates a generator seeded with seed.
func NewSequenceGenerator(seed uint64) *SequenceGenerator {
	return &SequenceGenerator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		MaxGap:  8,
		MaxMask: 70,
	}
}

// Lines returns n strictly increasing line numbers.
func (g *SequenceGenerator) Lines(n int) []uint32 {
	lines := make([]uint32, n)
	next := g.rng.Uint32N(g.MaxGap + 1)
	for i := range lines {
		lines[i] = next
		next += 1 + g.rng.Uint32N(g.MaxGap)
	}
	return lines
}

// Mask returns a random mask with a random size in [0, MaxMask].
func (g *SequenceGenerator) Mask() []bool {
	bits := make([]bool, g.rng.IntN(g.MaxMask+1))
	for i := range bits {
		bits[i] = g.rng.IntN(2) == 1
	}
	return bits
}

// Entries returns n entries for nodeID with strictly increasing lines.
func (g *SequenceGenerator) Entries(nodeID uint32, n int) []snapshot.Entry {
	lines := g.Lines(n)
	entries := make([]snapshot.Entry, n)
	for i, line := range lines {
		entries[i] = snapshot.New(nodeID, line, g.Mask(), g.Mask())
	}
	return entries
}

// Interleaved returns perNode entries for each of nodes node ids (0..nodes-1),
// merged into one slice ordered by line the way a loader reading a log would
// emit them. Per-node order stays strictly increasing.
func (g *SequenceGenerator) Interleaved(nodes, perNode int) []snapshot.Entry {
	var all []snapshot.Entry
	for id := 0; id < nodes; id++ {
		all = append(all, g.Entries(uint32(id), perNode)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Line() < all[j].Line()
	})
	return all
}

// Line returns a random line in [0, limit].
func (g *SequenceGenerator) Line(limit uint32) uint32 {
	return g.rng.Uint32N(limit + 1)
}

// LinearScan is the brute-force reference for the effective snapshot at line:
// among entries with Line() <= line, the one with the greatest line.
func LinearScan(entries []snapshot.Entry, line uint32) (snapshot.Entry, bool) {
	var best snapshot.Entry
	found := false
	for _, e := range entries {
		if e.Line() <= line && (!found || e.Line() > best.Line()) {
			best = e
			found = true
		}
	}
	return best, found
}
