package logstore

import (
	"fmt"
	"sort"

	"github.com/tidwall/btree"

	"github.com/roach88/linklog/internal/snapshot"
)

// Store is the frozen, read-only per-node snapshot store.
type Store struct {
	nodes *btree.BTreeG[*nodeSeq]
	count int
}

// NodeState pairs a node with its effective snapshot at some line.
type NodeState struct {
	NodeID uint32         `json:"node_id"`
	Entry  snapshot.Entry `json:"-"`
}

// GraphState is the effective snapshot of every node that has one at Line.
// Nodes is ordered by ascending node id; nodes without a snapshot are omitted.
type GraphState struct {
	Line  uint32      `json:"line"`
	Nodes []NodeState `json:"nodes"`
}

// At returns the snapshot of nodeID effective at line: the last entry whose
// line is <= line. The boolean is false if the node is unknown or line
// precedes its first entry.
func (s *Store) At(nodeID, line uint32) (snapshot.Entry, bool) {
	seq, ok := s.lookup(nodeID)
	if !ok {
		return snapshot.Entry{}, false
	}
	return effective(seq.entries, line)
}

// effective performs the upper-bound search over entries sorted by line.
func effective(entries []snapshot.Entry, line uint32) (snapshot.Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return snapshot.LineBefore(line, entries[i])
	})
	if i == 0 {
		return snapshot.Entry{}, false
	}
	return entries[i-1], true
}

// GraphAt returns the effective snapshot of every node at line.
// Returns an empty (not nil) Nodes slice when no node has a snapshot yet.
func (s *Store) GraphAt(line uint32) GraphState {
	state := GraphState{Line: line, Nodes: []NodeState{}}
	if s.nodes == nil {
		return state
	}
	s.nodes.Scan(func(seq *nodeSeq) bool {
		if e, ok := effective(seq.entries, line); ok {
			state.Nodes = append(state.Nodes, NodeState{NodeID: seq.id, Entry: e})
		}
		return true
	})
	return state
}

// Nodes returns every known node id in ascending order.
func (s *Store) Nodes() []uint32 {
	ids := []uint32{}
	if s.nodes == nil {
		return ids
	}
	s.nodes.Scan(func(seq *nodeSeq) bool {
		ids = append(ids, seq.id)
		return true
	})
	return ids
}

// Len returns the total number of entries across all nodes.
func (s *Store) Len() int {
	return s.count
}

// NodeLen returns the number of entries recorded for nodeID.
func (s *Store) NodeLen(nodeID uint32) int {
	seq, ok := s.lookup(nodeID)
	if !ok {
		return 0
	}
	return len(seq.entries)
}

// Entries returns deep copies of every entry for nodeID, in store order.
func (s *Store) Entries(nodeID uint32) []snapshot.Entry {
	seq, ok := s.lookup(nodeID)
	if !ok {
		return []snapshot.Entry{}
	}
	out := make([]snapshot.Entry, len(seq.entries))
	for i, e := range seq.entries {
		out[i] = e.Clone()
	}
	return out
}

// Lines returns the sorted, de-duplicated lines at which any node emitted a snapshot.
func (s *Store) Lines() []uint32 {
	seen := make(map[uint32]struct{})
	if s.nodes != nil {
		s.nodes.Scan(func(seq *nodeSeq) bool {
			for _, e := range seq.entries {
				seen[e.Line()] = struct{}{}
			}
			return true
		})
	}
	lines := make([]uint32, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	return lines
}

// OrderError reports a violation of the strictly-increasing line order for a node.
type OrderError struct {
	NodeID uint32 `json:"node"`
	Index  int    `json:"index"` // position of the offending entry in the node's sequence
	Prev   uint32 `json:"prev"`  // line of the preceding entry
	Line   uint32 `json:"line"`  // line of the offending entry
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("node %d: entry %d has line %d, not after previous line %d",
		e.NodeID, e.Index, e.Line, e.Prev)
}

// Verify checks that every node's entries have strictly increasing lines.
// Returns the first violation found in node order as an *OrderError.
func (s *Store) Verify() error {
	if s.nodes == nil {
		return nil
	}
	var verr error
	s.nodes.Scan(func(seq *nodeSeq) bool {
		for i := 1; i < len(seq.entries); i++ {
			prev, cur := seq.entries[i-1].Line(), seq.entries[i].Line()
			if cur <= prev {
				verr = &OrderError{NodeID: seq.id, Index: i, Prev: prev, Line: cur}
				return false
			}
		}
		return true
	})
	return verr
}

func (s *Store) lookup(nodeID uint32) (*nodeSeq, bool) {
	if s.nodes == nil {
		return nil, false
	}
	return s.nodes.Get(&nodeSeq{id: nodeID})
}

// Get returns the entry of nodeID in the state, if present.
func (g GraphState) Get(nodeID uint32) (snapshot.Entry, bool) {
	i := sort.Search(len(g.Nodes), func(i int) bool {
		return g.Nodes[i].NodeID >= nodeID
	})
	if i < len(g.Nodes) && g.Nodes[i].NodeID == nodeID {
		return g.Nodes[i].Entry, true
	}
	return snapshot.Entry{}, false
}

// Width returns the largest mask size among the present entries.
// Renderers use it as the number of edge columns.
func (g GraphState) Width() int {
	w := 0
	for _, n := range g.Nodes {
		w = max(w, n.Entry.MaxSize())
	}
	return w
}
