// Package graph turns a logstore.GraphState into a gonum directed graph.
//
// Node i's snapshot contributes an edge i→j for every edge index j whose strong
// or weak bit is set. When both are set the edge is strong. Self links cannot
// be edges in a simple graph, so they are recorded on the node instead.
// Edge targets that have no snapshot of their own still appear as nodes, with
// Reporting set to false.
package graph

import (
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/roach88/linklog/internal/logstore"
	"github.com/roach88/linklog/internal/snapshot"
)

// Kind is the strength of a link.
type Kind int

const (
	KindNone Kind = iota
	KindWeak
	KindStrong
)

func (k Kind) String() string {
	switch k {
	case KindStrong:
		return "strong"
	case KindWeak:
		return "weak"
	default:
		return "none"
	}
}

// KindOf returns the link kind recorded by e for edge index j.
func KindOf(e snapshot.Entry, j int) Kind {
	switch {
	case e.Strong(j):
		return KindStrong
	case e.Weak(j):
		return KindWeak
	default:
		return KindNone
	}
}

// Node is a graph node. It implements gonum graph.Node and encoding.Attributer.
type Node struct {
	id int64

	// Reporting is true when the node has an effective snapshot.
	Reporting bool
	// Self is the kind of the node's link to itself, if any.
	Self Kind
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// NodeID returns the id as a linklog node id.
func (n *Node) NodeID() uint32 { return uint32(n.id) }

// Attributes implements encoding.Attributer for DOT output.
func (n *Node) Attributes() []encoding.Attribute {
	var attrs []encoding.Attribute
	if !n.Reporting {
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "gray"})
	}
	switch n.Self {
	case KindStrong:
		attrs = append(attrs, encoding.Attribute{Key: "peripheries", Value: "2"})
	case KindWeak:
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "dashed"})
	}
	return attrs
}

// Edge is a directed link. It implements gonum graph.Edge and encoding.Attributer.
type Edge struct {
	F, T *Node
	Kind Kind
}

// From implements graph.Edge.
func (e Edge) From() gonumgraph.Node { return e.F }

// To implements graph.Edge.
func (e Edge) To() gonumgraph.Node { return e.T }

// ReversedEdge implements graph.Edge.
func (e Edge) ReversedEdge() gonumgraph.Edge { return Edge{F: e.T, T: e.F, Kind: e.Kind} }

// Attributes implements encoding.Attributer for DOT output.
func (e Edge) Attributes() []encoding.Attribute {
	style := "dashed"
	if e.Kind == KindStrong {
		style = "solid"
	}
	return []encoding.Attribute{{Key: "style", Value: style}}
}

// Graph is the adjacency state at one log line.
type Graph struct {
	line uint32
	g    *simple.DirectedGraph
}

// Build constructs the graph for state.
func Build(state logstore.GraphState) *Graph {
	g := simple.NewDirectedGraph()

	for _, ns := range state.Nodes {
		g.AddNode(&Node{
			id:        int64(ns.NodeID),
			Reporting: true,
			Self:      KindOf(ns.Entry, int(ns.NodeID)),
		})
	}

	for _, ns := range state.Nodes {
		from := g.Node(int64(ns.NodeID)).(*Node)
		for j := 0; j < ns.Entry.MaxSize(); j++ {
			if j == int(ns.NodeID) {
				continue
			}
			kind := KindOf(ns.Entry, j)
			if kind == KindNone {
				continue
			}
			to, ok := g.Node(int64(j)).(*Node)
			if !ok {
				to = &Node{id: int64(j)}
				g.AddNode(to)
			}
			g.SetEdge(Edge{F: from, T: to, Kind: kind})
		}
	}

	return &Graph{line: state.Line, g: g}
}

// Line returns the log line the graph describes.
func (g *Graph) Line() uint32 {
	return g.line
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []*Node {
	nodes := []*Node{}
	it := g.g.Nodes()
	for it.Next() {
		nodes = append(nodes, it.Node().(*Node))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	return nodes
}

// Edges returns all edges ordered by (from, to).
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	it := g.g.Edges()
	for it.Next() {
		edges = append(edges, it.Edge().(Edge))
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].F.id != edges[j].F.id {
			return edges[i].F.id < edges[j].F.id
		}
		return edges[i].T.id < edges[j].T.id
	})
	return edges
}

// Edge returns the edge from→to, if present.
func (g *Graph) Edge(from, to uint32) (Edge, bool) {
	e := g.g.Edge(int64(from), int64(to))
	if e == nil {
		return Edge{}, false
	}
	return e.(Edge), true
}

// Link returns the kind of the link from→to. A node's link to itself is
// read from Node.Self, since self links are not stored as edges.
func (g *Graph) Link(from, to uint32) Kind {
	if from == to {
		if n, ok := g.g.Node(int64(from)).(*Node); ok {
			return n.Self
		}
		return KindNone
	}
	if e, ok := g.Edge(from, to); ok {
		return e.Kind
	}
	return KindNone
}

// Reachable returns the nodes reachable from start by following links,
// excluding start itself, in ascending id order. With strongOnly set, weak
// links are not followed. An unknown start yields an empty result.
func (g *Graph) Reachable(start uint32, strongOnly bool) []uint32 {
	out := []uint32{}
	from := g.g.Node(int64(start))
	if from == nil {
		return out
	}

	bf := traverse.BreadthFirst{
		Traverse: func(e gonumgraph.Edge) bool {
			return !strongOnly || e.(Edge).Kind == KindStrong
		},
		Visit: func(n gonumgraph.Node) {
			if n.ID() != int64(start) {
				out = append(out, uint32(n.ID()))
			}
		},
	}
	bf.Walk(g.g, from, nil)

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
