package graph

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/roach88/linklog/internal/logstore"
)

// DOT renders the graph in Graphviz DOT format.
// Strong edges are solid, weak edges dashed.
func (g *Graph) DOT(name string) ([]byte, error) {
	if name == "" {
		name = fmt.Sprintf("line_%d", g.line)
	}
	b, err := dot.Marshal(g.g, name, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal dot: %w", err)
	}
	return b, nil
}

// Matrix cell symbols used by RenderText.
const (
	cellNone   = '.'
	cellWeak   = 'w'
	cellStrong = 'S'
)

// RenderText writes the adjacency matrix of state, one row per reporting node:
//
//	line 7 nodes 2 width 3
//	0: .Sw
//	2: w..
//
// Columns are edge indices 0..width-1. The output is deterministic.
func RenderText(w io.Writer, state logstore.GraphState) error {
	width := state.Width()
	if _, err := fmt.Fprintf(w, "line %d nodes %d width %d\n", state.Line, len(state.Nodes), width); err != nil {
		return err
	}

	var row strings.Builder
	for _, ns := range state.Nodes {
		row.Reset()
		for j := 0; j < width; j++ {
			switch KindOf(ns.Entry, j) {
			case KindStrong:
				row.WriteByte(cellStrong)
			case KindWeak:
				row.WriteByte(cellWeak)
			default:
				row.WriteByte(cellNone)
			}
		}
		if _, err := fmt.Fprintf(w, "%d: %s\n", ns.NodeID, row.String()); err != nil {
			return err
		}
	}
	return nil
}
