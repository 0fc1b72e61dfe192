package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/linklog/internal/graph"
	"github.com/roach88/linklog/internal/logstore"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	SourceOptions
	Line       uint32
	DOT        bool
	Reachable  uint32
	StrongOnly bool
}

// GraphNode is a node of the rendered graph.
type GraphNode struct {
	Node      uint32 `json:"node"`
	Reporting bool   `json:"reporting"`
	Self      string `json:"self,omitempty"`
}

// GraphEdge is an edge of the rendered graph.
type GraphEdge struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
	Kind string `json:"kind"`
}

// GraphResult is the graph at a line.
type GraphResult struct {
	Source string      `json:"source"`
	Line   uint32      `json:"line"`
	Width  int         `json:"width"`
	Nodes  []GraphNode `json:"nodes"`
	Edges  []GraphEdge `json:"edges"`
	DOT    string      `json:"dot,omitempty"`

	state logstore.GraphState
}

// RenderText implements TextRenderer. With DOT set the DOT source is written,
// otherwise the adjacency matrix.
func (r GraphResult) RenderText(w io.Writer) error {
	if r.DOT != "" {
		_, err := fmt.Fprintln(w, r.DOT)
		return err
	}
	return graph.RenderText(w, r.state)
}

// ReachableResult is the set of nodes reachable from a start node.
type ReachableResult struct {
	Source     string   `json:"source"`
	Line       uint32   `json:"line"`
	From       uint32   `json:"from"`
	StrongOnly bool     `json:"strong_only"`
	Nodes      []uint32 `json:"nodes"`
}

// RenderText implements TextRenderer.
func (r ReachableResult) RenderText(w io.Writer) error {
	links := "links"
	if r.StrongOnly {
		links = "strong links"
	}
	fmt.Fprintf(w, "line %d: %d node(s) reachable from %d via %s\n", r.Line, len(r.Nodes), r.From, links)
	for _, n := range r.Nodes {
		if _, err := fmt.Fprintf(w, "  %d\n", n); err != nil {
			return err
		}
	}
	return nil
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph [log]",
		Short: "Render the link graph at a line",
		Long: `Render the graph formed by every node's effective snapshot at a line.

The default output is an adjacency matrix: one row per reporting node,
one column per edge index, with S for strong, w for weak and . for none.
--dot writes Graphviz DOT instead. --reachable lists the nodes reachable
from the given node.

Examples:
  linklog graph ./app.log --line 120
  linklog graph ./app.log --line 120 --dot | dot -Tsvg > graph.svg
  linklog graph ./app.log --line 120 --reachable 0 --strong-only`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().Uint32Var(&opts.Line, "line", 0, "line to query (required)")
	_ = cmd.MarkFlagRequired("line")
	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "write Graphviz DOT")
	cmd.Flags().Uint32Var(&opts.Reachable, "reachable", 0, "list nodes reachable from this node")
	cmd.Flags().BoolVar(&opts.StrongOnly, "strong-only", false, "follow strong links only (with --reachable)")
	cmd.MarkFlagsMutuallyExclusive("dot", "reachable")
	opts.SourceOptions.addFlags(cmd)

	return cmd
}

func runGraph(ctx context.Context, opts *GraphOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.StrongOnly && !cmd.Flags().Changed("reachable") {
		return commandError(formatter, ErrCodeUsage, "--strong-only requires --reachable", nil)
	}

	src, err := loadSource(ctx, formatter, opts.RootOptions, &opts.SourceOptions, args)
	if err != nil {
		return err
	}

	state := src.Store.GraphAt(opts.Line)
	g := graph.Build(state)

	if cmd.Flags().Changed("reachable") {
		return formatter.Success(ReachableResult{
			Source:     src.Name,
			Line:       opts.Line,
			From:       opts.Reachable,
			StrongOnly: opts.StrongOnly,
			Nodes:      g.Reachable(opts.Reachable, opts.StrongOnly),
		})
	}

	result := GraphResult{
		Source: src.Name,
		Line:   opts.Line,
		Width:  state.Width(),
		Nodes:  []GraphNode{},
		Edges:  []GraphEdge{},
		state:  state,
	}
	for _, n := range g.Nodes() {
		gn := GraphNode{Node: n.NodeID(), Reporting: n.Reporting}
		if n.Self != graph.KindNone {
			gn.Self = n.Self.String()
		}
		result.Nodes = append(result.Nodes, gn)
	}
	for _, e := range g.Edges() {
		result.Edges = append(result.Edges, GraphEdge{
			From: e.F.NodeID(),
			To:   e.T.NodeID(),
			Kind: e.Kind.String(),
		})
	}

	if opts.DOT {
		dot, err := g.DOT("")
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to render DOT", err)
		}
		result.DOT = string(dot)
	}

	return formatter.Success(result)
}
