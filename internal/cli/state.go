package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/linklog/internal/snapshot"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
	SourceOptions
	Line uint32
	Node uint32
}

// NodeSnapshot is one node's effective snapshot.
type NodeSnapshot struct {
	Node   uint32 `json:"node"`
	Line   uint32 `json:"snapshot_line"`
	Strong string `json:"strong"`
	Weak   string `json:"weak"`
}

func newNodeSnapshot(e snapshot.Entry) NodeSnapshot {
	return NodeSnapshot{
		Node:   e.NodeID(),
		Line:   e.Line(),
		Strong: e.StrongMask().String(),
		Weak:   e.WeakMask().String(),
	}
}

// StateResult holds the effective snapshots at a line.
type StateResult struct {
	Source string         `json:"source"`
	Line   uint32         `json:"line"`
	Text   *string        `json:"text,omitempty"` // raw log line, when reading a log file
	Nodes  []NodeSnapshot `json:"nodes"`
}

// RenderText implements TextRenderer.
func (r StateResult) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "line %d of %s\n", r.Line, r.Source)
	if r.Text != nil {
		fmt.Fprintf(w, "> %s\n", *r.Text)
	}
	if len(r.Nodes) == 0 {
		_, err := fmt.Fprintln(w, "no snapshots")
		return err
	}
	for _, n := range r.Nodes {
		if _, err := fmt.Fprintf(w, "node %d @%d strong=%s weak=%s\n", n.Node, n.Line, n.Strong, n.Weak); err != nil {
			return err
		}
	}
	return nil
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state [log]",
		Short: "Show each node's effective snapshot at a line",
		Long: `Show the most recent snapshot of every node at or before a line.

Nodes that have not reported by that line are omitted.

Examples:
  linklog state ./app.log --line 120
  linklog state ./app.log --line 120 --node 3
  linklog state --db ./links.db --line 120 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().Uint32Var(&opts.Line, "line", 0, "line to query (required)")
	_ = cmd.MarkFlagRequired("line")
	cmd.Flags().Uint32Var(&opts.Node, "node", 0, "show a single node")
	opts.SourceOptions.addFlags(cmd)

	return cmd
}

func runState(ctx context.Context, opts *StateOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	src, err := loadSource(ctx, formatter, opts.RootOptions, &opts.SourceOptions, args)
	if err != nil {
		return err
	}

	result := StateResult{
		Source: src.Name,
		Line:   opts.Line,
		Nodes:  []NodeSnapshot{},
	}
	if src.Log != nil {
		if text, ok := src.Log.LineText(opts.Line); ok {
			result.Text = &text
		}
	}

	if cmd.Flags().Changed("node") {
		if e, ok := src.Store.At(opts.Node, opts.Line); ok {
			result.Nodes = append(result.Nodes, newNodeSnapshot(e))
		}
	} else {
		for _, ns := range src.Store.GraphAt(opts.Line).Nodes {
			result.Nodes = append(result.Nodes, newNodeSnapshot(ns.Entry))
		}
	}

	return formatter.Success(result)
}
