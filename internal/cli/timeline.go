package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	SourceOptions
	Node uint32
}

// TimelineEntry lists the nodes that emitted a snapshot at Line.
type TimelineEntry struct {
	Line  uint32   `json:"line"`
	Nodes []uint32 `json:"nodes"`
}

// TimelineResult lists snapshot lines in ascending order.
type TimelineResult struct {
	Source  string          `json:"source"`
	Node    *uint32         `json:"node,omitempty"`
	Entries []TimelineEntry `json:"entries"`
}

// RenderText implements TextRenderer.
func (r TimelineResult) RenderText(w io.Writer) error {
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, "no snapshots")
		return err
	}
	for _, e := range r.Entries {
		ids := make([]string, len(e.Nodes))
		for i, n := range e.Nodes {
			ids[i] = fmt.Sprint(n)
		}
		if _, err := fmt.Fprintf(w, "%d: %s\n", e.Line, strings.Join(ids, " ")); err != nil {
			return err
		}
	}
	return nil
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline [log]",
		Short: "List the lines where snapshots change",
		Long: `List every line at which a node emitted a snapshot, with the nodes
that emitted one there. These are the only lines where the graph changes.

Examples:
  linklog timeline ./app.log
  linklog timeline ./app.log --node 2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().Uint32Var(&opts.Node, "node", 0, "list a single node's snapshots")
	opts.SourceOptions.addFlags(cmd)

	return cmd
}

func runTimeline(ctx context.Context, opts *TimelineOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	src, err := loadSource(ctx, formatter, opts.RootOptions, &opts.SourceOptions, args)
	if err != nil {
		return err
	}

	result := TimelineResult{Source: src.Name, Entries: []TimelineEntry{}}

	if cmd.Flags().Changed("node") {
		node := opts.Node
		result.Node = &node
		for _, e := range src.Store.Entries(node) {
			result.Entries = append(result.Entries, TimelineEntry{Line: e.Line(), Nodes: []uint32{node}})
		}
		return formatter.Success(result)
	}

	byLine := make(map[uint32][]uint32)
	for _, id := range src.Store.Nodes() {
		for _, e := range src.Store.Entries(id) {
			byLine[e.Line()] = append(byLine[e.Line()], id)
		}
	}
	for _, line := range src.Store.Lines() {
		result.Entries = append(result.Entries, TimelineEntry{Line: line, Nodes: byLine[line]})
	}

	return formatter.Success(result)
}
