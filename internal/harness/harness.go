package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/linklog/internal/config"
	"github.com/roach88/linklog/internal/graph"
	"github.com/roach88/linklog/internal/loader"
	"github.com/roach88/linklog/internal/logstore"
)

// Harness is the test execution engine.
// It evaluates a scenario's queries against one frozen store.
type Harness struct {
	store  *logstore.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Resolve the format (config.Default plus the scenario overrides)
//  2. Parse the log and build a store
//  3. Evaluate each query's node expectations and assertions
//  4. Return result with pass/fail, per-query traces, and errors
//
// An error is returned only when the scenario cannot be executed at all;
// expectation mismatches are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	format := config.Default()
	if scenario.Format != nil {
		format = scenario.Format.Apply(format)
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}

	var (
		parsed *loader.Result
		err    error
	)
	if scenario.LogFile != "" {
		parsed, err = loader.ParseFile(scenario.LogFile, format)
	} else {
		parsed, err = loader.ParseString(scenario.Log, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load log: %w", err)
	}

	h := &Harness{
		store:  parsed.Store(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, q := range scenario.Queries {
		h.executeQuery(i, q, result)
	}

	return result, nil
}

// executeQuery evaluates a single query and appends its trace to result.
func (h *Harness) executeQuery(index int, q Query, result *Result) {
	state := h.store.GraphAt(q.Line)
	g := graph.Build(state)

	trace := QueryTrace{
		Line:  q.Line,
		Nodes: []NodeTrace{},
		Edges: len(g.Edges()),
		state: state,
	}

	for _, expect := range q.Nodes {
		nt := observeNode(state, expect.Node)
		trace.Nodes = append(trace.Nodes, nt)
		for _, msg := range checkNode(expect, nt) {
			result.AddError(fmt.Sprintf("queries[%d] line %d: %s", index, q.Line, msg))
		}
	}

	actx := &AssertionContext{State: state, Graph: g}
	for _, msg := range EvaluateAssertions(q.Assertions, actx) {
		result.AddError(fmt.Sprintf("queries[%d]: %s", index, msg))
	}

	h.logger.Debug("query evaluated",
		"line", q.Line,
		"nodes", len(state.Nodes),
		"edges", trace.Edges,
	)
	result.Queries = append(result.Queries, trace)
}

func observeNode(state logstore.GraphState, node uint32) NodeTrace {
	e, ok := state.Get(node)
	if !ok {
		return NodeTrace{Node: node}
	}
	return NodeTrace{
		Node:         node,
		Present:      true,
		SnapshotLine: e.Line(),
		Strong:       e.StrongMask().String(),
		Weak:         e.WeakMask().String(),
	}
}

// checkNode compares an observed node against its expectation.
// Returns one message per mismatched field.
func checkNode(expect NodeExpect, got NodeTrace) []string {
	var errs []string

	if expect.Absent {
		if got.Present {
			errs = append(errs, fmt.Sprintf("node %d: expected no snapshot, got snapshot from line %d", expect.Node, got.SnapshotLine))
		}
		return errs
	}

	if !got.Present {
		return append(errs, fmt.Sprintf("node %d: expected a snapshot, got none", expect.Node))
	}
	if expect.SnapshotLine != nil && *expect.SnapshotLine != got.SnapshotLine {
		errs = append(errs, fmt.Sprintf("node %d: snapshot_line expected %d, got %d", expect.Node, *expect.SnapshotLine, got.SnapshotLine))
	}
	if expect.Strong != nil && *expect.Strong != got.Strong {
		errs = append(errs, fmt.Sprintf("node %d: strong expected %q, got %q", expect.Node, *expect.Strong, got.Strong))
	}
	if expect.Weak != nil && *expect.Weak != got.Weak {
		errs = append(errs, fmt.Sprintf("node %d: weak expected %q, got %q", expect.Node, *expect.Weak, got.Weak))
	}
	return errs
}
