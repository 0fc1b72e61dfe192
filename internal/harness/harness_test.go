package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Queries, len(scenario.Queries))
		})
	}
}

func TestLoadScenario_ResolvesLogFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "zero_based.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "scenarios", "logs", "zero_based.log"), scenario.LogFile)
	require.NotNil(t, scenario.Format)
	require.NotNil(t, scenario.Format.FirstLine)
	assert.Equal(t, uint32(0), *scenario.Format.FirstLine)
}

func TestLoadScenario_MissingLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
log_file: nope.log
queries:
  - line: 1
    assertions:
      - type: edge_count
        count: 0
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file not found")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "invalid", "unknown_field.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querys")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "does_not_exist.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
description: d
log: x
queries: [{line: 1, assertions: [{type: edge_count}]}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
log: x
queries: [{line: 1, assertions: [{type: edge_count}]}]
`,
			wantErr: "description is required",
		},
		{
			name: "no log",
			yaml: `
name: n
description: d
queries: [{line: 1, assertions: [{type: edge_count}]}]
`,
			wantErr: "exactly one of log and log_file",
		},
		{
			name: "both logs",
			yaml: `
name: n
description: d
log: x
log_file: y.log
queries: [{line: 1, assertions: [{type: edge_count}]}]
`,
			wantErr: "exactly one of log and log_file",
		},
		{
			name: "no queries",
			yaml: `
name: n
description: d
log: x
`,
			wantErr: "queries list is required",
		},
		{
			name: "empty query",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1}]
`,
			wantErr: "queries[0]: nodes or assertions are required",
		},
		{
			name: "absent with fields",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, nodes: [{node: 2, absent: true, strong: "1"}]}]
`,
			wantErr: "absent node 2",
		},
		{
			name: "node without expectation",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, nodes: [{node: 2}]}]
`,
			wantErr: "expect absent or at least one of",
		},
		{
			name: "bad mask",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, nodes: [{node: 2, weak: "01x"}]}]
`,
			wantErr: "invalid mask",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, assertions: [{type: edge_exists}]}]
`,
			wantErr: `unknown assertion type "edge_exists"`,
		},
		{
			name: "bad edge kind",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, assertions: [{type: edge, from: 0, to: 1, kind: medium}]}]
`,
			wantErr: "kind must be strong, weak or none",
		},
		{
			name: "negative count",
			yaml: `
name: n
description: d
log: x
queries: [{line: 1, assertions: [{type: edge_count, count: -1}]}]
`,
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mismatches
description: Every expectation here is wrong
log: |
  node=0 strong=01 weak=00
  node=1 strong=00 weak=10
queries:
  - line: 1
    nodes:
      - node: 0
        snapshot_line: 2
        strong: "10"
      - node: 1
        strong: "00"
    assertions:
      - type: edge
        from: 0
        to: 1
        kind: weak
      - type: edge_count
        count: 3
      - type: node_present
        node: 1
  - line: 2
    nodes:
      - node: 0
        absent: true
    assertions:
      - type: node_absent
        node: 1
      - type: reachable
        from: 0
        nodes: [1]
        strong_only: true
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Queries, 2)

	// line 1: snapshot_line, strong, node 1 missing, edge kind, edge count, node_present
	// line 2: node 0 absent, node_absent for 1
	// reachable passes: 0 -> 1 is strong
	assert.Len(t, result.Errors, 8)
	assert.Contains(t, result.Errors[0], "snapshot_line expected 2, got 1")
	assert.Contains(t, result.Errors[1], `strong expected "10", got "01"`)
	assert.Contains(t, result.Errors[2], "node 1: expected a snapshot, got none")
	assert.Contains(t, result.Errors[3], "edge 0 -> 1 weak")
	assert.Contains(t, result.Errors[3], "edge 0 -> 1 strong")
	assert.Contains(t, result.Errors[4], "3 edges")
	assert.Contains(t, result.Errors[5], "node 1 has a snapshot")
	assert.Contains(t, result.Errors[6], "expected no snapshot, got snapshot from line 1")
	assert.Contains(t, result.Errors[7], "node 1 has no snapshot")

	first := result.Queries[0]
	assert.Equal(t, uint32(1), first.Line)
	assert.Equal(t, 1, first.Edges)
	require.Len(t, first.Nodes, 2)
	assert.True(t, first.Nodes[0].Present)
	assert.Equal(t, "01", first.Nodes[0].Strong)
	assert.False(t, first.Nodes[1].Present)
}

func TestRun_SelfEdge(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: self_edge
description: Edge assertions on a node's link to itself
log: |
  node=0 strong=10 weak=00
  node=1 strong=00 weak=01
queries:
  - line: 2
    assertions:
      - {type: edge, from: 0, to: 0, kind: strong}
      - {type: edge, from: 1, to: 1, kind: weak}
      - {type: edge, from: 2, to: 2, kind: none}
      - {type: edge_count, count: 0}
  - line: 1
    assertions:
      - {type: edge, from: 1, to: 1, kind: weak}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1, "node 1 has no snapshot at line 1")
	assert.Contains(t, result.Errors[0], "edge 1 -> 1 none")
	assert.False(t, result.Pass)
}

func TestRun_BadFormat(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_format
description: Pattern lacks the weak group
format:
  pattern: 'node=(?P<node>\d+) strong=(?P<strong>[01]*)'
log: "node=0 strong=1"
queries: [{line: 1, assertions: [{type: edge_count, count: 0}]}]
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
}

func TestAssertionError_Message(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: message
description: Failure message includes the edge list
log: "node=0 strong=01 weak=00"
queries: [{line: 1, assertions: [{type: edge_count, count: 0}]}]
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)

	msg := result.Errors[0]
	assert.Contains(t, msg, "Assertion failed at line 1: edge_count")
	assert.Contains(t, msg, "Expected: 0 edges")
	assert.Contains(t, msg, "Actual: 1 edges")
	assert.Contains(t, msg, "0 -> 1 strong")
}

func TestRender_SeparatesQueries(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: render
description: Two queries render two blocks
log: "node=0 strong=1 weak=0"
queries:
  - {line: 0, nodes: [{node: 0, absent: true}]}
  - {line: 1, nodes: [{node: 0, snapshot_line: 1}]}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	out, err := Render(result)
	require.NoError(t, err)
	assert.Equal(t, "line 0 nodes 0 width 0\n\nline 1 nodes 1 width 1\n0: S\n", string(out))
}
