package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Text(t *testing.T) {
	path := writeSampleLog(t)

	out, err := execute(t, "state", path, "--line", "4")
	require.NoError(t, err)

	assert.Equal(t, "line 4 of "+path+"\n"+
		"> noise\n"+
		"node 0 @2 strong=0110 weak=0000\n"+
		"node 1 @3 strong=0000 weak=1001\n", out)
}

func TestState_JSON(t *testing.T) {
	path := writeSampleLog(t)

	out, err := execute(t, "--format", "json", "state", path, "--line", "6")
	require.NoError(t, err)

	var result StateResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint32(6), result.Line)
	require.NotNil(t, result.Text)
	assert.Equal(t, "node=0 strong=0001 weak=0100", *result.Text)
	assert.Equal(t, []NodeSnapshot{
		{Node: 0, Line: 6, Strong: "0001", Weak: "0100"},
		{Node: 1, Line: 3, Strong: "0000", Weak: "1001"},
		{Node: 2, Line: 5, Strong: "1", Weak: ""},
	}, result.Nodes)
}

func TestState_BeforeFirstSnapshot(t *testing.T) {
	path := writeSampleLog(t)

	out, err := execute(t, "state", path, "--line", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "> boot\n")
	assert.Contains(t, out, "no snapshots")
}

func TestState_SingleNode(t *testing.T) {
	path := writeSampleLog(t)

	out, err := execute(t, "state", path, "--line", "2", "--node", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "no snapshots")

	out, err = execute(t, "state", path, "--line", "9", "--node", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "node 0 @6 strong=0001 weak=0100")
	assert.NotContains(t, out, "node 1")
	// line 9 is past the end of the log, so there is no raw text
	assert.NotContains(t, out, "> ")
}

func TestState_ConfigFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", sampleLog)

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "format.yaml", "first_line: 0\n"},
		{"cue", "format.cue", "first_line: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFile(t, dir, tt.file, tt.content)

			out, err := execute(t, "--config", cfg, "state", path, "--line", "1")
			require.NoError(t, err)
			assert.Contains(t, out, "node 0 @1 strong=0110 weak=0000")
		})
	}
}

func TestState_BadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", sampleLog)
	cfg := writeFile(t, dir, "format.yaml", "first-line: 0\n")

	out, err := execute(t, "--config", cfg, "state", path, "--line", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: failed to load format file: E202")
}

func TestState_BadSnapshot(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.log", "node=99999999999 strong=1 weak=0\n")

	out, err := execute(t, "state", path, "--line", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]: failed to parse")
	assert.Contains(t, out, "line 1: E302: invalid node id")
}

func TestState_SourceErrors(t *testing.T) {
	path := writeSampleLog(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing log", []string{"state", "/nonexistent/app.log", "--line", "1"}, "Error [E002]: log file not found"},
		{"no source", []string{"state", "--line", "1"}, "Error [E007]: a log file or --db is required"},
		{"both sources", []string{"state", path, "--db", "x.db", "--line", "1"}, "Error [E007]: give either"},
		{"import without db", []string{"state", path, "--import", "abc", "--line", "1"}, "Error [E007]: --import requires --db"},
		{"missing db", []string{"state", "--db", "/nonexistent/links.db", "--line", "1"}, "Error [E002]: database not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, Reported(err))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestState_MissingLineFlag(t *testing.T) {
	path := writeSampleLog(t)

	_, err := execute(t, "state", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
