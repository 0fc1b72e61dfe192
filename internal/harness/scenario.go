package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/linklog/internal/config"
	"github.com/roach88/linklog/internal/snapshot"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Log is the inline log text. Exactly one of Log and LogFile must be set.
	Log string `yaml:"log,omitempty"`

	// LogFile is a path to the log, relative to the scenario file.
	LogFile string `yaml:"log_file,omitempty"`

	// Format overrides fields of config.Default for this scenario.
	Format *config.Overrides `yaml:"format,omitempty"`

	// Queries are evaluated in order against the store built from the log.
	Queries []Query `yaml:"queries"`
}

// Query inspects the graph state effective at Line.
type Query struct {
	Line       uint32       `yaml:"line"`
	Nodes      []NodeExpect `yaml:"nodes,omitempty"`
	Assertions []Assertion  `yaml:"assertions,omitempty"`
}

// NodeExpect describes the expected effective snapshot of one node.
type NodeExpect struct {
	Node uint32 `yaml:"node"`

	// Absent expects no effective snapshot. Other fields must be unset.
	Absent bool `yaml:"absent,omitempty"`

	// SnapshotLine is the expected line of the effective snapshot.
	SnapshotLine *uint32 `yaml:"snapshot_line,omitempty"`

	// Strong and Weak are expected bit strings. They are compared exactly,
	// including length.
	Strong *string `yaml:"strong,omitempty"`
	Weak   *string `yaml:"weak,omitempty"`
}

// Assertion validates the graph built at a query line.
type Assertion struct {
	// Type is one of edge, edge_count, node_present, node_absent, reachable.
	Type string `yaml:"type"`

	From uint32 `yaml:"from,omitempty"`
	To   uint32 `yaml:"to,omitempty"`

	// Kind is "strong", "weak" or "none" (used by edge).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of edges (used by edge_count).
	Count int `yaml:"count,omitempty"`

	// Node is the node id (used by node_present and node_absent).
	Node uint32 `yaml:"node,omitempty"`

	// Reach is the expected reachable set (used by reachable).
	Reach []uint32 `yaml:"nodes,omitempty"`

	// StrongOnly restricts reachable to strong links.
	StrongOnly bool `yaml:"strong_only,omitempty"`
}

// Assertion type constants.
const (
	AssertEdge        = "edge"
	AssertEdgeCount   = "edge_count"
	AssertNodePresent = "node_present"
	AssertNodeAbsent  = "node_absent"
	AssertReachable   = "reachable"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative LogFile is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.LogFile != "" && !filepath.IsAbs(scenario.LogFile) {
		scenario.LogFile = filepath.Join(filepath.Dir(path), scenario.LogFile)
	}
	if scenario.LogFile != "" {
		if _, err := os.Stat(scenario.LogFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: log file not found: %s", scenario.LogFile)
		}
	}

	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Log == "") == (s.LogFile == "") {
		return fmt.Errorf("exactly one of log and log_file is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, q := range s.Queries {
		if len(q.Nodes) == 0 && len(q.Assertions) == 0 {
			return fmt.Errorf("queries[%d]: nodes or assertions are required", i)
		}
		for j, n := range q.Nodes {
			if err := validateNodeExpect(n); err != nil {
				return fmt.Errorf("queries[%d].nodes[%d]: %w", i, j, err)
			}
		}
		for j, a := range q.Assertions {
			if err := validateAssertion(a); err != nil {
				return fmt.Errorf("queries[%d].assertions[%d]: %w", i, j, err)
			}
		}
	}

	return nil
}

func validateNodeExpect(n NodeExpect) error {
	if n.Absent {
		if n.SnapshotLine != nil || n.Strong != nil || n.Weak != nil {
			return fmt.Errorf("absent node %d cannot also expect snapshot fields", n.Node)
		}
		return nil
	}
	if n.SnapshotLine == nil && n.Strong == nil && n.Weak == nil {
		return fmt.Errorf("node %d: expect absent or at least one of snapshot_line, strong, weak", n.Node)
	}
	for _, mask := range []*string{n.Strong, n.Weak} {
		if mask == nil {
			continue
		}
		if _, err := snapshot.ParseMask(*mask); err != nil {
			return fmt.Errorf("node %d: %w", n.Node, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertEdge:
		switch a.Kind {
		case "strong", "weak", "none":
		default:
			return fmt.Errorf("kind must be strong, weak or none for edge, got %q", a.Kind)
		}
	case AssertEdgeCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for edge_count")
		}
	case AssertNodePresent, AssertNodeAbsent, AssertReachable:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
