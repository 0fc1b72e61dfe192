// Package harness provides scenario-based conformance testing for linklog.
//
// A scenario supplies a log, queries it at chosen lines, and checks the
// effective snapshots and the resulting graph.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	log: |
//	  node=0 strong=01 weak=00
//	  ...
//	log_file: relative/path.log      # alternative to log
//	format:                          # optional overrides of config.Default
//	  first_line: 0
//	queries:
//	  - line: 3
//	    nodes:
//	      - node: 0
//	        snapshot_line: 1
//	        strong: "01"
//	        weak: "00"
//	      - node: 4
//	        absent: true
//	    assertions:
//	      - type: edge
//	        from: 0
//	        to: 1
//	        kind: strong
//	      - type: edge_count
//	        count: 1
//
// # Assertion Types
//
//   - edge: The edge from→to exists with the given kind ("strong" or "weak"),
//     or does not exist when kind is "none". With from equal to to it checks
//     the node's self link
//   - edge_count: The graph has exactly count edges
//   - node_present: The node has an effective snapshot at the query line
//   - node_absent: The node has no effective snapshot at the query line
//   - reachable: Following links from "from" reaches exactly "nodes"
//     (strong links only when strong_only is set)
//
// # Golden Files
//
// RunWithGolden renders every queried graph state as an adjacency matrix and
// compares it against testdata/golden/{scenario.Name}.golden. To regenerate:
//
//	go test ./internal/harness -update
package harness
