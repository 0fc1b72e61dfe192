// Package config describes how snapshot records are recognized in raw log text.
//
// A Format is loaded from a YAML (.yaml, .yml) or CUE (.cue) file. Both are
// decoded into the same shape; CUE files are additionally unified with an
// embedded schema so type and range errors carry source positions.
//
//	pattern: 'node=(?P<node>\d+)\s+strong=(?P<strong>[01]*)\s+weak=(?P<weak>[01]*)'
//	first_line: 1
//	normalize: true
//
// Fields omitted from a file keep their Default values.
package config
