package config

import (
	"fmt"
	"regexp"
)

// DefaultPattern matches records such as "node=3 strong=0110 weak=0001".
const DefaultPattern = `(?i)node[=:](?P<node>\d+)\s+strong[=:](?P<strong>[01]*)\s+weak[=:](?P<weak>[01]*)`

// Capture group names every pattern must define.
const (
	GroupNode   = "node"
	GroupStrong = "strong"
	GroupWeak   = "weak"
)

// Format controls how the loader turns log text into snapshot entries.
type Format struct {
	// Pattern is a regular expression with named groups node, strong and weak.
	// Lines that do not match are ordinary log text.
	Pattern string `yaml:"pattern" json:"pattern"`

	// FirstLine is the number given to the first line of the log (0 or 1 in practice).
	FirstLine uint32 `yaml:"first_line" json:"first_line"`

	// Normalize applies Unicode NFC normalization to each line before matching.
	Normalize bool `yaml:"normalize" json:"normalize"`
}

// Default returns the built-in format: DefaultPattern, 1-based lines, NFC on.
func Default() Format {
	return Format{
		Pattern:   DefaultPattern,
		FirstLine: 1,
		Normalize: true,
	}
}

// Validate checks that the pattern compiles and defines the required groups.
func (f Format) Validate() error {
	_, err := f.Compile()
	return err
}

// Compile compiles Pattern and verifies its named groups.
func (f Format) Compile() (*regexp.Regexp, error) {
	if f.Pattern == "" {
		return nil, &ConfigError{Code: ErrCodeInvalidPattern, Message: "pattern is required"}
	}
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return nil, &ConfigError{Code: ErrCodeInvalidPattern, Message: fmt.Sprintf("compile pattern: %v", err)}
	}
	for _, group := range []string{GroupNode, GroupStrong, GroupWeak} {
		if re.SubexpIndex(group) < 0 {
			return nil, &ConfigError{
				Code:    ErrCodeMissingGroup,
				Message: fmt.Sprintf("pattern has no named group %q", group),
			}
		}
	}
	return re, nil
}
