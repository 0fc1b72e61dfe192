package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Error codes for configuration failures.
const (
	ErrCodeRead           = "E201" // File could not be read
	ErrCodeParse          = "E202" // YAML/CUE syntax or decode error
	ErrCodeSchema         = "E203" // CUE schema violation
	ErrCodeUnknownFormat  = "E204" // Unsupported file extension
	ErrCodeInvalidPattern = "E205" // Pattern missing or does not compile
	ErrCodeMissingGroup   = "E206" // Pattern lacks a required named group
)

// ConfigError is a configuration error with an optional CUE source position.
type ConfigError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Overrides is the on-disk shape of a Format. Pointer fields distinguish
// "absent" from zero so omitted fields keep the values they are applied to.
type Overrides struct {
	Pattern   *string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	FirstLine *uint32 `yaml:"first_line,omitempty" json:"first_line,omitempty"`
	Normalize *bool   `yaml:"normalize,omitempty" json:"normalize,omitempty"`
}

// Apply returns f with every field set in o replaced.
func (o Overrides) Apply(f Format) Format {
	if o.Pattern != nil {
		f.Pattern = *o.Pattern
	}
	if o.FirstLine != nil {
		f.FirstLine = *o.FirstLine
	}
	if o.Normalize != nil {
		f.Normalize = *o.Normalize
	}
	return f
}

// Load reads a Format from path, choosing the decoder by extension.
// The result is validated before it is returned.
func Load(path string) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Format{}, &ConfigError{Code: ErrCodeRead, Message: fmt.Sprintf("read config: %v", err)}
	}

	var ff Overrides
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		ff, err = decodeYAML(data)
	case ".cue":
		ff, err = decodeCUE(path, data)
	default:
		return Format{}, &ConfigError{
			Code:    ErrCodeUnknownFormat,
			Message: fmt.Sprintf("unsupported config extension %q (want .yaml, .yml or .cue)", ext),
		}
	}
	if err != nil {
		return Format{}, err
	}

	f := ff.Apply(Default())
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// ParseYAML decodes a Format from YAML bytes. Unknown fields are rejected.
func ParseYAML(data []byte) (Format, error) {
	ff, err := decodeYAML(data)
	if err != nil {
		return Format{}, err
	}
	f := ff.Apply(Default())
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

func decodeYAML(data []byte) (Overrides, error) {
	var ff Overrides
	if len(bytes.TrimSpace(data)) == 0 {
		return ff, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject typos like "first-line"
	if err := decoder.Decode(&ff); err != nil {
		return Overrides{}, &ConfigError{Code: ErrCodeParse, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return ff, nil
}

func decodeCUE(path string, data []byte) (Overrides, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Format"))
	if err := schema.Err(); err != nil {
		return Overrides{}, fmt.Errorf("compile embedded schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Overrides{}, cueError(ErrCodeParse, err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Overrides{}, cueError(ErrCodeSchema, err)
	}

	var ff Overrides
	if err := unified.Decode(&ff); err != nil {
		return Overrides{}, cueError(ErrCodeParse, err)
	}
	return ff, nil
}

// cueError converts the first CUE error into a ConfigError with position info.
func cueError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	ce := &ConfigError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
