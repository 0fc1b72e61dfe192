// Package loader parses raw log text into snapshot entries.
//
// Each line of the log is matched against a config.Format pattern. Matching
// lines become snapshot.Entry values numbered by their position in the file;
// everything else is ordinary log text and is kept only for display.
//
// Because lines are read sequentially and numbering stops at the largest
// uint32, entries come out in increasing line order per node, which is the
// precondition logstore expects.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/linklog/internal/config"
	"github.com/roach88/linklog/internal/logstore"
	"github.com/roach88/linklog/internal/snapshot"
)

// maxLineBytes bounds a single log line.
const maxLineBytes = 4 * 1024 * 1024

// Error codes for parse failures.
const (
	ErrCodeRead       = "E301" // Reader failed
	ErrCodeBadNode    = "E302" // Node id is not a uint32
	ErrCodeBadMask    = "E303" // Mask is not a bit string
	ErrCodeBadPattern = "E304" // Format pattern invalid
	ErrCodeTooLong    = "E305" // Log runs past the last line number
)

// ParseError reports a failure tied to a specific log line.
type ParseError struct {
	Line    uint32
	Code    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Code {
	case ErrCodeRead, ErrCodeBadPattern:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing one log.
type Result struct {
	// Entries holds the snapshots in the order they appear in the log.
	Entries []snapshot.Entry

	// Text holds every raw line; Text[i] is line FirstLine+i.
	Text []string

	// FirstLine is the number of the first line.
	FirstLine uint32
}

// Parse reads r line by line and extracts snapshot entries using f.
func Parse(r io.Reader, f config.Format) (*Result, error) {
	re, err := f.Compile()
	if err != nil {
		return nil, &ParseError{Code: ErrCodeBadPattern, Message: err.Error(), Err: err}
	}
	nodeIdx := re.SubexpIndex(config.GroupNode)
	strongIdx := re.SubexpIndex(config.GroupStrong)
	weakIdx := re.SubexpIndex(config.GroupWeak)

	res := &Result{
		Entries:   []snapshot.Entry{},
		Text:      []string{},
		FirstLine: f.FirstLine,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line, full := f.FirstLine, false
	for scanner.Scan() {
		if full {
			return nil, &ParseError{
				Line:    line,
				Code:    ErrCodeTooLong,
				Message: fmt.Sprintf("log continues past line %d", line),
			}
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if f.Normalize {
			text = norm.NFC.String(text)
		}
		res.Text = append(res.Text, text)

		if m := re.FindStringSubmatch(text); m != nil {
			e, err := buildEntry(line, m[nodeIdx], m[strongIdx], m[weakIdx])
			if err != nil {
				return nil, err
			}
			res.Entries = append(res.Entries, e)
		}
		if line == math.MaxUint32 {
			full = true
		} else {
			line++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Code: ErrCodeRead, Message: fmt.Sprintf("read log: %v", err), Err: err}
	}

	slog.Debug("log parsed", "lines", len(res.Text), "snapshots", len(res.Entries))
	return res, nil
}

func buildEntry(line uint32, node, strong, weak string) (snapshot.Entry, error) {
	id, err := strconv.ParseUint(node, 10, 32)
	if err != nil {
		return snapshot.Entry{}, &ParseError{
			Line:    line,
			Code:    ErrCodeBadNode,
			Message: fmt.Sprintf("invalid node id %q", node),
			Err:     err,
		}
	}
	sm, err := snapshot.ParseMask(strong)
	if err != nil {
		return snapshot.Entry{}, &ParseError{Line: line, Code: ErrCodeBadMask, Message: "strong mask: " + err.Error(), Err: err}
	}
	wm, err := snapshot.ParseMask(weak)
	if err != nil {
		return snapshot.Entry{}, &ParseError{Line: line, Code: ErrCodeBadMask, Message: "weak mask: " + err.Error(), Err: err}
	}
	return snapshot.NewFromMasks(uint32(id), line, sm, wm), nil
}

// ParseString parses a log held in memory.
func ParseString(s string, f config.Format) (*Result, error) {
	return Parse(strings.NewReader(s), f)
}

// ParseFile opens and parses the log at path.
func ParseFile(path string, f config.Format) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Code: ErrCodeRead, Message: fmt.Sprintf("open log: %v", err), Err: err}
	}
	defer file.Close()

	return Parse(file, f)
}

// Store builds a read-only logstore.Store from the parsed entries.
func (r *Result) Store() *logstore.Store {
	return logstore.FromEntries(r.Entries)
}

// LineCount returns the number of lines read.
func (r *Result) LineCount() int {
	return len(r.Text)
}

// LineText returns the raw text of line, if it exists.
func (r *Result) LineText(line uint32) (string, bool) {
	if line < r.FirstLine {
		return "", false
	}
	i := uint64(line - r.FirstLine)
	if i >= uint64(len(r.Text)) {
		return "", false
	}
	return r.Text[i], true
}

// LastLine returns the number of the final line, or FirstLine for an empty log.
func (r *Result) LastLine() uint32 {
	if len(r.Text) == 0 {
		return r.FirstLine
	}
	last := uint64(r.FirstLine) + uint64(len(r.Text)-1)
	if last > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(last)
}
