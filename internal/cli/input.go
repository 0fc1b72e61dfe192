package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/linklog/internal/archive"
	"github.com/roach88/linklog/internal/config"
	"github.com/roach88/linklog/internal/loader"
	"github.com/roach88/linklog/internal/logstore"
)

// SourceOptions selects where a command reads entries from: a log file given
// as an argument, or an import in a SQLite archive.
type SourceOptions struct {
	Database string
	ImportID string

	// asStored loads archived entries in saved order instead of line order.
	asStored bool
}

func (s *SourceOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Database, "db", "", "read from an archive instead of a log file")
	cmd.Flags().StringVar(&s.ImportID, "import", "", "archived import id (default: latest)")
}

// source is a ready-to-query store and a description of where it came from.
type source struct {
	Name  string
	Store *logstore.Store

	// Log is set only when the store was parsed from a log file.
	Log *loader.Result
}

// loadFormat resolves the loader format from --config, or the default.
func loadFormat(f *OutputFormatter, opts *RootOptions) (config.Format, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	format, err := config.Load(opts.Config)
	if err != nil {
		return config.Format{}, reportError(f, "failed to load format file", err)
	}
	f.VerboseLog("Loaded format from %s", opts.Config)
	return format, nil
}

// parseLog reads and parses the log at path.
func parseLog(f *OutputFormatter, opts *RootOptions, path string) (*loader.Result, error) {
	format, err := loadFormat(f, opts)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, commandError(f, ErrCodeNotFound, fmt.Sprintf("log file not found: %s", path), nil)
	}

	res, err := loader.ParseFile(path, format)
	if err != nil {
		return nil, reportError(f, fmt.Sprintf("failed to parse %s", path), err)
	}
	f.VerboseLog("Parsed %d line(s), %d snapshot(s) from %s", res.LineCount(), len(res.Entries), path)
	return res, nil
}

// loadSource opens the store a query command runs against. Exactly one of a
// log argument and --db must be given.
func loadSource(ctx context.Context, f *OutputFormatter, opts *RootOptions, src *SourceOptions, args []string) (*source, error) {
	switch {
	case len(args) == 1 && src.Database != "":
		return nil, commandError(f, ErrCodeUsage, "give either a log file or --db, not both", nil)
	case len(args) == 0 && src.Database == "":
		return nil, commandError(f, ErrCodeUsage, "a log file or --db is required", nil)
	}

	if len(args) == 1 {
		if src.ImportID != "" {
			return nil, commandError(f, ErrCodeUsage, "--import requires --db", nil)
		}
		res, err := parseLog(f, opts, args[0])
		if err != nil {
			return nil, err
		}
		return &source{Name: args[0], Store: res.Store(), Log: res}, nil
	}

	return loadArchived(ctx, f, src)
}

func loadArchived(ctx context.Context, f *OutputFormatter, src *SourceOptions) (*source, error) {
	if _, err := os.Stat(src.Database); err != nil {
		return nil, commandError(f, ErrCodeNotFound, fmt.Sprintf("database not found: %s", src.Database), nil)
	}

	a, err := archive.Open(src.Database)
	if err != nil {
		return nil, commandError(f, ErrCodeArchive, "failed to open archive", err)
	}
	defer a.Close()

	var imp archive.Import
	if src.ImportID != "" {
		imp, err = a.GetImport(ctx, src.ImportID)
	} else {
		imp, err = a.LatestImport(ctx)
	}
	switch {
	case errors.Is(err, archive.ErrImportNotFound) && src.ImportID == "":
		return nil, commandError(f, ErrCodeNoImports, fmt.Sprintf("no imports in %s", src.Database), nil)
	case errors.Is(err, archive.ErrImportNotFound):
		return nil, commandError(f, ErrCodeNotFound, fmt.Sprintf("import not found: %s", src.ImportID), nil)
	case err != nil:
		return nil, commandError(f, ErrCodeArchive, "failed to read import", err)
	}

	load := a.LoadStore
	if src.asStored {
		load = a.LoadStoreAsStored
	}
	st, err := load(ctx, imp.ID)
	if err != nil {
		return nil, commandError(f, ErrCodeArchive, "failed to load entries", err)
	}
	slog.Debug("archived import loaded", "import", imp.ID, "entries", st.Len())
	f.VerboseLog("Loaded import %s (%s, %d snapshot(s))", imp.ID, imp.Source, imp.EntryCount)
	return &source{Name: imp.Source, Store: st}, nil
}

// reportError maps err to a CLI error code and reports it as a command error.
// Format and parse failures keep their own code in the message, for example
// "E004: failed to parse app.log: line 3: E302: invalid node id".
func reportError(f *OutputFormatter, message string, err error) error {
	var cfgErr *config.ConfigError
	var parseErr *loader.ParseError
	switch {
	case errors.As(err, &cfgErr):
		return commandError(f, ErrCodeConfig, fmt.Sprintf("%s: %v", message, cfgErr), err)
	case errors.As(err, &parseErr):
		return commandError(f, ErrCodeParse, fmt.Sprintf("%s: %v", message, parseErr), err)
	case errors.Is(err, os.ErrNotExist):
		return commandError(f, ErrCodeNotFound, message, err)
	}
	return commandError(f, ErrCodeGeneric, message, err)
}
