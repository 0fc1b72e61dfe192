package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/linklog/internal/archive"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportResult describes a completed import.
type ImportResult struct {
	archive.Import
}

// RenderText implements TextRenderer.
func (r ImportResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ imported %s as %s (%d lines, %d snapshots)\n",
		r.Source, r.ID, r.LineCount, r.EntryCount)
	return err
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <log>",
		Short: "Parse a log and archive its snapshots",
		Long: `Parse a log and store its snapshots in a SQLite archive.

The database is created if it doesn't exist. Each import gets a new id;
state, graph and timeline read it back with --db and --import.

Examples:
  linklog import ./app.log --db ./links.db
  linklog import ./app.log --db ./links.db --config ./format.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, logPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := parseLog(formatter, opts.RootOptions, logPath)
	if err != nil {
		return err
	}

	slog.Debug("opening archive", "path", opts.Database)
	a, err := archive.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeArchive, "failed to open archive", err)
	}
	defer a.Close()

	id, err := a.SaveImport(ctx, logPath, res.LineCount(), res.Entries)
	if err != nil {
		return commandError(formatter, ErrCodeArchive, "failed to save import", err)
	}

	imp, err := a.GetImport(ctx, id)
	if err != nil {
		return commandError(formatter, ErrCodeArchive, "failed to read back import", err)
	}
	slog.Info("import saved", "id", imp.ID, "seq", imp.Seq, "snapshots", imp.EntryCount)

	return formatter.Success(ImportResult{Import: imp})
}

// ImportsOptions holds flags for the imports command.
type ImportsOptions struct {
	*RootOptions
	Database string
	Delete   string
}

// ImportsResult lists the imports of an archive.
type ImportsResult struct {
	Imports []archive.Import `json:"imports"`
}

// RenderText implements TextRenderer.
func (r ImportsResult) RenderText(w io.Writer) error {
	if len(r.Imports) == 0 {
		_, err := fmt.Fprintln(w, "No imports found in archive.")
		return err
	}
	for _, imp := range r.Imports {
		if _, err := fmt.Fprintf(w, "%d  %s  %s  %d lines  %d snapshots\n",
			imp.Seq, imp.ID, imp.Source, imp.LineCount, imp.EntryCount); err != nil {
			return err
		}
	}
	return nil
}

// DeleteResult reports a deleted import.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

// RenderText implements TextRenderer.
func (r DeleteResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ deleted import %s\n", r.Deleted)
	return err
}

// NewImportsCommand creates the imports command.
func NewImportsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List or delete archived imports",
		Long: `List the imports in a SQLite archive, oldest first.

Exit codes:
  0 - Success
  2 - Command error (database not found, unknown import, etc.)

Examples:
  linklog imports --db ./links.db
  linklog imports --db ./links.db --delete 0192...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImports(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the import with this id")

	return cmd
}

func runImports(ctx context.Context, opts *ImportsOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	a, err := archive.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeArchive, "failed to open archive", err)
	}
	defer a.Close()

	if opts.Delete != "" {
		err := a.DeleteImport(ctx, opts.Delete)
		switch {
		case errors.Is(err, archive.ErrImportNotFound):
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("import not found: %s", opts.Delete), nil)
		case err != nil:
			return commandError(formatter, ErrCodeArchive, "failed to delete import", err)
		}
		return formatter.Success(DeleteResult{Deleted: opts.Delete})
	}

	imports, err := a.ListImports(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeArchive, "failed to list imports", err)
	}
	return formatter.Success(ImportsResult{Imports: imports})
}
