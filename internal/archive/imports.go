package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/linklog/internal/logstore"
	"github.com/roach88/linklog/internal/snapshot"
)

// ErrImportNotFound is returned when an import id does not exist.
var ErrImportNotFound = errors.New("import not found")

// Import describes one archived parse of a log.
type Import struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Source     string `json:"source"`
	LineCount  int    `json:"line_count"`
	EntryCount int    `json:"entry_count"`
}

// SaveImport writes entries as a new import in a single transaction and
// returns its id. source is a free-form description, typically the log path.
func (a *Archive) SaveImport(ctx context.Context, source string, lineCount int, entries []snapshot.Entry) (string, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save import: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM imports`).Scan(&seq); err != nil {
		return "", fmt.Errorf("save import: next seq: %w", err)
	}

	id := a.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO imports (id, seq, source, line_count, entry_count)
		VALUES (?, ?, ?, ?, ?)
	`, id, seq, source, lineCount, len(entries))
	if err != nil {
		return "", fmt.Errorf("save import: insert import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (import_id, seq, node_id, line_n, strong_mask, weak_mask)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("save import: prepare: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			id, i, e.NodeID(), e.Line(), e.StrongMask().String(), e.WeakMask().String(),
		); err != nil {
			return "", fmt.Errorf("save import: insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save import: commit: %w", err)
	}

	slog.Debug("import saved", "id", id, "seq", seq, "entries", len(entries))
	return id, nil
}

// ListImports returns every import ordered by seq.
// Returns an empty slice (not nil) if the archive is empty.
func (a *Archive) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, seq, source, line_count, entry_count
		FROM imports
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	imports := []Import{}
	for rows.Next() {
		var imp Import
		if err := rows.Scan(&imp.ID, &imp.Seq, &imp.Source, &imp.LineCount, &imp.EntryCount); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}

	return imports, nil
}

// GetImport returns the import with the given id, or ErrImportNotFound.
func (a *Archive) GetImport(ctx context.Context, id string) (Import, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, seq, source, line_count, entry_count
		FROM imports
		WHERE id = ?
	`, id)
	return scanImport(row, id)
}

// LatestImport returns the import with the highest seq, or ErrImportNotFound.
func (a *Archive) LatestImport(ctx context.Context) (Import, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, seq, source, line_count, entry_count
		FROM imports
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanImport(row, "latest")
}

func scanImport(row *sql.Row, label string) (Import, error) {
	var imp Import
	err := row.Scan(&imp.ID, &imp.Seq, &imp.Source, &imp.LineCount, &imp.EntryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, fmt.Errorf("%w: %s", ErrImportNotFound, label)
	}
	if err != nil {
		return Import{}, fmt.Errorf("scan import: %w", err)
	}
	return imp, nil
}

// LoadEntries returns the entries of an import ordered by node, then line.
func (a *Archive) LoadEntries(ctx context.Context, importID string) ([]snapshot.Entry, error) {
	return a.loadEntries(ctx, importID, "node_id ASC, line_n ASC, seq ASC")
}

// LoadEntriesAsStored returns the entries of an import in the order they were
// saved, without sorting by line.
func (a *Archive) LoadEntriesAsStored(ctx context.Context, importID string) ([]snapshot.Entry, error) {
	return a.loadEntries(ctx, importID, "seq ASC")
}

func (a *Archive) loadEntries(ctx context.Context, importID, orderBy string) ([]snapshot.Entry, error) {
	if _, err := a.GetImport(ctx, importID); err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT node_id, line_n, strong_mask, weak_mask
		FROM entries
		WHERE import_id = ?
		ORDER BY `+orderBy, importID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []snapshot.Entry{}
	for rows.Next() {
		var nodeID, line uint32
		var strong, weak string
		if err := rows.Scan(&nodeID, &line, &strong, &weak); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		sm, err := snapshot.ParseMask(strong)
		if err != nil {
			return nil, fmt.Errorf("node %d line %d: strong mask: %w", nodeID, line, err)
		}
		wm, err := snapshot.ParseMask(weak)
		if err != nil {
			return nil, fmt.Errorf("node %d line %d: weak mask: %w", nodeID, line, err)
		}
		entries = append(entries, snapshot.NewFromMasks(nodeID, line, sm, wm))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// LoadStore loads an import and builds a read-only store from it.
func (a *Archive) LoadStore(ctx context.Context, importID string) (*logstore.Store, error) {
	entries, err := a.LoadEntries(ctx, importID)
	if err != nil {
		return nil, err
	}
	return logstore.FromEntries(entries), nil
}

// LoadStoreAsStored builds a store from the entries in saved order. Unlike
// LoadStore, any per-node line disorder in the archive survives, so
// Store.Verify reports it.
func (a *Archive) LoadStoreAsStored(ctx context.Context, importID string) (*logstore.Store, error) {
	entries, err := a.LoadEntriesAsStored(ctx, importID)
	if err != nil {
		return nil, err
	}
	return logstore.FromEntries(entries), nil
}

// DeleteImport removes an import and its entries.
func (a *Archive) DeleteImport(ctx context.Context, importID string) error {
	res, err := a.db.ExecContext(ctx, `DELETE FROM imports WHERE id = ?`, importID)
	if err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete import: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	return nil
}
