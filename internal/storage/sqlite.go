package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, stemerrors.StorageError("failed to open document database", err).WithDetail("path", dbPath)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, stemerrors.StorageError("failed to enable WAL", err).WithDetail("path", dbPath)
	}

	store := &SQLiteStore{
		db: db,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, stemerrors.StorageError("failed to initialise schema", err).WithDetail("path", dbPath)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Save writes the document and all of its annotation sets in one
// transaction, replacing whatever was stored under the same name.
func (s *SQLiteStore) Save(ctx context.Context, doc *annotation.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stemerrors.StorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.saveDocumentInTransaction(ctx, tx, doc); err != nil {
		return stemerrors.StorageError(fmt.Sprintf("failed to save document %q", doc.Name()), err).
			WithDetail("document", doc.Name())
	}

	if err := tx.Commit(); err != nil {
		return stemerrors.StorageError("failed to commit transaction", err)
	}
	return nil
}

func (s *SQLiteStore) saveDocumentInTransaction(ctx context.Context, tx *sql.Tx, doc *annotation.Document) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE doc_name = ?", doc.Name()); err != nil {
		return fmt.Errorf("failed to clear annotations: %w", err)
	}

	_, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (name, content, updated_at) VALUES (?, ?, ?)",
		doc.Name(), doc.Content(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document row: %w", err)
	}

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (doc_name, set_name, position, ann_id, ann_type, start_offset, end_offset, features)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer insertStmt.Close()

	for _, set := range toRecord(doc).Sets {
		for pos, a := range set.Annotations {
			features, err := encodeFeatures(a.Features)
			if err != nil {
				return fmt.Errorf("failed to encode features of annotation %d: %w", a.ID, err)
			}
			if _, err := insertStmt.ExecContext(ctx,
				doc.Name(), set.Name, pos, a.ID, a.Type, a.Start, a.End, string(features),
			); err != nil {
				return fmt.Errorf("failed to insert annotation %d: %w", a.ID, err)
			}
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*annotation.Document, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM documents WHERE name = ?",
		name,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stemerrors.DocumentNotFound(name)
	}
	if err != nil {
		return nil, stemerrors.StorageError(fmt.Sprintf("failed to load document %q", name), err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT set_name, ann_id, ann_type, start_offset, end_offset, features
		FROM annotations
		WHERE doc_name = ?
		ORDER BY set_name, position
	`, name)
	if err != nil {
		return nil, stemerrors.StorageError("failed to query annotations", err)
	}
	defer rows.Close()

	doc := annotation.NewDocument(name, content)
	for rows.Next() {
		var setName, features string
		a := &annotation.Annotation{}
		if err := rows.Scan(&setName, &a.ID, &a.Type, &a.Start, &a.End, &features); err != nil {
			return nil, stemerrors.StorageError("failed to scan annotation", err)
		}
		if a.Features, err = decodeFeatures([]byte(features)); err != nil {
			return nil, stemerrors.StorageError(fmt.Sprintf("corrupt features on annotation %d", a.ID), err)
		}
		doc.NamedAnnotations(setName).Restore(a)
	}
	if err := rows.Err(); err != nil {
		return nil, stemerrors.StorageError("error iterating annotations", err)
	}

	return doc, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.name, d.updated_at, a.set_name, COUNT(a.ann_id)
		FROM documents d
		LEFT JOIN annotations a ON a.doc_name = d.name
		GROUP BY d.name, a.set_name
		ORDER BY d.name, a.set_name
	`)
	if err != nil {
		return nil, stemerrors.StorageError("failed to list documents", err)
	}
	defer rows.Close()

	byName := make(map[string]*Summary)
	var names []string
	for rows.Next() {
		var (
			name      string
			updatedAt time.Time
			setName   sql.NullString
			count     int
		)
		if err := rows.Scan(&name, &updatedAt, &setName, &count); err != nil {
			return nil, stemerrors.StorageError("failed to scan document", err)
		}
		sum, ok := byName[name]
		if !ok {
			sum = &Summary{Name: name, UpdatedAt: updatedAt}
			byName[name] = sum
			names = append(names, name)
		}
		if setName.Valid {
			sum.Sets = append(sum.Sets, setName.String)
			sum.Annotations += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, stemerrors.StorageError("error iterating documents", err)
	}

	sort.Strings(names)
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stemerrors.StorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE doc_name = ?", name); err != nil {
		return stemerrors.StorageError("failed to delete annotations", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name)
	if err != nil {
		return stemerrors.StorageError("failed to delete document", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return stemerrors.DocumentNotFound(name)
	}

	if err := tx.Commit(); err != nil {
		return stemerrors.StorageError("failed to commit transaction", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
