package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mossdocs/arbor/pkg/model"
	"github.com/mossdocs/arbor/pkg/tree"
)

// Local serves documents from a sqlite workspace file, the offline
// counterpart of the server's document table. Another process may write
// the same file; pair with WatchFile to reload on change.
type Local struct {
	db   *sql.DB
	path string
}

const localSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	project_id TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'markdown',
	content    TEXT NOT NULL DEFAULT '',
	parent_id  TEXT,
	"order"    INTEGER NOT NULL DEFAULT 0,
	archived   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_id);
`

// OpenLocal opens (creating if needed) a local workspace database.
func OpenLocal(path string) (*Local, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", path, err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init workspace schema: %w", err)
	}
	return &Local{db: db, path: path}, nil
}

// Path returns the database file path (for change watching).
func (l *Local) Path() string {
	return l.path
}

// Close releases the database handle.
func (l *Local) Close() error {
	return l.db.Close()
}

// Load reads the full document collection.
func (l *Local) Load(ctx context.Context) ([]model.Document, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, project_id, type, content, parent_id, "order", archived
		 FROM documents ORDER BY "order", id`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var (
			doc      model.Document
			kind     string
			parentID sql.NullString
			archived sql.NullBool
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.ProjectID, &kind,
			&doc.Content, &parentID, &doc.Order, &archived); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Kind = model.Kind(kind)
		if parentID.Valid {
			v := parentID.String
			doc.ParentID = &v
		}
		if archived.Valid {
			v := archived.Bool
			doc.Archived = &v
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Apply commits a reorder batch with the same one-at-a-time, no-rollback
// semantics as the remote store, so partial-failure behavior matches
// what the UI is built to reconcile.
func (l *Local) Apply(ctx context.Context, updates []tree.Update) error {
	for i, u := range updates {
		var err error
		if u.SetParent {
			_, err = l.db.ExecContext(ctx,
				`UPDATE documents SET parent_id = ?, "order" = ? WHERE id = ?`,
				u.Parent, u.Order, u.ID)
		} else {
			_, err = l.db.ExecContext(ctx,
				`UPDATE documents SET "order" = ? WHERE id = ?`,
				u.Order, u.ID)
		}
		if err != nil {
			return fmt.Errorf("position update %d of %d (%s): %w", i+1, len(updates), u.ID, err)
		}
	}
	return nil
}

// Insert adds a document; used for seeding workspaces.
func (l *Local) Insert(ctx context.Context, doc model.Document) error {
	var parent any
	if doc.ParentID != nil {
		parent = *doc.ParentID
	}
	var archived any
	if doc.Archived != nil {
		archived = *doc.Archived
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, project_id, type, content, parent_id, "order", archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.ProjectID, string(doc.Kind), doc.Content, parent, doc.Order, archived)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}
