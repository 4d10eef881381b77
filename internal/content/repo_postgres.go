package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps every collection in one JSONB table, partitioned
// by database id.
type PostgresStore struct {
	db         *sqlx.DB
	databaseID string
}

func NewPostgresStore(db *sqlx.DB, databaseID string) *PostgresStore {
	return &PostgresStore{db: db, databaseID: databaseID}
}

// Schema is the documents table DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS cms_documents (
  database_id TEXT NOT NULL,
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  fields JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (database_id, collection, id)
);
CREATE INDEX IF NOT EXISTS idx_cms_documents_created ON cms_documents (database_id, collection, created_at DESC);
`

type documentRow struct {
	ID         string    `db:"id"`
	Collection string    `db:"collection"`
	Fields     []byte    `db:"fields"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r documentRow) document() (Document, error) {
	fields := Fields{}
	if len(r.Fields) > 0 {
		if err := json.Unmarshal(r.Fields, &fields); err != nil {
			return Document{}, fmt.Errorf("decode fields of %s/%s: %w", r.Collection, r.ID, err)
		}
	}
	return Document{
		ID:         r.ID,
		Collection: r.Collection,
		Fields:     fields,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}, nil
}

const documentColumns = `id, collection, fields::text AS fields, created_at, updated_at`

func orderClause(o Order) (string, error) {
	if !o.valid() {
		return "", ErrInvalidOrder
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	// field is whitelisted by valid()
	return fmt.Sprintf(" ORDER BY %s %s, id %s", o.Field, dir, dir), nil
}

func (s *PostgresStore) List(ctx context.Context, collection string, order Order) (ListResult, error) {
	ob, err := orderClause(order)
	if err != nil {
		return ListResult{}, err
	}
	var rows []documentRow
	q := `SELECT ` + documentColumns + ` FROM cms_documents WHERE database_id=$1 AND collection=$2` + ob
	if err := s.db.SelectContext(ctx, &rows, q, s.databaseID, collection); err != nil {
		return ListResult{}, fmt.Errorf("content/List: %w", err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		d, err := row.document()
		if err != nil {
			return ListResult{}, err
		}
		docs = append(docs, d)
	}
	return ListResult{Total: len(docs), Documents: docs}, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	q := `SELECT ` + documentColumns + ` FROM cms_documents WHERE database_id=$1 AND collection=$2 AND id=$3`
	if err := s.db.GetContext(ctx, &row, q, s.databaseID, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("content/Get: %w", err)
	}
	return row.document()
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Document{}, fmt.Errorf("content/Create: encode fields: %w", err)
	}
	var row documentRow
	q := `INSERT INTO cms_documents (database_id, collection, id, fields)
		VALUES ($1, $2, $3, CAST($4 AS text)::jsonb)
		RETURNING ` + documentColumns
	if err := s.db.GetContext(ctx, &row, q, s.databaseID, collection, id, string(raw)); err != nil {
		return Document{}, fmt.Errorf("content/Create: %w", err)
	}
	return row.document()
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Document{}, fmt.Errorf("content/Update: encode fields: %w", err)
	}
	var row documentRow
	q := `UPDATE cms_documents SET fields = fields || CAST($4 AS text)::jsonb, updated_at=NOW()
		WHERE database_id=$1 AND collection=$2 AND id=$3
		RETURNING ` + documentColumns
	if err := s.db.GetContext(ctx, &row, q, s.databaseID, collection, id, string(raw)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("content/Update: %w", err)
	}
	return row.document()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cms_documents WHERE database_id=$1 AND collection=$2 AND id=$3`, s.databaseID, collection, id)
	if err != nil {
		return fmt.Errorf("content/Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("content/Delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
