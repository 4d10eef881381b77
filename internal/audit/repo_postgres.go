package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is the audit table DDL. UPDATE and DELETE are blocked by trigger.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
  id TEXT PRIMARY KEY,
  database_id TEXT NOT NULL,
  type TEXT NOT NULL,
  action TEXT NOT NULL,
  actor_user_id TEXT NOT NULL DEFAULT '',
  actor_email TEXT NOT NULL DEFAULT '',
  ip_address TEXT NOT NULL DEFAULT '',
  collection TEXT NOT NULL DEFAULT '',
  document_id TEXT NOT NULL DEFAULT '',
  file_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created ON audit_events (database_id, created_at DESC);
CREATE OR REPLACE FUNCTION audit_events_immutable() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'audit_events is append-only';
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS audit_events_no_mutation ON audit_events;
CREATE TRIGGER audit_events_no_mutation BEFORE UPDATE OR DELETE ON audit_events
  FOR EACH ROW EXECUTE FUNCTION audit_events_immutable();
`

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `INSERT INTO audit_events
		(id, database_id, type, action, actor_user_id, actor_email, ip_address, collection, document_id, file_id, user_id, created_at)
		VALUES (:id, :database_id, :type, :action, :actor_user_id, :actor_email, :ip_address, :collection, :document_id, :file_id, :user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("audit/Append: %w", err)
	}
	return nil
}

var _ Repository = (*PostgresRepo)(nil)
