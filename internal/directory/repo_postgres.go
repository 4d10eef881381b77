package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"portfolio-cms/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDirectory stores users in the directory_users table.
//
// Labels are a text[] column. They are read back as their text form and
// parsed with pq.StringArray so the same code works under the pgx stdlib driver.
type PostgresDirectory struct {
	db     *sqlx.DB
	hasher PasswordHasher
	decoy  *decoy
}

func NewPostgresDirectory(db *sqlx.DB, hasher PasswordHasher) *PostgresDirectory {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &PostgresDirectory{db: db, hasher: hasher, decoy: &decoy{hasher: hasher}}
}

// Schema is the users table DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS directory_users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  labels TEXT[] NOT NULL DEFAULT '{}',
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_directory_users_labels ON directory_users USING GIN (labels);
`

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	Labels       pq.StringArray `db:"labels"`
	PasswordHash string         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (u userRow) identity() Identity {
	labels := []string(u.Labels)
	if labels == nil {
		labels = []string{}
	}
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Labels: labels, CreatedAt: u.CreatedAt}
}

const selectUser = `SELECT id, email, name, labels::text AS labels, password_hash, created_at FROM directory_users`

func (r *PostgresDirectory) GetByID(ctx context.Context, id string) (Identity, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, selectUser+` WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("directory/GetByID: %w", err)
	}
	return row.identity(), nil
}

func (r *PostgresDirectory) ListByEmail(ctx context.Context, email string) ([]Identity, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUser+` WHERE email=$1 ORDER BY created_at`, normalizeEmail(email)); err != nil {
		return nil, fmt.Errorf("directory/ListByEmail: %w", err)
	}
	out := make([]Identity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.identity())
	}
	return out, nil
}

func (r *PostgresDirectory) SetLabels(ctx context.Context, id string, labels []string) error {
	const q = `UPDATE directory_users SET labels = CAST($2 AS text)::text[], updated_at=NOW() WHERE id=$1`
	if labels == nil {
		// a nil StringArray encodes as NULL
		labels = []string{}
	}
	arr, err := pq.StringArray(labels).Value()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, id, arr)
	if err != nil {
		return fmt.Errorf("directory/SetLabels: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("directory/SetLabels: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDirectory) Create(ctx context.Context, in NewUser) (Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Identity{}, ErrInvalidArgument
	}
	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return Identity{}, err
	}
	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}
	arr, err := pq.StringArray(labels).Value()
	if err != nil {
		return Identity{}, err
	}

	const q = `INSERT INTO directory_users (id, email, name, labels, password_hash)
		VALUES ($1, $2, $3, CAST($4 AS text)::text[], $5) RETURNING created_at`
	id := Identity{ID: uuid.NewString(), Email: email, Name: in.Name, Labels: labels}
	if err := r.db.GetContext(ctx, &id.CreatedAt, q, id.ID, id.Email, id.Name, arr, hash); err != nil {
		if utils.IsUniqueViolation(err) {
			return Identity{}, ErrAlreadyExists
		}
		return Identity{}, fmt.Errorf("directory/Create: %w", err)
	}
	return id, nil
}

func (r *PostgresDirectory) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, selectUser+` WHERE email=$1`, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// avoid user enumeration via timing
			r.decoy.verify(password)
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("directory/Authenticate: %w", err)
	}
	if !r.hasher.Verify(row.PasswordHash, password) {
		return Identity{}, ErrInvalidCredentials
	}
	return row.identity(), nil
}

var _ Directory = (*PostgresDirectory)(nil)
