// Package schema applies the Postgres DDL owned by the storage packages.
package schema

import (
	"context"
	"fmt"

	"portfolio-cms/internal/audit"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/directory"
	"portfolio-cms/pkg/utils"

	"github.com/jmoiron/sqlx"
)

// Step is one named DDL block.
type Step struct {
	Name string
	DDL  string
}

// Steps lists the DDL in apply order. Every block is idempotent.
var Steps = []Step{
	{Name: "directory", DDL: directory.Schema},
	{Name: "content", DDL: content.Schema},
	{Name: "audit", DDL: audit.Schema},
}

// Apply runs every step in a single transaction.
func Apply(ctx context.Context, db *sqlx.DB) error {
	return utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, s := range Steps {
			if _, err := tx.ExecContext(ctx, s.DDL); err != nil {
				return fmt.Errorf("schema %s: %w", s.Name, err)
			}
		}
		return nil
	})
}
