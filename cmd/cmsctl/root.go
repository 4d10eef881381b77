package main

import (
	"context"
	"fmt"

	"portfolio-cms/internal/config"
	"portfolio-cms/internal/directory"
	"portfolio-cms/internal/schema"
	"portfolio-cms/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// backend opens the stores a command needs. Callers must invoke the
// returned close func.
type backend interface {
	Migrate(ctx context.Context) error
	Directory(ctx context.Context) (directory.Directory, func(), error)
}

// envBackend connects using the same configuration as the API.
type envBackend struct{}

func (envBackend) open(ctx context.Context) (*sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return utils.OpenPostgres(ctx, utils.PostgresDriver, cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
}

func (b envBackend) Migrate(ctx context.Context) error {
	db, err := b.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return schema.Apply(ctx, db)
}

func (b envBackend) Directory(ctx context.Context) (directory.Directory, func(), error) {
	db, err := b.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return directory.NewPostgresDirectory(db, directory.BcryptHasher{}), func() { _ = db.Close() }, nil
}

func newRootCmd(b backend) *cobra.Command {
	root := &cobra.Command{
		Use:   "cmsctl",
		Short: "Operator tasks for the portfolio CMS",
		Long: `cmsctl manages the portfolio CMS stores.

It reads the same environment (or CONFIG_PATH file) as the API process.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(b),
		newCreateAdminCmd(b),
		newLabelCmd(b, "grant-admin", "Add the admin label to an existing user", true),
		newLabelCmd(b, "revoke-admin", "Remove the admin label from a user", false),
	)
	return root
}

func newMigrateCmd(b backend) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := b.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
