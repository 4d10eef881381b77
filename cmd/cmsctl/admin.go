package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"portfolio-cms/internal/directory"

	"github.com/spf13/cobra"
)

// passwordEnv is read when --password is not given, to keep secrets out of
// shell history.
const passwordEnv = "CMS_ADMIN_PASSWORD"

func newCreateAdminCmd(b backend) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user carrying the admin label",
		Example: `  cmsctl create-admin --email owner@example.com --name Owner
  CMS_ADMIN_PASSWORD=... cmsctl create-admin --email owner@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("--email and --password (or %s) are required", passwordEnv)
			}
			if name == "" {
				name = "Admin"
			}

			dir, closeFn, err := b.Directory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := dir.Create(cmd.Context(), directory.NewUser{
				Email:    email,
				Password: password,
				Name:     name,
				Labels:   []string{directory.LabelAdmin},
			})
			if errors.Is(err, directory.ErrAlreadyExists) {
				return fmt.Errorf("a user with email %s already exists; use grant-admin", email)
			}
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $"+passwordEnv+")")
	cmd.Flags().StringVar(&name, "name", "", "display name (default \"Admin\")")
	return cmd
}

func newLabelCmd(b backend, use, short string, grant bool) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}

			dir, closeFn, err := b.Directory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			users, err := dir.ListByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				return fmt.Errorf("no user with email %s", email)
			}

			u := users[0]
			labels := slices.DeleteFunc(slices.Clone(u.Labels), func(l string) bool { return l == directory.LabelAdmin })
			if grant {
				labels = append(labels, directory.LabelAdmin)
			}
			if err := dir.SetLabels(cmd.Context(), u.ID, labels); err != nil {
				return fmt.Errorf("set labels: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s labels: [%s]\n", u.Email, strings.Join(labels, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	return cmd
}
