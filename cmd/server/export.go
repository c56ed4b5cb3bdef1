package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jinwoo-notes/jinwoo/internal/auth"
	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/export"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

func exportCmd(flags *config.Flags) *cobra.Command {
	var emailAddr, sinkName string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one user's notebook as markdown files",
		Long:  `Writes every folder and note of the user as markdown with YAML frontmatter, plus a manifest.yaml, to the chosen sink.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer obs.Close()

			store, err := openStore(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			sinks, closeSinks, err := newSinks(ctx, cfg, afero.NewOsFs())
			if err != nil {
				return err
			}
			defer closeSinks()

			return runExport(ctx, store, sinks, emailAddr, sinkName, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&emailAddr, "email", "", "email of the user to export")
	cmd.Flags().StringVar(&sinkName, "sink", "local", "destination: local, s3 or webdav")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runExport(ctx context.Context, store *db.Store, sinks map[string]export.Sink, emailAddr, sinkName string, out io.Writer) error {
	sink, ok := sinks[sinkName]
	if !ok {
		names := slices.Sorted(maps.Keys(sinks))
		return fmt.Errorf("sink %q is not configured (available: %s)", sinkName, strings.Join(names, ", "))
	}

	user, err := store.Queries().GetUserByEmail(ctx, auth.NormalizeEmail(emailAddr))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no user with email %q", emailAddr)
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	manifest, err := export.New(store).Export(ctx, user.ID, sink)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d notes in %d folders to %s\n", len(manifest.Files), manifest.Folders, manifest.Location)
	return nil
}
