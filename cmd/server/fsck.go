package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// errCountsDrifted makes fsck exit non-zero when it finds but does not fix
// mismatches.
var errCountsDrifted = errors.New("note counts drifted; rerun with --repair")

func fsckCmd(flags *config.Flags) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "fsck",
		Short: "Verify every folder's cached note count",
		Long:  `Recomputes each folder's note count from the notes table for every user and reports disagreements. With --repair the stored counts are rewritten.`,
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

			return runFsck(ctx, store, repair, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "rewrite mismatched counts")
	return cmd
}

func runFsck(ctx context.Context, store *db.Store, repair bool, out io.Writer) error {
	users, err := store.Queries().ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	drifted := 0
	for _, u := range users {
		svc := notes.NewService(store, u.ID)
		var mismatches []notes.CountMismatch
		if repair {
			mismatches, err = svc.RepairCounts(ctx)
		} else {
			mismatches, err = svc.CheckCounts(ctx)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		for _, m := range mismatches {
			fmt.Fprintf(out, "%s\t%s\t%q\tstored=%d actual=%d\n", u.Email, m.FolderID, m.FolderName, m.Stored, m.Actual)
		}
		drifted += len(mismatches)
	}

	switch {
	case drifted == 0:
		fmt.Fprintf(out, "%d users checked, all counts consistent\n", len(users))
	case repair:
		fmt.Fprintf(out, "%d users checked, %d counts repaired\n", len(users), drifted)
	default:
		return errCountsDrifted
	}
	return nil
}
