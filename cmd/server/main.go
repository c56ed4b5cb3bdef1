// Command server runs the Jinwoo notes backend and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/crypto"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// databaseKeyName and databaseKeyVersion feed the HKDF info string for the
// SQLCipher key. Bumping the version rotates the key.
const (
	databaseKeyName    = "notebook"
	databaseKeyVersion = 1
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &config.Flags{}

	rootCmd := &cobra.Command{
		Use:          "jinwoo",
		Short:        "Hierarchical notes server",
		Long:         `Serves the folder and note API over HTTP and MCP, and runs maintenance tasks against the notebook database.`,
		Version:      version,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.NoEmail, "no-email", false, "write emails to the local outbox instead of sending them")
	pf.BoolVar(&flags.NoS3, "no-s3", false, "export to an in-memory S3 server")
	pf.BoolVar(&flags.Test, "test", false, "shorthand for --no-email --no-s3")
	pf.StringVar(&flags.Addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	pf.StringVarP(&flags.ConfigFile, "config", "c", "", "YAML config file (default ./jinwoo.yaml when present)")
	pf.StringVar(&flags.EnvFile, "env-file", "", ".env file (default ./.env when present)")

	rootCmd.AddCommand(
		serveCmd(flags),
		migrateCmd(flags),
		exportCmd(flags),
		fsckCmd(flags),
	)
	return rootCmd
}

// loadRuntime loads configuration and initializes logging from it.
func loadRuntime(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.LoadConfig(*flags)
	if err != nil {
		return nil, err
	}
	obs.InitWithOptions(cfg.LogOptions())
	return cfg, nil
}

// openStore opens the encrypted notebook database under cfg.DataDir.
func openStore(ctx context.Context, cfg *config.Config, skipMigrations bool) (*db.Store, error) {
	key, err := crypto.DatabaseKey(cfg.MasterKey, databaseKeyName, databaseKeyVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to derive database key: %w", err)
	}
	return db.Open(ctx, db.Options{
		DataDir:        cfg.DataDir,
		Key:            key,
		SkipMigrations: skipMigrations,
	})
}
