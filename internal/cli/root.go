// Package cli implements the libraryhub command line. Running the binary
// without a subcommand starts the HTTP server.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/entrypoint"
)

type globalOptions struct {
	dbPath     string
	jsonOutput bool
}

// NewRootCommand builds the command tree.
func NewRootCommand(version, commit string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "libraryhub",
		Short: "School library service: catalog, circulation and reports",
		Long: `libraryhub keeps a school library's books, students and loans.

Without a subcommand it starts the HTTP API. The other commands work
directly against the database and are meant for operators.`,
		Version:      fmt.Sprintf("%s (commit %s)", version, commit),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(opts.config(), version)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the library database (overrides DATABASE_PATH)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newServeCommand(opts, version),
		newSeedCommand(opts),
		newSnapshotCommand(opts),
		newResyncCommand(opts),
		newResetReturnedCommand(opts),
		newCreateAdminCommand(opts),
		newReportCommand(opts),
		newBackupCommand(opts),
	)
	return root
}

func (o *globalOptions) config() *config.Config {
	cfg := config.NewConfig()
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg
}

// withApp opens the library, runs fn and closes it again.
func (o *globalOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := entrypoint.Open(ctx, o.config())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func newServeCommand(opts *globalOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(opts.config(), version)
			return nil
		},
	}
}
