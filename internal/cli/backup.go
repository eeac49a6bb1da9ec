package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/entrypoint"
	"github.com/mrlokans/libraryhub/internal/store"
)

var errBackupsDisabled = errors.New("backups are not configured; check BACKUP_PROVIDER")

func newBackupCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write, list and restore snapshots in backup storage",
	}
	cmd.AddCommand(newBackupRunCommand(opts), newBackupListCommand(opts), newBackupRestoreCommand(opts))
	return cmd
}

func newBackupRunCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Write a snapshot now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if app.Backups == nil {
					return errBackupsDisabled
				}
				result, err := app.Backups.Run(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, result)
				}
				success(out, "Wrote %s (%d bytes)", result.Key, result.Size)
				for _, key := range result.Pruned {
					muted(out, "pruned %s", key)
				}
				return nil
			})
		},
	}
}

func newBackupListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if app.Backups == nil {
					return errBackupsDisabled
				}
				files, err := app.Backups.List(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, files)
				}
				if len(files) == 0 {
					muted(out, "No snapshots stored")
					return nil
				}
				rows := make([][]string, len(files))
				for i, f := range files {
					rows[i] = []string{f.Path, fmt.Sprint(f.Size), f.ModifiedAt.Format("2006-01-02 15:04")}
				}
				renderTable(out, []string{"Key", "Bytes", "Modified"}, rows)
				return nil
			})
		},
	}
}

func newBackupRestoreCommand(opts *globalOptions) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "restore [key]",
		Short: "Restore a snapshot; the latest one when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if app.Backups == nil {
					return errBackupsDisabled
				}
				importOpts := store.ImportOptions{Replace: replace}

				var key string
				var result *store.ImportResult
				var err error
				if len(args) == 1 {
					key = args[0]
					result, err = app.Backups.Restore(ctx, key, importOpts)
				} else {
					key, result, err = app.Backups.RestoreLatest(ctx, importOpts)
				}
				if err != nil {
					return err
				}
				if !opts.jsonOutput {
					muted(cmd.OutOrStdout(), "Restoring %s", key)
				}
				return printImportResult(cmd.OutOrStdout(), opts, result)
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Clear every collection before loading")
	return cmd
}
