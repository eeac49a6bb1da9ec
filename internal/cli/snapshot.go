package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/entrypoint"
	"github.com/mrlokans/libraryhub/internal/store"
)

func newSnapshotCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the whole library as JSON",
	}
	cmd.AddCommand(newSnapshotExportCommand(opts), newSnapshotImportCommand(opts))
	return cmd
}

func newSnapshotExportCommand(opts *globalOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				snap, err := app.Store.Export(ctx)
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err := snap.WriteTo(cmd.OutOrStdout())
					return err
				}

				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				if _, err := snap.WriteTo(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				success(cmd.ErrOrStderr(), "Wrote %s", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newSnapshotImportCommand(opts *globalOptions) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a snapshot; use - to read stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			snap, err := store.ReadSnapshot(r)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				result, err := app.Store.Import(ctx, snap, store.ImportOptions{Replace: replace})
				if err != nil {
					return err
				}
				return printImportResult(cmd.OutOrStdout(), opts, result)
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Clear every collection before loading")
	return cmd
}

func printImportResult(w io.Writer, opts *globalOptions, result *store.ImportResult) error {
	if opts.jsonOutput {
		return printJSON(w, result)
	}
	names := make([]string, 0, len(store.Collections))
	for _, c := range store.Collections {
		names = append(names, string(c))
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		c := store.Collection(name)
		rows = append(rows, []string{name, fmt.Sprint(result.Imported[c]), fmt.Sprint(result.Skipped[c])})
	}
	renderTable(w, []string{"Collection", "Imported", "Skipped"}, rows)
	if len(result.Adjustments) > 0 {
		warning(w, "Resynced availability for %d books", len(result.Adjustments))
	}
	success(w, "Import complete")
	return nil
}
