package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/entrypoint"
)

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty collections with the demo library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				result, err := app.SeedDemo()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, result)
				}
				if result.Empty() {
					muted(out, "Nothing to seed: every collection already has data")
					return nil
				}
				success(out, "Seeded %d students, %d admins, %d books and %d ebooks",
					result.Students, result.Admins, result.Books, result.Ebooks)
				return nil
			})
		},
	}
}

func newResyncCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Recompute available copies for every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				adjustments, err := app.Ledger.ResyncAll(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, adjustments)
				}
				if len(adjustments) == 0 {
					success(out, "Inventory is in sync")
					return nil
				}
				rows := make([][]string, len(adjustments))
				for i, a := range adjustments {
					rows[i] = []string{a.BookID, fmt.Sprint(a.Before), fmt.Sprint(a.After)}
				}
				renderTable(out, []string{"Book", "Before", "After"}, rows)
				warning(out, "Corrected %d books", len(adjustments))
				return nil
			})
		},
	}
}

func newResetReturnedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-returned",
		Short: "Delete every returned borrow record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				purged, err := app.Workflow.ResetAllReturned(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]int{"purged": len(purged)})
				}
				success(cmd.OutOrStdout(), "Purged %d returned records", len(purged))
				return nil
			})
		},
	}
}

func newCreateAdminCommand(opts *globalOptions) *cobra.Command {
	var in catalog.AdminInput
	var super bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Add a staff account",
		Long: `Add a staff account. Without --password the password is read from the
terminal without echo, or from the first line of stdin when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				password, err := readPassword(cmd)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				in.Password = password
			}
			if super {
				in.Role = entities.AdminRoleSuperAdmin
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				admin, err := app.Catalog.CreateAdmin(ctx, in)
				if err != nil {
					var verr *catalog.ValidationError
					if errors.As(err, &verr) {
						for field, msg := range verr.Fields {
							warning(cmd.ErrOrStderr(), "%s: %s", field, msg)
						}
					}
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), admin.Public())
				}
				success(cmd.OutOrStdout(), "Created %s %s <%s>", admin.Role, admin.Name, admin.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password; prompted for when omitted")
	cmd.Flags().BoolVar(&super, "super", false, "Grant the super_admin role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword prompts on a terminal, otherwise reads one line from stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
