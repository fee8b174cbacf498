package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dripvault/internal/vault/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the dripvault command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dripvault",
		Short: "A private, encrypted media vault that offers a few items a day",
		Long: `dripvault keeps photos and videos encrypted at rest and offers them back
a handful per day, in a shuffled cycle that visits every item once before
any repeats.

The vault is unlocked with a password on every run. The first password
used on a fresh vault becomes its password.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newImportCmd(),
		newTodayCmd(),
		newViewCmd(),
		newOpenCmd(),
		newDeleteCmd(),
		newStatusCmd(),
		newShellCmd(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// withApp loads the configuration, opens and unlocks the vault, and runs fn.
func withApp(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}

		a, err := NewApp(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Unlock(ctx); err != nil {
			return err
		}
		return fn(ctx, a, args)
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>...",
		Short: "Encrypt files into the vault",
		Long: `Encrypt photos and videos into the vault. Directories are imported one
level deep; hidden files are skipped. Files that cannot be read are
reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Import(ctx, args)
		}),
	}
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's items",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Today(ctx)
		}),
	}
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Decrypt an item to a temporary file and count it as viewed",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.View(ctx, args[0])
		}),
	}
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Decrypt an item to a temporary file without counting it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Open(ctx, args[0])
		}),
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an item and its encrypted file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Delete(ctx, args[0], yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault totals and today's progress",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Status(ctx)
		}),
	}
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			printlnFn("Welcome to dripvault (type 'help' for commands)")
			runREPL(ctx, a, a.getStatus, a.reader)
			return nil
		}),
	}
}
