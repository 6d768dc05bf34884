package main

import (
	"io"
	"os"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a wizard interactively in the terminal",
	Long: `Walks a wizard step by step on the terminal and submits the lead at the end.
Press Enter to keep a value. Commands: :next, :back, :submit, :quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		variant, _ := cmd.Flags().GetString("variant")
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")

		// Logs would interleave with prompts; keep them for --debug only.
		var logOut io.Writer = io.Discard
		if debug {
			logOut = os.Stderr
			cfg.Log.Level = "debug"
		}
		a, err := newApp(cfg, logOut)
		if err != nil {
			return err
		}
		defer a.Close()

		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plain = true
		}
		if !plain {
			tui.PrintBanner(cmd.OutOrStdout(), leadflow.Version)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Fill(ctx, a.svc, cli.FillOptions{
			Variant: variant,
			In:      cmd.InOrStdin(),
			Out:     cmd.OutOrStdout(),
			Plain:   plain,
		})
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().String("variant", wizard.VariantQuote, "Wizard variant to open")
	fillCmd.Flags().Bool("plain", false, "Disable colors and progress bars")
	fillCmd.Flags().Bool("debug", false, "Write debug logs to stderr")
}
