package main

import (
	"fmt"
	"os"

	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the configured wizard variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		variants := wizard.DefaultVariants()
		if cfg.VariantsFile != "" {
			if variants, err = wizard.LoadVariants(cfg.VariantsFile); err != nil {
				return err
			}
		}
		registry, err := wizard.NewRegistry(variants...)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		return printVariants(cmd, registry.List(), raw || !term.IsTerminal(int(os.Stdout.Fd())))
	},
}

func printVariants(cmd *cobra.Command, variants []domain.Variant, raw bool) error {
	md := tui.VariantsMarkdown(variants)
	if raw {
		_, err := fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}
	out, err := tui.NewRenderer()(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func init() {
	rootCmd.AddCommand(variantsCmd)
	variantsCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
