package main

import (
	"fmt"
	"image/color"

	"github.com/spf13/cobra"

	"cardvault/internal/icons"
	"cardvault/internal/vault"
)

func newIconsCommand(ctx *commandContext) *cobra.Command {
	iconsCmd := &cobra.Command{
		Use:   "icons",
		Short: "Manage icon sets",
	}
	iconsCmd.AddCommand(newIconsListCommand(ctx))
	iconsCmd.AddCommand(newIconsInstallCommand(ctx))
	iconsCmd.AddCommand(newIconsGenerateCommand(ctx))
	iconsCmd.AddCommand(newIconsDeleteCommand(ctx))
	return iconsCmd
}

func newIconsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed icon sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				for _, name := range m.Icons().List() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func newIconsInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install <image> <name>",
		Short: "Build an icon set from a source image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Icons().Install(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Installed icon set %q\n", args[1])
				return nil
			})
		},
	}
}

func newIconsGenerateCommand(ctx *commandContext) *cobra.Command {
	var background, accent string

	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a themed icon set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme := icons.DefaultScheme
			if background != "" {
				c, err := parseHexColor(background)
				if err != nil {
					return err
				}
				scheme.Background = c
			}
			if accent != "" {
				c, err := parseHexColor(accent)
				if err != nil {
					return err
				}
				scheme.Accent = c
			}
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Icons().InstallProcedural(args[0], scheme); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated icon set %q\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&background, "background", "", "Background color as #rrggbb")
	cmd.Flags().StringVar(&accent, "accent", "", "Accent color as #rrggbb")
	return cmd
}

func newIconsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a custom icon set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Icons().Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted icon set %q\n", args[0])
				return nil
			})
		},
	}
}

func parseHexColor(value string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(value, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q (expected #rrggbb)", value)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
