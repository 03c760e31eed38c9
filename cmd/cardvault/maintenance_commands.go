package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cardvault/internal/vault"
)

func newCleanupMediaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-media <set>",
		Short: "Remove media files no card references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				removed, err := m.Sets().CleanupUnusedMedia(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(removed) == 0 {
					fmt.Fprintln(out, "No unused media found.")
					return nil
				}
				for _, name := range removed {
					fmt.Fprintf(out, "Removed %s\n", name)
				}
				fmt.Fprintf(out, "Removed %d file(s)\n", len(removed))
				return nil
			})
		},
	}
}

func newIntegrityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "integrity",
		Short: "Check the vault's structural consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				issues, err := m.Sets().CheckIntegrity()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(issues) == 0 {
					fmt.Fprintln(out, "Vault is consistent.")
					return nil
				}
				for _, issue := range issues {
					fmt.Fprintln(out, issue)
				}
				return fmt.Errorf("found %d issue(s)", len(issues))
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vault-wide statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				stats, err := m.Statistics()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Sets", "Cards", "Vault"},
					[][]string{{
						strconv.Itoa(stats.TotalSets),
						strconv.Itoa(stats.TotalCards),
						stats.VaultPath,
					}},
					[]columnAlignment{alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}
