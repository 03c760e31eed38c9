package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardvault/internal/archive"
	"cardvault/internal/vault"
)

func newExportSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-set <set> <zip-path>",
		Short: "Export a set as a ZIP archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Packager().ExportSet(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newExportVaultCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-vault <zip-path>",
		Short: "Export the entire vault as a ZIP archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Packager().ExportVault(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported vault to %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportSetCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import-set <zip-path>",
		Short: "Import a set from a ZIP archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				staged, err := m.Packager().StageImport(args[0])
				if err != nil {
					return err
				}
				defer staged.Close()

				importName := name
				if importName == "" {
					importName = staged.Name
					if m.Sets().Exists(importName) {
						importName = m.Packager().SuggestName(staged.Name)
						fmt.Fprintf(cmd.OutOrStdout(),
							"Set %q already exists, importing as %q\n", staged.Name, importName)
					}
				}
				if err := m.Packager().CommitSetImport(staged, importName); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%d cards)\n", importName, staged.CardCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Import under a different name")
	return cmd
}

func newImportVaultCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var onConflict string

	cmd := &cobra.Command{
		Use:   "import-vault <zip-path>",
		Short: "Import a vault archive, merging or replacing the current vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "merge" && mode != "replace" {
				return fmt.Errorf("invalid mode %q (expected merge or replace)", mode)
			}
			var provider archive.DecisionProvider
			switch onConflict {
			case "rename":
				provider = archive.AutoRename
			case "ignore":
				provider = func(conflict, suggested string) archive.Decision {
					return archive.Ignore()
				}
			default:
				return fmt.Errorf("invalid conflict policy %q (expected rename or ignore)", onConflict)
			}

			return ctx.withVault(func(m *vault.Manager) error {
				staged, err := m.Packager().StageVaultImport(args[0])
				if err != nil {
					return err
				}
				defer staged.Close()
				out := cmd.OutOrStdout()

				if mode == "replace" {
					if err := m.Packager().ReplaceVault(staged); err != nil {
						return err
					}
					fmt.Fprintln(out, "Vault replaced; previous sets kept in a timestamped backup.")
					return nil
				}

				result, err := m.Packager().MergeVault(staged, provider)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %d set(s), ignored %d\n", len(result.Imported), len(result.Ignored))
				for _, pair := range result.Renamed {
					fmt.Fprintf(out, "Renamed %q to %q\n", pair[0], pair[1])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "merge", "Import mode: merge or replace")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "rename", "Merge conflict policy: rename or ignore")
	return cmd
}
