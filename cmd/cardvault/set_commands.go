package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardvault/internal/cards"
	"cardvault/internal/vault"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the sets in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				names, err := m.Sets().List()
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sets in the vault.")
					return nil
				}

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					meta, err := m.Sets().LoadMetadata(name)
					if err != nil {
						rows = append(rows, []string{name, "?", "?", "unreadable metadata"})
						continue
					}
					rows = append(rows, []string{
						name,
						strconv.Itoa(meta.CardCount),
						strconv.Itoa(meta.DifficultyLevel),
						strings.Join(meta.Tags, ", "),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Name", "Cards", "Difficulty", "Tags"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var withCards bool

	cmd := &cobra.Command{
		Use:   "show <set>",
		Short: "Show a set's metadata and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				set, err := m.Sets().Load(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				title := fmt.Sprintf("Set: %s", set.Name)
				if shouldColorize(out) {
					title = ansiBlue + title + ansiReset
				}
				fmt.Fprintln(out, title)
				if set.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", set.Description)
				}
				fmt.Fprintf(out, "Icon set: %s\n", set.IconSet)
				fmt.Fprintf(out, "Difficulty: %d\n", set.DifficultyLevel)
				if len(set.Tags) > 0 {
					fmt.Fprintf(out, "Tags: %s\n", strings.Join(set.Tags, ", "))
				}
				fmt.Fprintf(out, "Created: %s\n", set.CreatedDate.Format(time.RFC3339))
				if set.LastModified != nil {
					fmt.Fprintf(out, "Modified: %s\n", set.LastModified.Format(time.RFC3339))
				}

				progress := set.ProgressStats()
				fmt.Fprintf(out, "Cards: %d (known %d, review %d, unknown %d)\n",
					progress.Total, progress.Known, progress.Review, progress.Unknown)

				if withCards {
					rows := make([][]string, 0, set.CardCount())
					for i, card := range set.Cards {
						rows = append(rows, []string{
							strconv.Itoa(i + 1),
							card.CardID,
							string(card.Status),
							strconv.Itoa(len(card.InformationSide)),
							strconv.Itoa(len(card.AnswerSide)),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"#", "Card ID", "Status", "Info blocks", "Answer blocks"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
					))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withCards, "cards", false, "Include a per-card listing")
	return cmd
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var iconSet string
	var tags []string
	var difficulty int

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				set, err := m.Sets().Create(args[0], description, iconSet, tags, difficulty)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created set %q with %d card\n", set.Name, set.CardCount())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Set description")
	cmd.Flags().StringVar(&iconSet, "icon-set", cards.DefaultIconSet, "Icon set name")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	cmd.Flags().IntVar(&difficulty, "difficulty", 1, "Difficulty level 1-5")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <set>",
		Short: "Delete a set and its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.DeleteSet(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted set %q\n", args[0])
				return nil
			})
		},
	}
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.RenameSet(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}
