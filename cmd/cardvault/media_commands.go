package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardvault/internal/media"
	"cardvault/internal/vault"
)

func newMediaCommand(ctx *commandContext) *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "Manage a set's media files",
	}
	mediaCmd.AddCommand(newMediaAddCommand(ctx))
	mediaCmd.AddCommand(newMediaRemoveCommand(ctx))
	return mediaCmd
}

func newMediaAddCommand(ctx *commandContext) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add <set> <file>",
		Short: "Copy a media file into a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaKind := media.Kind(kind)
			return ctx.withVault(func(m *vault.Manager) error {
				if !m.Sets().Exists(args[0]) {
					return fmt.Errorf("set %q not found", args[0])
				}
				stored, err := m.Media().Store(args[1], args[0], mediaKind)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored as %s/%s\n", mediaKind.Dir(), stored)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "image", "Media kind: image, audio, or video")
	return cmd
}

func newMediaRemoveCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "remove <set> <filename>",
		Short: "Delete a stored media file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir != "images" && dir != "sounds" {
				return fmt.Errorf("invalid media directory %q (expected images or sounds)", dir)
			}
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.Media().Remove(args[0], dir, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s/%s\n", dir, args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "images", "Media directory: images or sounds")
	return cmd
}
