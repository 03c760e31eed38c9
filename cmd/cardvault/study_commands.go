package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cardvault/internal/cards"
	"cardvault/internal/studylog"
	"cardvault/internal/vault"
)

var errStudyLogDisabled = errors.New("study logging is disabled (enable study.log_enabled in the config)")

func newStudyCommand(ctx *commandContext) *cobra.Command {
	studyCmd := &cobra.Command{
		Use:   "study",
		Short: "Record and inspect study history",
	}
	studyCmd.AddCommand(newStudyMarkCommand(ctx))
	studyCmd.AddCommand(newStudySessionCommand(ctx))
	studyCmd.AddCommand(newStudySummaryCommand(ctx))
	studyCmd.AddCommand(newStudyLogCommand(ctx))
	return studyCmd
}

func newStudyMarkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <set> <card-id> <known|review|unknown>",
		Short: "Set a card's study status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := cards.ParseStatus(normalizeStatus(args[2]))
			if err != nil {
				return err
			}
			return ctx.withVault(func(m *vault.Manager) error {
				if err := m.RecordStatus(cmd.Context(), args[0], args[1], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked card as %s\n", status)
				return nil
			})
		},
	}
}

func newStudySessionCommand(ctx *commandContext) *cobra.Command {
	var duration time.Duration
	var studied, known, review, unknown int

	cmd := &cobra.Command{
		Use:   "session <set>",
		Short: "Record a completed study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if m.StudyLog() == nil {
					return errStudyLogDisabled
				}
				session := studylog.Session{
					SetName:      args[0],
					StartedAt:    time.Now().UTC(),
					Duration:     duration,
					CardsStudied: studied,
					KnownCount:   known,
					ReviewCount:  review,
					UnknownCount: unknown,
				}
				if err := m.StudyLog().RecordSession(cmd.Context(), session); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded session for %q\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "Session length")
	cmd.Flags().IntVar(&studied, "studied", 0, "Cards studied")
	cmd.Flags().IntVar(&known, "known", 0, "Cards marked known")
	cmd.Flags().IntVar(&review, "review", 0, "Cards marked review")
	cmd.Flags().IntVar(&unknown, "unknown", 0, "Cards marked unknown")
	return cmd
}

func newStudySummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <set>",
		Short: "Summarize a set's study history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if m.StudyLog() == nil {
					return errStudyLogDisabled
				}
				summary, err := m.StudyLog().SetSummary(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sessions: %d\n", summary.Sessions)
				fmt.Fprintf(out, "Cards studied: %d\n", summary.TotalStudied)
				fmt.Fprintf(out, "Time studied: %s\n", summary.TotalDuration)
				if summary.LastStudied != nil {
					fmt.Fprintf(out, "Last studied: %s\n", summary.LastStudied.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newStudyLogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <set>",
		Short: "List recent study sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVault(func(m *vault.Manager) error {
				if m.StudyLog() == nil {
					return errStudyLogDisabled
				}
				sessions, err := m.StudyLog().RecentSessions(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions.")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.StartedAt.Format("2006-01-02 15:04"),
						session.Duration.String(),
						strconv.Itoa(session.CardsStudied),
						strconv.Itoa(session.KnownCount),
						strconv.Itoa(session.ReviewCount),
						strconv.Itoa(session.UnknownCount),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Started", "Duration", "Studied", "Known", "Review", "Unknown"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum sessions to list")
	return cmd
}

// normalizeStatus maps lowercase CLI input to the stored status spelling.
func normalizeStatus(value string) string {
	switch value {
	case "known":
		return string(cards.StatusKnown)
	case "review":
		return string(cards.StatusReview)
	case "unknown":
		return string(cards.StatusUnknown)
	}
	return value
}
