package cmd

import (
	"context"
	"fmt"
	"io"

	"editorial_composer/internal/model"
	"editorial_composer/internal/repository"
	"editorial_composer/pkg/database"

	"github.com/spf13/cobra"
)

var (
	historyKind  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent CMS submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.InitDB(&cfg.Database, "release")
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		return printHistory(cmd.Context(), cmd.OutOrStdout(), repository.NewSubmissionRepository(db), model.SubmissionKind(historyKind), historyLimit)
	},
}

func printHistory(ctx context.Context, out io.Writer, repo *repository.SubmissionRepository, kind model.SubmissionKind, limit int) error {
	records, total, err := repo.List(ctx, kind, 1, limit)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(out, "📭 No submissions yet.")
		return nil
	}

	fmt.Fprintf(out, "📚 %d submissions (showing %d):\n", total, len(records))
	for _, r := range records {
		icon := "✅"
		if r.Outcome != model.OutcomeSuccess {
			icon = "❌"
		}
		line := fmt.Sprintf("%s %s | %-9s | %s | %s", icon, r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.Date, r.Title)
		if r.RemoteID != "" {
			line += " | id:" + r.RemoteID
		}
		if r.Message != "" {
			line += " | " + r.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyKind, "kind", "k", "", "Only show editorial or daily submissions")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "How many records to show")
}
