package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"quizforge/internal/database"
	"quizforge/internal/domain"
	"quizforge/internal/logger"
	"quizforge/internal/repository"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent generations from the generation log database",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		if cfg.GenLog.DB.Driver == "" || !cfg.GenLog.Enabled {
			return fmt.Errorf("history needs genlog.enabled and genlog.db.driver")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := database.Connect(cfg.GenLog.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := repository.NewSQLXGenerationLogRepository(db).ListRecent(ctx, limit)
		if err != nil {
			return err
		}
		return printHistory(cmd, records)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of generations to show")
}

func printHistory(cmd *cobra.Command, records []*domain.GenerationRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tDIFFICULTY\tQUESTIONS\tMODEL\tFIRST QUESTION")
	for _, r := range records {
		first := ""
		if len(r.Quiz.Questions) > 0 {
			first = r.Quiz.Questions[0].Question
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"), r.Source, r.Difficulty,
			len(r.Quiz.Questions), r.Model, truncate(first, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
