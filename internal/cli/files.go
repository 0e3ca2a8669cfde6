package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sessionchart/internal/app"
	"sessionchart/internal/fetcher"
)

var (
	filesStart    string
	filesEnd      string
	filesStrategy string
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List recorded session files",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := fileQuery(filesStart, filesEnd, filesStrategy)
		if err != nil {
			return err
		}
		return getApp().Files(cmd.Context(), app.FilesOptions{Query: query})
	},
}

func init() {
	addQueryFlags(filesCmd, &filesStart, &filesEnd, &filesStrategy)
}

func addQueryFlags(cmd *cobra.Command, start, end, strategy *string) {
	cmd.Flags().StringVar(start, "start", "", "First session date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(end, "end", "", "Last session date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(strategy, "strategy", "", "Only sessions of this strategy")
}

func fileQuery(start, end, strategy string) (fetcher.FileQuery, error) {
	for name, value := range map[string]string{"--start": start, "--end": end} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return fetcher.FileQuery{}, fmt.Errorf("invalid %s value: %w", name, err)
		}
	}
	if start != "" && end != "" && end < start {
		return fetcher.FileQuery{}, fmt.Errorf("--start must not be after --end")
	}
	return fetcher.FileQuery{StartDate: start, EndDate: end, Strategy: strategy}, nil
}
