package cli

import (
	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var (
	averageFileIDs  []string
	averageStart    string
	averageEnd      string
	averageStrategy string
	averageField    string
	averagePNGPath  string
	averageCSVPath  string
)

var averageCmd = &cobra.Command{
	Use:   "average",
	Short: "Average a field across sessions and mark its maximum",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := fileQuery(averageStart, averageEnd, averageStrategy)
		if err != nil {
			return err
		}

		opts := app.AverageOptions{
			FileIDs: averageFileIDs,
			Query:   query,
			Field:   averageField,
			PNGPath: averagePNGPath,
			CSVPath: averageCSVPath,
		}
		return getApp().Average(cmd.Context(), opts)
	},
}

func init() {
	averageCmd.Flags().StringSliceVar(&averageFileIDs, "file-id", nil, "Session files to average (defaults to every listed file)")
	addQueryFlags(averageCmd, &averageStart, &averageEnd, &averageStrategy)
	averageCmd.Flags().StringVar(&averageField, "field", "", "Record field to average (defaults to config)")
	averageCmd.Flags().StringVar(&averagePNGPath, "png", "", "Path to write PNG chart")
	averageCmd.Flags().StringVar(&averageCSVPath, "csv", "", "Path to write CSV data")
}
