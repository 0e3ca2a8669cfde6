package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var (
	plotFileID  string
	plotDate    string
	plotPNGPath string
	plotCSVPath string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Chart one recorded session as PNG and/or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if plotFileID == "" {
			return fmt.Errorf("--file-id must be provided")
		}

		opts := app.PlotOptions{
			FileID:  plotFileID,
			PNGPath: plotPNGPath,
			CSVPath: plotCSVPath,
		}
		if plotDate != "" {
			day, err := time.Parse(time.DateOnly, plotDate)
			if err != nil {
				return fmt.Errorf("invalid --date value: %w", err)
			}
			opts.Date = &day
		}

		return getApp().Plot(cmd.Context(), opts)
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotFileID, "file-id", "", "Session file to chart")
	plotCmd.Flags().StringVar(&plotDate, "date", "", "Calendar date for clock-only times (defaults to today)")
	plotCmd.Flags().StringVar(&plotPNGPath, "png", "", "Path to write PNG chart")
	plotCmd.Flags().StringVar(&plotCSVPath, "csv", "", "Path to write CSV data")
}
