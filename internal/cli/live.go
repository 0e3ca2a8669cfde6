package cli

import (
	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var livePNGPath string

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Poll the live feed and keep its chart up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Live(cmd.Context(), app.LiveOptions{PNGPath: livePNGPath})
	},
}

func init() {
	liveCmd.Flags().StringVar(&livePNGPath, "png", "", "Path of the live PNG (defaults to config)")
}
