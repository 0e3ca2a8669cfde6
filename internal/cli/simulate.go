package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sessionchart/internal/app"
	"sessionchart/internal/live"
)

var (
	simulateChannel  string
	simulateLabel    string
	simulatePrevious float64
	simulateValue    float64
	simulatePrice    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send a synthetic position change through the configured notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		channel := live.Channel(simulateChannel)
		if channel != live.ChannelNP1 && channel != live.ChannelNP2 {
			return fmt.Errorf("--channel must be %s or %s", live.ChannelNP1, live.ChannelNP2)
		}
		if simulatePrevious == simulateValue {
			return fmt.Errorf("--previous and --value must differ")
		}

		return getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Channel:  channel,
			Label:    simulateLabel,
			Previous: decimal.NewFromFloat(simulatePrevious),
			Value:    decimal.NewFromFloat(simulateValue),
			Price:    decimal.NewFromFloat(simulatePrice),
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateChannel, "channel", string(live.ChannelNP1), "Channel that changed (np1 or np2)")
	simulateCmd.Flags().StringVar(&simulateLabel, "label", "", "Category label of the channel")
	simulateCmd.Flags().Float64Var(&simulatePrevious, "previous", 0, "Size before the change")
	simulateCmd.Flags().Float64Var(&simulateValue, "value", 1, "Size after the change")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Price at the change")
}
