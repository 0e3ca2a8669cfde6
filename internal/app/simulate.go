package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sessionchart/internal/alerting"
	"sessionchart/internal/live"
)

// SimulateOptions describe a synthetic position change.
type SimulateOptions struct {
	Channel  live.Channel
	Label    string
	Previous decimal.Decimal
	Value    decimal.Decimal
	Price    decimal.Decimal
}

// SimulateAlert 通过配置的告警通道发送一次模拟持仓变化，用于检查推送配置。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is disabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no notification channel configured")
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	return notifier.Notify(ctx, alerting.Notification{
		PollID:   uuid.NewString(),
		Channel:  string(opts.Channel),
		Label:    opts.Label,
		Time:     time.Now().In(loc),
		Value:    opts.Value,
		Previous: opts.Previous,
		Price:    opts.Price,
	})
}
