package watch

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/printhq/cloudprint/cmd/util"
	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/internal/store"
	internalUtil "github.com/printhq/cloudprint/internal/util"
	"github.com/printhq/cloudprint/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	var cronExp string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh destination searches on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := util.NewConfig()
			if err != nil {
				return err
			}

			if _, err := log.Init(os.Stderr, cfg.Log.Level); err != nil {
				return err
			}

			schedule, err := internalUtil.ParseCron(cronExp)
			if err != nil {
				return err
			}

			m := metrics.New(prometheus.NewRegistry())

			client, err := util.NewClient(cfg, m)
			if err != nil {
				return err
			}

			recentStore, err := util.NewRecentStore(cfg.Recent)
			if err != nil {
				return err
			}
			if recentStore != nil {
				defer recentStore.Close()
			}

			destinations := store.NewDestinationStore(client.Events(), recentStore)
			destinations.OnChanged(func() {
				slog.Info("destinations updated", "count", len(destinations.Destinations()))
			})

			account := viper.GetString("account")
			runner := util.NewSearchRunner(client)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			for {
				if err := runner.Run(account, "", cfg.Cloud.Timeout); err != nil {
					slog.Warn("search refresh failed", "err", err)
				}

				next := schedule.Next(time.Now())
				slog.Info("next refresh", "at", next)

				select {
				case s := <-sig:
					slog.Info("shutdown signal received", "signal", s)
					return nil
				case <-time.After(time.Until(next)):
				}
			}
		},
	}

	cmd.Flags().StringVar(&cronExp, "cron", "*/5 * * * *", "Refresh schedule in cron format")

	return cmd
}
