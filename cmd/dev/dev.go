package dev

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/printhq/cloudprint/cmd/util"
	"github.com/printhq/cloudprint/internal/dev"
	"github.com/printhq/cloudprint/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	var addr string
	var metricsAddr string
	var user string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run a stub cloud print service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := util.NewConfig()
			if err != nil {
				return err
			}

			if _, err := log.Init(os.Stderr, cfg.Log.Level); err != nil {
				return err
			}

			var token string
			if cfg.Token != nil {
				token = cfg.Token.AccessToken
			}

			server := dev.New(&dev.Config{
				Addr:    addr,
				Timeout: 10 * time.Second,
				Token:   token,
				User:    user,
				Users:   []string{user},
			})

			// metrics server
			reg := prometheus.NewRegistry()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}

			go func() {
				slog.Info("starting metrics server", "addr", metricsServer.Addr)
				if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics server failed", "error", err)
				}
			}()

			errors := make(chan error, 1)
			go server.Start(errors)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case s := <-sig:
				slog.Info("shutdown signal received, shutting down", "signal", s)
			case err := <-errors:
				slog.Error("server error received, shutting down", "error", err)
			}

			if err := metricsServer.Close(); err != nil {
				slog.Warn("error stopping metrics server", "error", err)
			}

			return server.Stop()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8282", "Listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics listen address")
	cmd.Flags().StringVar(&user, "user", "dev@example.com", "Active session user")
	_ = viper.BindPFlag("dev.user", cmd.Flags().Lookup("user"))

	return cmd
}
