package search

import (
	"os"

	"github.com/printhq/cloudprint/cmd/util"
	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/internal/store"
	"github.com/printhq/cloudprint/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search cloud destinations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := util.NewConfig()
			if err != nil {
				return err
			}

			if _, err := log.Init(os.Stderr, cfg.Log.Level); err != nil {
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

			var query string
			if len(args) > 0 {
				query = args[0]
			}

			runner := util.NewSearchRunner(client)
			if err := runner.Run(viper.GetString("account"), query, cfg.Cloud.Timeout); err != nil {
				return err
			}

			for _, dest := range destinations.Destinations() {
				cmd.Printf("%-24s %-16s %-8s %s\n", dest.Id, dest.DisplayName, dest.Origin, dest.ConnectionStatus)
			}

			return nil
		},
	}

	return cmd
}
