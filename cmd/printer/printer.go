package printer

import (
	"fmt"
	"os"
	"time"

	"github.com/printhq/cloudprint/cmd/util"
	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	var device bool

	cmd := &cobra.Command{
		Use:   "printer <id>",
		Short: "Look up one destination, capabilities included",
		Args:  cobra.ExactArgs(1),
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

			origin := destination.Cookies
			if device {
				origin = destination.Device
			}

			done := make(chan *cloud.PrinterDone, 1)
			failed := make(chan *cloud.PrinterFailed, 1)
			client.Events().OnPrinterDone(func(event *cloud.PrinterDone) { done <- event })
			client.Events().OnPrinterFailed(func(event *cloud.PrinterFailed) { failed <- event })

			client.Printer(args[0], origin, viper.GetString("account"))

			select {
			case event := <-done:
				cmd.Printf("%-24s %-16s %-8s %s\n", event.Printer.Id, event.Printer.DisplayName, event.Printer.Origin, event.Printer.ConnectionStatus)
				if event.Printer.Capabilities != nil && event.Printer.Capabilities.Printer != nil {
					cmd.Println("capabilities attached")
				}
				return nil
			case event := <-failed:
				return fmt.Errorf("printer lookup failed for '%s': status=%d code=%d %s", event.DestinationId, event.Status, event.ErrorCode, event.Message)
			case <-time.After(cfg.Cloud.Timeout):
				return fmt.Errorf("printer lookup timed out")
			}
		},
	}

	cmd.Flags().BoolVar(&device, "device", false, "Use device authentication instead of cookies")

	return cmd
}
