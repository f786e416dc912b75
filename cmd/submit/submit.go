package submit

import (
	"fmt"
	"os"
	"path/filepath"
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
	var title string
	var ticket string

	cmd := &cobra.Command{
		Use:   "submit <printer-id> <file>",
		Short: "Submit a print job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := util.NewConfig()
			if err != nil {
				return err
			}

			if _, err := log.Init(os.Stderr, cfg.Log.Level); err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
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

			dest := &destination.Destination{
				Id:          args[0],
				Type:        destination.Google,
				Origin:      origin,
				DisplayName: args[0],
				Account:     viper.GetString("account"),
			}

			if title == "" {
				title = filepath.Base(args[1])
			}

			done := make(chan *cloud.SubmitDone, 1)
			failed := make(chan *cloud.SubmitFailed, 1)
			client.Events().OnSubmitDone(func(event *cloud.SubmitDone) { done <- event })
			client.Events().OnSubmitFailed(func(event *cloud.SubmitFailed) { failed <- event })

			client.Submit(dest, ticket, title, data)

			select {
			case event := <-done:
				cmd.Printf("job %s submitted to %s\n", event.JobId, dest.Id)
				return nil
			case event := <-failed:
				return fmt.Errorf("submit failed: status=%d code=%d %s", event.Status, event.ErrorCode, event.Message)
			case <-time.After(cfg.Cloud.Timeout):
				return fmt.Errorf("submit timed out")
			}
		},
	}

	cmd.Flags().BoolVar(&device, "device", false, "Use device authentication instead of cookies")
	cmd.Flags().StringVar(&title, "title", "", "Job title (default file name)")
	cmd.Flags().StringVar(&ticket, "ticket", "{}", "Print ticket in CJT format")

	return cmd
}
