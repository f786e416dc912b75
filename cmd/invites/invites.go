package invites

import (
	"fmt"
	"os"
	"time"

	"github.com/printhq/cloudprint/cmd/util"
	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/internal/store"
	"github.com/printhq/cloudprint/pkg/invitation"
	"github.com/printhq/cloudprint/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	var process string
	var accept bool

	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List or process printer-sharing invitations",
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

			account := viper.GetString("account")

			invitations := store.NewInvitationStore(client, client.Events())

			loaded := make(chan string, 1)
			invitations.OnInvitationsLoaded(func(account string) { loaded <- account })

			invitations.StartLoadingInvitations(account)

			select {
			case <-loaded:
			case <-time.After(cfg.Cloud.Timeout):
				return fmt.Errorf("invitation load timed out")
			}

			pending := invitations.Invitations(account)
			if len(pending) == 0 {
				cmd.Println("no pending invitations")
				return nil
			}

			for _, inv := range pending {
				cmd.Printf("%-24s from %-24s printer %s\n", inv.Destination.Id, inv.Sender, inv.Destination.DisplayName)
			}

			if process == "" {
				return nil
			}

			var target *invitation.Invitation
			for _, inv := range pending {
				if inv.Destination.Id == process {
					target = inv
					break
				}
			}
			if target == nil {
				return fmt.Errorf("no pending invitation for printer '%s'", process)
			}

			processed := make(chan *invitation.Invitation, 1)
			invitations.OnInvitationProcessed(func(inv *invitation.Invitation) { processed <- inv })

			invitations.ProcessInvitation(target, accept)

			select {
			case inv := <-processed:
				verb := "rejected"
				if accept {
					verb = "accepted"
				}
				cmd.Printf("%s invitation for %s\n", verb, inv.Destination.Id)
				return nil
			case <-time.After(cfg.Cloud.Timeout):
				return fmt.Errorf("invitation processing timed out")
			}
		},
	}

	cmd.Flags().StringVar(&process, "process", "", "Printer id of the invitation to process")
	cmd.Flags().BoolVar(&accept, "accept", false, "Accept the processed invitation (default reject)")

	return cmd
}
