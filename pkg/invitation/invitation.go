package invitation

import (
	"encoding/json"
	"fmt"

	"github.com/printhq/cloudprint/pkg/destination"
)

// Invitation is a pending offer to share access to a printer with another
// account. It lives in the invitation store until accepted or rejected.
type Invitation struct {
	Sender         string                   `json:"sender"`
	Receiver       string                   `json:"receiver,omitempty"`
	AsGroupManager bool                     `json:"asGroupManager,omitempty"`
	Destination    *destination.Destination `json:"destination"`
	Account        string                   `json:"account"`
}

func (i *Invitation) String() string {
	return fmt.Sprintf("Invitation(sender=%s, receiver=%s, printer=%s, account=%s)", i.Sender, i.Receiver, i.Destination.Id, i.Account)
}

func (i1 *Invitation) Equals(i2 *Invitation) bool {
	return i1.Sender == i2.Sender &&
		i1.Receiver == i2.Receiver &&
		i1.Account == i2.Account &&
		i1.Destination.Id == i2.Destination.Id
}

type participant struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *participant) label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

type wire struct {
	Sender   *participant    `json:"sender"`
	Receiver *participant    `json:"receiver"`
	Printer  json.RawMessage `json:"printer"`
}

// Parse builds an Invitation from one entry of an invites response. The
// sender and printer fields are required; a GROUP receiver marks the
// invitation as a group-manager offer.
func Parse(data json.RawMessage, account string) (*Invitation, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	if w.Sender == nil || w.Sender.label() == "" {
		return nil, fmt.Errorf("invitation missing sender")
	}

	if len(w.Printer) == 0 {
		return nil, fmt.Errorf("invitation missing printer")
	}

	dest, err := destination.Parse(w.Printer, destination.Cookies, account)
	if err != nil {
		return nil, fmt.Errorf("invitation printer: %w", err)
	}

	invitation := &Invitation{
		Sender:      w.Sender.label(),
		Destination: dest,
		Account:     account,
	}

	if w.Receiver != nil {
		invitation.Receiver = w.Receiver.label()
		invitation.AsGroupManager = w.Receiver.Type == "GROUP"
	}

	return invitation, nil
}
