package cloud

import (
	"log/slog"

	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/invitation"
)

// handleEnvelope runs the session bookkeeping common to every completed
// request: a successful cookie-authenticated response replaces the stored
// xsrf token for the user it reports.
func (c *Client) handleEnvelope(req *Request) {
	if !req.Ok() || req.Origin != destination.Cookies {
		return
	}

	if r := req.Result.Request; r != nil && r.User != "" && req.Result.XSRFToken != "" {
		c.session.SetXSRFToken(r.User, req.Result.XSRFToken)
	}
}

func (c *Client) failure(req *Request) Failure {
	failure := Failure{
		Status: req.Status,
		Origin: req.Origin,
		User:   req.Account,
	}

	if req.Result != nil {
		failure.ErrorCode = req.Result.ErrorCode
		failure.Message = req.Result.Message
	}

	return failure
}

func (c *Client) onSearchDone(req *Request) {
	c.handleEnvelope(req)

	last := c.dispatcher.FinishSearch(req)

	if !req.Ok() {
		c.events.EmitSearchFailed(&SearchFailed{
			Failure:    c.failure(req),
			SearchDone: last,
		})
		return
	}

	activeUser := req.Account
	if r := req.Result.Request; r != nil && r.User != "" {
		activeUser = r.User
	}

	printers := make([]*destination.Destination, 0, len(req.Result.Printers))
	for _, entry := range req.Result.Printers {
		printer, err := destination.Parse(entry, req.Origin, activeUser)
		if err != nil {
			slog.Warn("skipping unparsable printer", "req", req, "err", err)
			continue
		}
		printers = append(printers, printer)
	}

	if req.Origin == destination.Cookies {
		if r := req.Result.Request; r != nil && len(r.Users) > 0 {
			c.session.SetUsers(r.Users)
			c.events.EmitUpdateUsers(&UpdateUsers{ActiveUser: activeUser, Users: r.Users})
		}
	}

	c.events.EmitSearchDone(&SearchDone{
		Origin:     req.Origin,
		Printers:   printers,
		Recent:     req.Recent,
		User:       activeUser,
		SearchDone: last,
	})
}

func (c *Client) onSubmitDone(req *Request) {
	c.handleEnvelope(req)

	if req.Ok() && req.Result.Job != nil {
		c.events.EmitSubmitDone(&SubmitDone{JobId: req.Result.Job.Id})
		return
	}

	c.events.EmitSubmitFailed(&SubmitFailed{Failure: c.failure(req)})
}

func (c *Client) onPrinterDone(req *Request) {
	c.handleEnvelope(req)

	if req.Ok() {
		// A cookie-authenticated lookup answered by a different active
		// user gets re-issued once under the revealed account; the session
		// index must already be known so the retry can carry authuser.
		if req.Origin == destination.Cookies && req.Result.Request != nil {
			active := req.Result.Request.User
			if active != "" && active != req.Account && c.session.SessionIndex(active) > 0 {
				if users := req.Result.Request.Users; len(users) > 0 {
					c.session.SetUsers(users)
				}
				c.events.EmitUpdateUsers(&UpdateUsers{ActiveUser: active, Users: c.session.Users()})

				slog.Debug("re-issuing printer lookup", "req", req, "account", active)
				c.Printer(req.DestinationId, req.Origin, active)
				return
			}
		}

		if len(req.Result.Printers) > 0 {
			printer, err := destination.Parse(req.Result.Printers[0], req.Origin, req.Account)
			if err == nil {
				c.events.EmitPrinterDone(&PrinterDone{Printer: printer})
				return
			}
			slog.Warn("unparsable printer", "req", req, "err", err)
		}
	}

	c.events.EmitPrinterFailed(&PrinterFailed{
		Failure:       c.failure(req),
		DestinationId: req.DestinationId,
	})
}

func (c *Client) onInvitesDone(req *Request) {
	c.handleEnvelope(req)

	if !req.Ok() {
		c.events.EmitInvitesFailed(&InvitesFailed{
			Failure: c.failure(req),
			User:    req.Account,
		})
		return
	}

	invitations := make([]*invitation.Invitation, 0, len(req.Result.Invites))
	for _, entry := range req.Result.Invites {
		inv, err := invitation.Parse(entry, req.Account)
		if err != nil {
			slog.Warn("skipping unparsable invitation", "req", req, "err", err)
			continue
		}
		invitations = append(invitations, inv)
	}

	c.events.EmitInvitesDone(&InvitesDone{
		Invitations: invitations,
		User:        req.Account,
	})
}

func (c *Client) onProcessInviteDone(req *Request) {
	c.handleEnvelope(req)

	var printer *destination.Destination
	if req.Ok() && req.Accept && len(req.Result.Printer) > 0 {
		var err error
		printer, err = destination.Parse(req.Result.Printer, req.Origin, req.Account)
		if err != nil {
			slog.Warn("unparsable accepted printer", "req", req, "err", err)
			printer = nil
		}
	}

	// The invitation is settled either way; consumers drop it from their
	// pending lists regardless of accept or server outcome.
	c.events.EmitProcessInviteDone(&ProcessInviteDone{
		Printer:    printer,
		Invitation: req.Invitation,
		Accept:     req.Accept,
		User:       req.Account,
	})
}
