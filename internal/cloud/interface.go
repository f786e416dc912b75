// Package cloud implements the cloud print request/response orchestrator:
// requests are prepared by the builder, transmitted by the dispatcher, and
// routed back as typed events consumed by the stores.
package cloud

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/invitation"
)

type Config struct {
	BaseURL      string        `validate:"required,url"`
	Locale       string        `validate:"required"`
	AppKioskMode bool          `mapstructure:"app-kiosk-mode"`
	Timeout      time.Duration `validate:"gt=0"`
	ConnTimeout  time.Duration `mapstructure:"conn-timeout" validate:"gt=0"`
	// DropSendErrors restores the legacy policy of silently dropping
	// requests whose transport send fails.
	DropSendErrors bool `mapstructure:"drop-send-errors"`
}

// Client is the orchestrator. One instance serves one user session; there
// is deliberately no package level instance, callers thread it through.
type Client struct {
	config     *Config
	session    *Session
	events     *Events
	builder    *Builder
	dispatcher *Dispatcher
}

func New(config *Config, provider TokenProvider, metrics *metrics.Metrics) (*Client, error) {
	session := NewSession()

	builder, err := NewBuilder(config.BaseURL, config.Locale, session)
	if err != nil {
		return nil, err
	}

	policy := SurfaceSendErrors
	if config.DropSendErrors {
		policy = DropSendErrors
	}

	dispatcher, err := NewDispatcher(&DispatcherConfig{
		Timeout:     config.Timeout,
		ConnTimeout: config.ConnTimeout,
		Policy:      policy,
	}, provider, metrics)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     config,
		session:    session,
		events:     NewEvents(metrics),
		builder:    builder,
		dispatcher: dispatcher,
	}, nil
}

func (c *Client) Events() *Events {
	return c.events
}

func (c *Client) Session() *Session {
	return c.session
}

// SearchOrigins returns the origins a search fans out to; kiosk mode
// disables cookie-authenticated searches entirely.
func (c *Client) SearchOrigins() []destination.Origin {
	var origins []destination.Origin
	for _, origin := range destination.CloudOrigins {
		if c.config.AppKioskMode && origin == destination.Cookies {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

// Search issues a recent and a full destination search per enabled origin,
// aborting any outstanding searches those supersede. Responses arrive as
// SEARCH_DONE / SEARCH_FAILED events.
func (c *Client) Search(account string, query string) {
	origins := c.SearchOrigins()
	c.dispatcher.AbortSearchRequests(origins)

	for _, origin := range origins {
		c.search(origin, account, query, true)
		c.search(origin, account, query, false)
	}
}

func (c *Client) search(origin destination.Origin, account string, query string, recent bool) {
	params := []Param{
		{"connection_status", "ALL"},
		{"client", "chrome"},
		{"use_cdd", "true"},
	}

	if recent {
		params = append(params, Param{"q", "^recent"})
	}
	if query != "" {
		params = append(params, Param{"q", query})
	}

	req := c.builder.Build(http.MethodGet, ActionSearch, params, origin, account, c.onSearchDone)
	req.Recent = recent

	c.dispatcher.TrackSearch(req)
	c.dispatcher.SendOrQueue(req)
}

// Submit sends a print job to the destination. The document is delivered
// inline as a base64 data url.
func (c *Client) Submit(dest *destination.Destination, ticket string, title string, data []byte) {
	params := []Param{
		{"printerid", dest.Id},
		{"contentType", "dataUrl"},
		{"title", title},
		{"ticket", ticket},
		{"content", "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)},
	}

	req := c.builder.Build(http.MethodPost, ActionSubmit, params, dest.Origin, dest.Account, c.onSubmitDone)
	c.dispatcher.SendOrQueue(req)
}

// Printer looks up a single destination, capabilities included.
func (c *Client) Printer(id string, origin destination.Origin, account string) {
	params := []Param{
		{"printerid", id},
		{"use_cdd", "true"},
		{"printer_connection_status", "true"},
	}

	req := c.builder.Build(http.MethodGet, ActionPrinter, params, origin, account, c.onPrinterDone)
	req.DestinationId = id

	c.dispatcher.SendOrQueue(req)
}

// Invites fetches the pending printer-sharing invitations for the account.
func (c *Client) Invites(account string) {
	req := c.builder.Build(http.MethodGet, ActionInvites, nil, destination.Cookies, account, c.onInvitesDone)
	c.dispatcher.SendOrQueue(req)
}

// ProcessInvite accepts or rejects an invitation.
func (c *Client) ProcessInvite(inv *invitation.Invitation, accept bool) {
	params := []Param{
		{"printerid", inv.Destination.Id},
		{"accept", strconv.FormatBool(accept)},
	}

	req := c.builder.Build(http.MethodPost, ActionProcessInvite, params, destination.Cookies, inv.Account, c.onProcessInviteDone)
	req.Invitation = inv
	req.Accept = accept

	c.dispatcher.SendOrQueue(req)
}
