package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/invitation"
)

type Action string

const (
	ActionSearch        Action = "search"
	ActionInvites       Action = "invites"
	ActionProcessInvite Action = "processinvite"
	ActionSubmit        Action = "submit"
	ActionPrinter       Action = "printer"
)

// Param is one name/value pair of an outbound call. Order is preserved all
// the way to the wire.
type Param struct {
	Name  string
	Value string
}

// Request describes one outbound api call. It is created by the builder,
// completed exactly once by the dispatcher, and discarded after its
// callback runs.
type Request struct {
	Id          uuid.UUID
	Method      string
	Action      Action
	URL         *url.URL
	Headers     http.Header
	Body        []byte // nil for GET
	Origin      destination.Origin
	Account     string
	SendCookies bool

	// per action context carried through to the router
	Recent        bool
	DestinationId string
	Invitation    *invitation.Invitation
	Accept        bool

	// completion
	Status   int
	Result   *Envelope
	Callback func(*Request)

	// set at build time so an abort lands even while the request is still
	// waiting on a token fetch
	ctx    context.Context
	cancel context.CancelFunc
}

func (r *Request) String() string {
	return fmt.Sprintf("Request(id=%s, method=%s, action=%s, origin=%s, account=%s)", r.Id, r.Method, r.Action, r.Origin, r.Account)
}

// Ok reports whether the request completed with a parsed, successful
// envelope.
func (r *Request) Ok() bool {
	return r.Status == http.StatusOK && r.Result != nil && r.Result.Success
}

// Envelope is the response body shared by all actions.
type Envelope struct {
	Success   bool              `json:"success"`
	Request   *EnvelopeRequest  `json:"request,omitempty"`
	XSRFToken string            `json:"xsrf_token,omitempty"`
	Printers  []json.RawMessage `json:"printers,omitempty"`
	Printer   json.RawMessage   `json:"printer,omitempty"`
	Invites   []json.RawMessage `json:"invites,omitempty"`
	Job       *Job              `json:"job,omitempty"`
	ErrorCode int               `json:"errorCode,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// EnvelopeRequest echoes session information back from the server.
type EnvelopeRequest struct {
	User  string   `json:"user"`
	Users []string `json:"users,omitempty"`
}

type Job struct {
	Id string `json:"id"`
}
