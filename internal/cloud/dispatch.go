package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/internal/util"
	"github.com/printhq/cloudprint/pkg/destination"
)

// FailurePolicy decides what happens when the transport itself fails
// before a status code is available.
type FailurePolicy int

const (
	// SurfaceSendErrors completes the request through its normal callback
	// with no status and no result.
	SurfaceSendErrors FailurePolicy = iota
	// DropSendErrors logs and drops the request without invoking its
	// callback, reproducing the legacy behavior.
	DropSendErrors
)

type DispatcherConfig struct {
	Timeout     time.Duration
	ConnTimeout time.Duration
	Policy      FailurePolicy
}

// Dispatcher decides when a request may be transmitted and transmits it
// exactly once. Cookie-authenticated requests go out immediately;
// device-authenticated requests wait on the shared token fetch.
type Dispatcher struct {
	config  *DispatcherConfig
	cookied *http.Client
	bare    *http.Client
	fetcher *tokenFetcher
	metrics *metrics.Metrics

	mu          sync.Mutex
	outstanding []*Request // search requests only
}

func NewDispatcher(config *DispatcherConfig, provider TokenProvider, metrics *metrics.Metrics) (*Dispatcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: config.ConnTimeout,
		}).DialContext,
	}

	return &Dispatcher{
		config: config,
		cookied: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		bare: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		fetcher: newTokenFetcher(provider, metrics),
		metrics: metrics,
	}, nil
}

// SendOrQueue transmits the request, waiting for a bearer token first when
// the origin requires one. An empty token fails the request through its
// normal callback without any transmission.
func (d *Dispatcher) SendOrQueue(req *Request) {
	if req.Origin == destination.Cookies {
		d.send(req)
		return
	}

	ch := d.fetcher.get(context.Background())

	go func() {
		token := <-ch

		// aborted while the token fetch was pending
		if req.ctx.Err() != nil {
			slog.Debug("request aborted", "req", req)
			return
		}

		if token == "" {
			slog.Debug("no access token, failing request", "req", req)
			d.complete(req, 0, nil)
			return
		}

		req.Headers.Set("Authorization", "Bearer "+token)
		d.send(req)
	}()
}

// TrackSearch registers a search request in the outstanding list; it stays
// there until its response arrives or it is aborted.
func (d *Dispatcher) TrackSearch(req *Request) {
	util.Assert(req.Action == ActionSearch, "only search requests are tracked")

	d.mu.Lock()
	defer d.mu.Unlock()
	d.outstanding = append(d.outstanding, req)
}

// FinishSearch removes a completed search request from the outstanding
// list and reports whether it was the last one for its origin.
func (d *Dispatcher) FinishSearch(req *Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last := true
	keep := d.outstanding[:0]
	for _, r := range d.outstanding {
		if r == req {
			continue
		}
		if r.Origin == req.Origin {
			last = false
		}
		keep = append(keep, r)
	}
	d.outstanding = keep

	return last
}

// AbortSearchRequests cancels every outstanding search whose origin is in
// the set and drops it from the outstanding list. Aborted requests never
// invoke their callback.
func (d *Dispatcher) AbortSearchRequests(origins []destination.Origin) {
	d.mu.Lock()

	var abort []*Request
	keep := d.outstanding[:0]
	for _, r := range d.outstanding {
		aborted := false
		for _, origin := range origins {
			if r.Origin == origin {
				aborted = true
				break
			}
		}
		if aborted {
			abort = append(abort, r)
		} else {
			keep = append(keep, r)
		}
	}
	d.outstanding = keep

	d.mu.Unlock()

	for _, r := range abort {
		slog.Debug("aborting search request", "req", r)
		r.cancel()
	}
}

// Outstanding returns the tracked search requests, oldest first.
func (d *Dispatcher) Outstanding() []*Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*Request, len(d.outstanding))
	copy(out, d.outstanding)
	return out
}

func (d *Dispatcher) send(req *Request) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hr, err := http.NewRequestWithContext(req.ctx, req.Method, req.URL.String(), body)
	if err != nil {
		d.sendFailed(req, err)
		return
	}
	hr.Header = req.Headers.Clone()

	client := d.bare
	if req.SendCookies {
		client = d.cookied
	}

	if d.metrics != nil {
		d.metrics.RequestsInFlight.WithLabelValues(string(req.Action), req.Origin.String()).Inc()
	}

	go func() {
		defer req.cancel()

		res, err := client.Do(hr)

		if d.metrics != nil {
			d.metrics.RequestsInFlight.WithLabelValues(string(req.Action), req.Origin.String()).Dec()
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Debug("request aborted", "req", req)
				return
			}
			d.sendFailed(req, err)
			return
		}
		defer util.DeferAndLog(res.Body.Close)

		var result *Envelope
		if res.StatusCode == http.StatusOK {
			if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
				slog.Warn("malformed response body", "req", req, "err", err)
				result = nil
			}
		}

		d.complete(req, res.StatusCode, result)
	}()
}

func (d *Dispatcher) sendFailed(req *Request, err error) {
	switch d.config.Policy {
	case DropSendErrors:
		slog.Error("send failed, dropping request", "req", req, "err", err)
	default:
		slog.Warn("send failed", "req", req, "err", err)
		d.complete(req, 0, nil)
	}
}

func (d *Dispatcher) complete(req *Request, status int, result *Envelope) {
	req.Status = status
	req.Result = result

	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues(string(req.Action), req.Origin.String(), strconv.Itoa(status)).Inc()
	}

	util.Assert(req.Callback != nil, "request callback must not be nil")
	req.Callback(req)
}
