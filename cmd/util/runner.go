package util

import (
	"fmt"
	"time"

	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/pkg/destination"
)

// SearchRunner issues searches and blocks until every origin has reported
// its final outcome. It subscribes once and may run repeatedly.
type SearchRunner struct {
	client   *cloud.Client
	results  chan *cloud.SearchDone
	failures chan *cloud.SearchFailed
}

func NewSearchRunner(client *cloud.Client) *SearchRunner {
	r := &SearchRunner{
		client:   client,
		results:  make(chan *cloud.SearchDone, 8),
		failures: make(chan *cloud.SearchFailed, 8),
	}

	client.Events().OnSearchDone(func(event *cloud.SearchDone) {
		r.results <- event
	})
	client.Events().OnSearchFailed(func(event *cloud.SearchFailed) {
		r.failures <- event
	})

	return r
}

// Run starts a search and waits for the final search event of every
// enabled origin. Per-origin failures are collected, not fatal mid-run.
func (r *SearchRunner) Run(account string, query string, timeout time.Duration) error {
	remaining := map[destination.Origin]bool{}
	for _, origin := range r.client.SearchOrigins() {
		remaining[origin] = true
	}

	r.client.Search(account, query)

	deadline := time.After(timeout)
	var errs []error

	for len(remaining) > 0 {
		select {
		case event := <-r.results:
			if event.SearchDone {
				delete(remaining, event.Origin)
			}
		case event := <-r.failures:
			if event.SearchDone {
				delete(remaining, event.Origin)
				errs = append(errs, fmt.Errorf("search failed for origin %s: status=%d code=%d %s", event.Origin, event.Status, event.ErrorCode, event.Message))
			}
		case <-deadline:
			return fmt.Errorf("search timed out after %s", timeout)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("search completed with failures: %v", errs)
	}

	return nil
}
