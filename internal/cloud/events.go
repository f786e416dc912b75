package cloud

import (
	"sync"

	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/invitation"
)

// Failure is the payload shared by every *Failed event. ErrorCode and
// Message are zero valued unless the response carried a parsed envelope.
type Failure struct {
	Status    int
	ErrorCode int
	Message   string
	Origin    destination.Origin
	User      string
}

type SearchDone struct {
	Origin     destination.Origin
	Printers   []*destination.Destination
	Recent     bool
	User       string
	SearchDone bool
}

type SearchFailed struct {
	Failure
	SearchDone bool
}

type PrinterDone struct {
	Printer *destination.Destination
}

type PrinterFailed struct {
	Failure
	DestinationId string
}

type SubmitDone struct {
	JobId string
}

type SubmitFailed struct {
	Failure
}

type InvitesDone struct {
	Invitations []*invitation.Invitation
	User        string
}

type InvitesFailed struct {
	Failure
	User string
}

type ProcessInviteDone struct {
	Printer    *destination.Destination // nil unless accepted and parseable
	Invitation *invitation.Invitation
	Accept     bool
	User       string
}

type UpdateUsers struct {
	ActiveUser string
	Users      []string
}

// Events is a listener registry with one callback list per event kind.
// Delivery is at-least-once and unordered across kinds; listeners must not
// assume any sequencing between events of different requests.
type Events struct {
	mu sync.Mutex

	metrics *metrics.Metrics

	searchDone        []func(*SearchDone)
	searchFailed      []func(*SearchFailed)
	printerDone       []func(*PrinterDone)
	printerFailed     []func(*PrinterFailed)
	submitDone        []func(*SubmitDone)
	submitFailed      []func(*SubmitFailed)
	invitesDone       []func(*InvitesDone)
	invitesFailed     []func(*InvitesFailed)
	processInviteDone []func(*ProcessInviteDone)
	updateUsers       []func(*UpdateUsers)
}

func NewEvents(metrics *metrics.Metrics) *Events {
	return &Events{metrics: metrics}
}

func (e *Events) OnSearchDone(f func(*SearchDone)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchDone = append(e.searchDone, f)
}

func (e *Events) OnSearchFailed(f func(*SearchFailed)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchFailed = append(e.searchFailed, f)
}

func (e *Events) OnPrinterDone(f func(*PrinterDone)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.printerDone = append(e.printerDone, f)
}

func (e *Events) OnPrinterFailed(f func(*PrinterFailed)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.printerFailed = append(e.printerFailed, f)
}

func (e *Events) OnSubmitDone(f func(*SubmitDone)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitDone = append(e.submitDone, f)
}

func (e *Events) OnSubmitFailed(f func(*SubmitFailed)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitFailed = append(e.submitFailed, f)
}

func (e *Events) OnInvitesDone(f func(*InvitesDone)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invitesDone = append(e.invitesDone, f)
}

func (e *Events) OnInvitesFailed(f func(*InvitesFailed)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invitesFailed = append(e.invitesFailed, f)
}

func (e *Events) OnProcessInviteDone(f func(*ProcessInviteDone)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processInviteDone = append(e.processInviteDone, f)
}

func (e *Events) OnUpdateUsers(f func(*UpdateUsers)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateUsers = append(e.updateUsers, f)
}

func (e *Events) EmitSearchDone(event *SearchDone) {
	e.count("SEARCH_DONE")
	for _, f := range listeners(e, &e.searchDone) {
		f(event)
	}
}

func (e *Events) EmitSearchFailed(event *SearchFailed) {
	e.count("SEARCH_FAILED")
	for _, f := range listeners(e, &e.searchFailed) {
		f(event)
	}
}

func (e *Events) EmitPrinterDone(event *PrinterDone) {
	e.count("PRINTER_DONE")
	for _, f := range listeners(e, &e.printerDone) {
		f(event)
	}
}

func (e *Events) EmitPrinterFailed(event *PrinterFailed) {
	e.count("PRINTER_FAILED")
	for _, f := range listeners(e, &e.printerFailed) {
		f(event)
	}
}

func (e *Events) EmitSubmitDone(event *SubmitDone) {
	e.count("SUBMIT_DONE")
	for _, f := range listeners(e, &e.submitDone) {
		f(event)
	}
}

func (e *Events) EmitSubmitFailed(event *SubmitFailed) {
	e.count("SUBMIT_FAILED")
	for _, f := range listeners(e, &e.submitFailed) {
		f(event)
	}
}

func (e *Events) EmitInvitesDone(event *InvitesDone) {
	e.count("INVITES_DONE")
	for _, f := range listeners(e, &e.invitesDone) {
		f(event)
	}
}

func (e *Events) EmitInvitesFailed(event *InvitesFailed) {
	e.count("INVITES_FAILED")
	for _, f := range listeners(e, &e.invitesFailed) {
		f(event)
	}
}

func (e *Events) EmitProcessInviteDone(event *ProcessInviteDone) {
	e.count("PROCESS_INVITE_DONE")
	for _, f := range listeners(e, &e.processInviteDone) {
		f(event)
	}
}

func (e *Events) EmitUpdateUsers(event *UpdateUsers) {
	e.count("UPDATE_USERS")
	for _, f := range listeners(e, &e.updateUsers) {
		f(event)
	}
}

func (e *Events) count(kind string) {
	if e.metrics != nil {
		e.metrics.EventsTotal.WithLabelValues(kind).Inc()
	}
}

// listeners snapshots a callback list so emission happens outside the lock.
func listeners[T any](e *Events, list *[]T) []T {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := make([]T, len(*list))
	copy(snapshot, *list)
	return snapshot
}
