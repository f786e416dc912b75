// Package store holds the client-side caches fed by the orchestrator's
// events: destinations, invitations, and the persistent recent list.
package store

import (
	"log/slog"
	"sync"

	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/pkg/invitation"
)

// CloudPrint is the slice of the orchestrator the stores call back into.
type CloudPrint interface {
	Invites(account string)
	ProcessInvite(inv *invitation.Invitation, accept bool)
}

type LoadStatus int

const (
	LoadInProgress LoadStatus = iota + 1
	LoadDone
	LoadFailed
)

// InvitationStore caches pending invitations per account. At most one
// invitation may be processed at a time across the whole store.
type InvitationStore struct {
	mu sync.Mutex

	client      CloudPrint
	invitations map[string][]*invitation.Invitation
	status      map[string]LoadStatus
	inProgress  *invitation.Invitation

	loaded    []func(account string)
	processed []func(inv *invitation.Invitation)
}

// NewInvitationStore subscribes to the event registry. A nil client makes
// every load a no-op until SetClient is called.
func NewInvitationStore(client CloudPrint, events *cloud.Events) *InvitationStore {
	s := &InvitationStore{
		client:      client,
		invitations: map[string][]*invitation.Invitation{},
		status:      map[string]LoadStatus{},
	}

	events.OnInvitesDone(s.onInvitesDone)
	events.OnInvitesFailed(s.onInvitesFailed)
	events.OnProcessInviteDone(s.onProcessInviteDone)

	return s
}

func (s *InvitationStore) SetClient(client CloudPrint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// Invitations returns the cached invitations for the account.
func (s *InvitationStore) Invitations(account string) []*invitation.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()

	invitations := make([]*invitation.Invitation, len(s.invitations[account]))
	copy(invitations, s.invitations[account])
	return invitations
}

// InvitationInProgress returns the invitation currently being processed,
// or nil.
func (s *InvitationStore) InvitationInProgress() *invitation.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

// StartLoadingInvitations fetches the account's invitations once. A DONE
// load is re-announced without refetching; IN_PROGRESS and FAILED loads
// are left alone.
func (s *InvitationStore) StartLoadingInvitations(account string) {
	s.mu.Lock()

	if s.client == nil {
		s.mu.Unlock()
		return
	}

	switch s.status[account] {
	case LoadDone:
		s.mu.Unlock()
		s.announceLoaded(account)
		return
	case LoadInProgress:
		s.mu.Unlock()
		return
	case LoadFailed:
		slog.Debug("invitation load previously failed, not retrying", "account", account)
		s.mu.Unlock()
		return
	}

	s.status[account] = LoadInProgress
	client := s.client
	s.mu.Unlock()

	client.Invites(account)
}

// ProcessInvitation accepts or rejects an invitation. A call while another
// invitation is still being processed is a no-op.
func (s *InvitationStore) ProcessInvitation(inv *invitation.Invitation, accept bool) {
	s.mu.Lock()

	if s.client == nil || s.inProgress != nil {
		s.mu.Unlock()
		return
	}

	s.inProgress = inv
	client := s.client
	s.mu.Unlock()

	client.ProcessInvite(inv, accept)
}

// OnInvitationsLoaded registers a callback fired whenever an account's
// invitation list has been (re-)announced.
func (s *InvitationStore) OnInvitationsLoaded(f func(account string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = append(s.loaded, f)
}

// OnInvitationProcessed registers a callback fired once an invitation has
// been settled and removed.
func (s *InvitationStore) OnInvitationProcessed(f func(inv *invitation.Invitation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, f)
}

func (s *InvitationStore) onInvitesDone(event *cloud.InvitesDone) {
	s.mu.Lock()
	s.status[event.User] = LoadDone
	s.invitations[event.User] = event.Invitations
	s.mu.Unlock()

	s.announceLoaded(event.User)
}

func (s *InvitationStore) onInvitesFailed(event *cloud.InvitesFailed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[event.User] = LoadFailed
}

func (s *InvitationStore) onProcessInviteDone(event *cloud.ProcessInviteDone) {
	inv := event.Invitation

	s.mu.Lock()

	// A settled invitation is no longer pending, accepted or not.
	kept := s.invitations[inv.Account][:0]
	for _, candidate := range s.invitations[inv.Account] {
		if candidate == inv || candidate.Equals(inv) {
			continue
		}
		kept = append(kept, candidate)
	}
	s.invitations[inv.Account] = kept

	s.inProgress = nil

	processed := make([]func(*invitation.Invitation), len(s.processed))
	copy(processed, s.processed)
	s.mu.Unlock()

	for _, f := range processed {
		f(inv)
	}
}

func (s *InvitationStore) announceLoaded(account string) {
	s.mu.Lock()
	loaded := make([]func(string), len(s.loaded))
	copy(loaded, s.loaded)
	s.mu.Unlock()

	for _, f := range loaded {
		f(account)
	}
}
