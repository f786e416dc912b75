package store

import (
	"testing"

	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/pkg/destination"
	"github.com/printhq/cloudprint/pkg/invitation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloudPrint records calls without performing any I/O; tests drive the
// responses by emitting events themselves.
type fakeCloudPrint struct {
	invites        []string
	processInvites []*invitation.Invitation
}

func (f *fakeCloudPrint) Invites(account string) {
	f.invites = append(f.invites, account)
}

func (f *fakeCloudPrint) ProcessInvite(inv *invitation.Invitation, accept bool) {
	f.processInvites = append(f.processInvites, inv)
}

func newInvitation(id string, account string) *invitation.Invitation {
	return &invitation.Invitation{
		Sender:      "Ada",
		Destination: &destination.Destination{Id: id, Origin: destination.Cookies, Account: account},
		Account:     account,
	}
}

func TestStartLoadingInvitations(t *testing.T) {
	client := &fakeCloudPrint{}
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(client, events)

	var loads []string
	store.OnInvitationsLoaded(func(account string) {
		loads = append(loads, account)
	})

	store.StartLoadingInvitations("user@example.com")
	require.Equal(t, []string{"user@example.com"}, client.invites)

	// a second call while the load is in flight does not refetch
	store.StartLoadingInvitations("user@example.com")
	assert.Len(t, client.invites, 1)

	inv := newInvitation("p1", "user@example.com")
	events.EmitInvitesDone(&cloud.InvitesDone{
		Invitations: []*invitation.Invitation{inv},
		User:        "user@example.com",
	})

	assert.Equal(t, []string{"user@example.com"}, loads)
	assert.Equal(t, []*invitation.Invitation{inv}, store.Invitations("user@example.com"))

	// a finished load is re-announced from the cache
	store.StartLoadingInvitations("user@example.com")
	assert.Len(t, client.invites, 1)
	assert.Equal(t, []string{"user@example.com", "user@example.com"}, loads)
}

func TestStartLoadingInvitationsFailed(t *testing.T) {
	client := &fakeCloudPrint{}
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(client, events)

	store.StartLoadingInvitations("user@example.com")
	events.EmitInvitesFailed(&cloud.InvitesFailed{User: "user@example.com"})

	// failed loads are not retried
	store.StartLoadingInvitations("user@example.com")
	assert.Len(t, client.invites, 1)
}

func TestStartLoadingInvitationsNilClient(t *testing.T) {
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(nil, events)

	store.StartLoadingInvitations("user@example.com")
	assert.Empty(t, store.Invitations("user@example.com"))

	client := &fakeCloudPrint{}
	store.SetClient(client)

	store.StartLoadingInvitations("user@example.com")
	assert.Equal(t, []string{"user@example.com"}, client.invites)
}

func TestProcessInvitation(t *testing.T) {
	client := &fakeCloudPrint{}
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(client, events)

	first := newInvitation("p1", "user@example.com")
	second := newInvitation("p2", "user@example.com")

	events.EmitInvitesDone(&cloud.InvitesDone{
		Invitations: []*invitation.Invitation{first, second},
		User:        "user@example.com",
	})

	var processed []*invitation.Invitation
	store.OnInvitationProcessed(func(inv *invitation.Invitation) {
		processed = append(processed, inv)
	})

	store.ProcessInvitation(first, true)
	require.Equal(t, []*invitation.Invitation{first}, client.processInvites)
	assert.Equal(t, first, store.InvitationInProgress())

	// only one invitation may be in flight
	store.ProcessInvitation(second, true)
	assert.Len(t, client.processInvites, 1)

	events.EmitProcessInviteDone(&cloud.ProcessInviteDone{
		Invitation: first,
		Accept:     true,
		User:       "user@example.com",
	})

	assert.Nil(t, store.InvitationInProgress())
	assert.Equal(t, []*invitation.Invitation{first}, processed)
	assert.Equal(t, []*invitation.Invitation{second}, store.Invitations("user@example.com"))

	// with the first settled the next one may go out
	store.ProcessInvitation(second, false)
	assert.Len(t, client.processInvites, 2)
}

func TestProcessInvitationRemovesRejected(t *testing.T) {
	client := &fakeCloudPrint{}
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(client, events)

	inv := newInvitation("p1", "user@example.com")
	events.EmitInvitesDone(&cloud.InvitesDone{
		Invitations: []*invitation.Invitation{inv},
		User:        "user@example.com",
	})

	store.ProcessInvitation(inv, false)
	events.EmitProcessInviteDone(&cloud.ProcessInviteDone{
		Invitation: inv,
		Accept:     false,
		User:       "user@example.com",
	})

	// rejected invitations leave the pending list too
	assert.Empty(t, store.Invitations("user@example.com"))
}

func TestProcessInvitationRemovesByEquality(t *testing.T) {
	client := &fakeCloudPrint{}
	events := cloud.NewEvents(nil)
	store := NewInvitationStore(client, events)

	cached := newInvitation("p1", "user@example.com")
	events.EmitInvitesDone(&cloud.InvitesDone{
		Invitations: []*invitation.Invitation{cached},
		User:        "user@example.com",
	})

	// a distinct but equal value still removes the cached entry
	events.EmitProcessInviteDone(&cloud.ProcessInviteDone{
		Invitation: newInvitation("p1", "user@example.com"),
		Accept:     true,
		User:       "user@example.com",
	})

	assert.Empty(t, store.Invitations("user@example.com"))
}
