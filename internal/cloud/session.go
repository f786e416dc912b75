package cloud

import (
	"sync"
)

// Session owns the per-account XSRF tokens, session indices, and the known
// user list. It is shared by the builder (reads) and the router (writes);
// a request carries the token value read at build time, not at send time.
type Session struct {
	mu sync.Mutex

	xsrfTokens   map[string]string
	sessionIndex map[string]int
	users        []string
}

func NewSession() *Session {
	return &Session{
		xsrfTokens:   map[string]string{},
		sessionIndex: map[string]int{},
	}
}

// XSRFToken returns the stored token for the account, or the empty string
// when no token is known yet.
func (s *Session) XSRFToken(account string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.xsrfTokens[account]
}

// SetXSRFToken replaces the token for the account. Called on every
// successful cookie-authenticated response that reports one.
func (s *Session) SetXSRFToken(account string, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.xsrfTokens[account] = token
}

// SessionIndex returns the account's session index, zero when unknown.
func (s *Session) SessionIndex(account string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionIndex[account]
}

// SetUsers replaces the known user list and rebuilds the session index map
// from each user's position in the list.
func (s *Session) SetUsers(users []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = users
	s.sessionIndex = make(map[string]int, len(users))
	for i, user := range users {
		s.sessionIndex[user] = i
	}
}

func (s *Session) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, len(s.users))
	copy(users, s.users)
	return users
}
