// ABOUTME: Cookie-backed session credential shared by every backend call
// ABOUTME: Tracks validity state; only login, logout, and renewal mutate it

package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// State describes where the session is in its lifecycle.
type State string

const (
	StateValid     State = "valid"
	StateExpired   State = "expired"
	StateRenewing  State = "renewing"
	StateSignedOut State = "signed_out"
)

// Session is an http.CookieJar whose contents can be discarded atomically.
// The generation counter advances on every successful login or renewal so
// callers can tell whether a 401 predates the current credential.
type Session struct {
	mu         sync.RWMutex
	jar        *cookiejar.Jar
	state      State
	generation uint64
}

// NewSession returns an empty, signed-out session.
func NewSession() *Session {
	return &Session{jar: newJar(), state: StateSignedOut}
}

func newJar() *cookiejar.Jar {
	// cookiejar.New never returns a non-nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	return jar.Cookies(u)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Generation identifies the credential currently held.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// markExpired records that the credential from generation was rejected.
// It reports false, leaving the state alone, when that credential has
// already been replaced. It does not downgrade a renewal in flight.
func (s *Session) markExpired(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	if s.state != StateRenewing {
		s.state = StateExpired
	}
	return true
}

// beginRenewal moves to renewing unless generation is already stale.
func (s *Session) beginRenewal(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	s.state = StateRenewing
	return true
}

func (s *Session) renewed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateValid
	s.generation++
}

// Teardown drops every cookie and marks the session signed out.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = newJar()
	s.state = StateSignedOut
}
