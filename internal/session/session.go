// Package session holds the per-user verification state of the dashboard.
//
// A Session is owned by a single shell and mutated from one event handler at
// a time, so it carries no lock. Two simultaneous events mutating the same
// session are not supported.
package session

import (
	"context"
	"errors"
)

// ErrNoAssistant is returned by an Assistant whose handle holds no client,
// such as a typed nil pointer stored in the interface.
var ErrNoAssistant = errors.New("assistant handle is empty")

// Assistant is the verified remote assistant handle kept by a session.
// Implementations return ErrNoAssistant from Run, without any remote call,
// when the receiver is nil.
type Assistant interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Session is created Unverified with no handle and discarded when the shell
// exits. Nothing is persisted.
type Session struct {
	verified  bool
	assistant Assistant
}

func New() *Session {
	return &Session{}
}

// SetVerified binds handle and marks the session verified. A nil handle
// leaves the session cleared.
func (s *Session) SetVerified(handle Assistant) {
	if handle == nil {
		s.Clear()
		return
	}
	s.assistant = handle
	s.verified = true
}

// Clear drops the handle and the verified flag.
func (s *Session) Clear() {
	s.assistant = nil
	s.verified = false
}

func (s *Session) Verified() bool {
	return s != nil && s.verified
}

// Assistant returns the bound handle, or nil when unverified.
func (s *Session) Assistant() Assistant {
	if s == nil {
		return nil
	}
	return s.assistant
}

// State names the session's position in the verification state machine.
func (s *Session) State() State {
	if s.Verified() {
		return StateVerified
	}
	return StateUnverified
}

type State int

const (
	StateUnverified State = iota
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}
