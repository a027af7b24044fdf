package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
)

// FailureKind classifies a DispatchError.
type FailureKind int

const (
	// Unbound: no verified assistant was available.
	Unbound FailureKind = iota
	// RemoteFailure: the assistant call failed.
	RemoteFailure
)

func (k FailureKind) String() string {
	if k == Unbound {
		return "unbound"
	}
	return "remote failure"
}

var (
	ErrUnbound       = errors.New("no verified assistant; verify an API key first")
	ErrRemoteFailure = errors.New("analysis request failed")
)

type DispatchError struct {
	Kind FailureKind
	Err  error
}

func (e *DispatchError) Error() string {
	if e.Kind == Unbound {
		return ErrUnbound.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRemoteFailure, e.Err)
}

func (e *DispatchError) Unwrap() []error {
	if e.Kind == Unbound {
		return []error{ErrUnbound}
	}
	return []error{ErrRemoteFailure, e.Err}
}

// Dispatch sends query to handle and returns its text unchanged. It adds no
// timeout or retry; ctx is passed through as is. A nil handle, or one whose
// Run reports session.ErrNoAssistant, is Unbound.
func Dispatch(ctx context.Context, handle session.Assistant, query string) (out string, err error) {
	if handle == nil {
		return "", &DispatchError{Kind: Unbound}
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = &DispatchError{Kind: RemoteFailure, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			logger.Log.Warnf("analysis failed: %v", err)
		}
	}()

	start := time.Now()
	text, runErr := handle.Run(ctx, query)
	if errors.Is(runErr, session.ErrNoAssistant) {
		return "", &DispatchError{Kind: Unbound}
	}
	if runErr != nil {
		return "", &DispatchError{Kind: RemoteFailure, Err: runErr}
	}
	logger.Log.Infof("analysis returned %d bytes in %s", len(text), time.Since(start).Round(time.Millisecond))
	return text, nil
}

// Gate returns the session's handle, or an Unbound error when the session is
// not verified.
func Gate(sess *session.Session) (session.Assistant, error) {
	if !sess.Verified() || sess.Assistant() == nil {
		return nil, &DispatchError{Kind: Unbound}
	}
	return sess.Assistant(), nil
}

// Run gates on sess and dispatches r. The session is never modified.
func Run(ctx context.Context, sess *session.Session, r Request) (string, error) {
	handle, err := Gate(sess)
	if err != nil {
		return "", err
	}
	query, err := r.Query()
	if err != nil {
		return "", err
	}
	return Dispatch(ctx, handle, query)
}
