package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/tools"
)

var (
	// ErrVerification matches every failed verification.
	ErrVerification = errors.New("api key verification failed")
	// ErrEmptyKey is reported when no secret was entered.
	ErrEmptyKey = errors.New("please enter an API key")
)

// VerificationError is returned when a secret could not produce a working
// assistant. It matches ErrVerification and its cause.
type VerificationError struct {
	Provider string
	Err      error
}

func (e *VerificationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("verify api key: %v", e.Err)
	}
	return fmt.Sprintf("verify %s api key: %v", e.Provider, e.Err)
}

func (e *VerificationError) Unwrap() []error {
	return []error{ErrVerification, e.Err}
}

// Verifier turns a user secret into a session's assistant handle.
type Verifier struct {
	Factory Factory
	// Probe is consulted after the factory succeeds. Nil skips the check.
	Probe   Prober
	Options Options
}

// NewVerifier returns a Verifier using the default factory and, when
// enabled in cfg, the HTTP credential probe.
func NewVerifier(cfg *config.Config, data tools.MarketData) *Verifier {
	v := &Verifier{
		Factory: New,
		Options: OptionsFromConfig(cfg, data),
	}
	if cfg.VerifyProbe {
		v.Probe = NewHTTPProbe(15 * time.Second)
	}
	return v
}

// Connect builds and checks a handle for secret without touching any
// session. No retry is attempted.
func (v *Verifier) Connect(ctx context.Context, secret string) (handle session.Assistant, err error) {
	provider := v.Options.Provider
	if provider == "" {
		provider = config.ProviderOpenAI
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, &VerificationError{Provider: provider, Err: ErrEmptyKey}
	}

	defer func() {
		if r := recover(); r != nil {
			handle = nil
			err = &VerificationError{Provider: provider, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			logger.Log.WithField("provider", provider).Warnf("api key verification failed: %v", err)
		}
	}()

	opts := v.Options
	opts.Provider = provider
	opts.APIKey = secret

	handle, err = v.Factory(ctx, opts)
	if err != nil {
		return nil, &VerificationError{Provider: provider, Err: err}
	}
	if handle == nil {
		return nil, &VerificationError{Provider: provider, Err: errors.New("no assistant created")}
	}
	if v.Probe != nil {
		if err := v.Probe.Check(ctx, opts); err != nil {
			return nil, &VerificationError{Provider: provider, Err: err}
		}
	}

	logger.Log.WithField("provider", provider).Info("api key verified")
	return handle, nil
}

// Verify runs Connect and records the outcome on sess: the handle on
// success, a cleared session on any failure.
func (v *Verifier) Verify(ctx context.Context, sess *session.Session, secret string) error {
	handle, err := v.Connect(ctx, secret)
	return Record(sess, handle, err)
}

// Record applies a Connect outcome to sess and returns err. A nil handle
// counts as a failed verification.
func Record(sess *session.Session, handle session.Assistant, err error) error {
	if err == nil && handle == nil {
		err = &VerificationError{Err: errors.New("no assistant created")}
	}
	if err != nil {
		sess.Clear()
		return err
	}
	sess.SetVerified(handle)
	return nil
}
