// Package custody drives the two self-custody flows: creating a new wallet
// from a fresh recovery phrase, and migrating a user off a custodial
// (server-generated) key. Each flow instance owns its own vault; only public
// keys ever leave it.
package custody

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	"go.uber.org/zap"
)

var (
	ErrRevealFailed    = errors.New("reveal failed")
	ErrUnrecoverable   = errors.New("custodial key cannot be recovered")
	ErrAttachFailed    = errors.New("attach failed")
	ErrConsentRequired = errors.New("reveal requires the exact confirmation sentence")
	ErrClosed          = errors.New("session closed")
	ErrNoBackend       = errors.New("backend not configured")
	ErrBusy            = errors.New("a backend call is already in progress")
)

// Backend is the external service that owns accounts and custodial keys
type Backend interface {
	RevealPrivateKey(ctx context.Context) (string, error)
	AttachPublicKey(ctx context.Context, publicKey string) error
}

// Options tunes a flow. Zero values get defaults.
type Options struct {
	Timeout       time.Duration // per backend call
	SecretTTL     time.Duration // revealed secrets scrub themselves after this
	ChallengeSize int
	Generator     solana.Generator
	Source        confirm.Source
	Logger        *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.ChallengeSize <= 0 {
		o.ChallengeSize = confirm.DefaultSize
	}
	if o.Source == nil {
		o.Source = confirm.CryptoSource()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// session is the state shared by both flows: the state machine, the vault
// holding the one revealed secret, and the in-flight backend call.
type session struct {
	mu      sync.Mutex
	state   State
	opts    Options
	log     *zap.Logger
	backend Backend
	vault   *vault.Vault
	handle  *vault.Handle
	closed  bool
	cancel  context.CancelFunc // set while a backend call is in flight
}

func newSession(initial State, backend Backend, opts Options, name string) session {
	opts = opts.withDefaults()
	log := opts.Logger.Named(name)
	return session{
		state:   initial,
		opts:    opts,
		log:     log,
		backend: backend,
		vault:   vault.New(vault.WithTTL(opts.SecretTTL), vault.WithLogger(log)),
	}
}

// State returns the current state
func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Closed reports whether Close was called
func (s *session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// advance must be called with mu held
func (s *session) advance(to State) error {
	if !s.state.CanTransition(to) {
		return &TransitionError{From: s.state, To: to}
	}
	s.log.Info("state changed", zap.String("from", string(s.state)), zap.String("to", string(to)))
	s.state = to
	return nil
}

// beginCall must be called with mu held. The returned context is cancelled
// by Close.
func (s *session) beginCall(ctx context.Context) (context.Context, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	if s.cancel != nil {
		return nil, ErrBusy
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	s.cancel = cancel
	return ctx, nil
}

// endCall must be called with mu held
func (s *session) endCall() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// secret returns the live handle; mu must be held
func (s *session) secret() (*vault.Handle, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.handle == nil {
		return nil, vault.ErrHandleExpired
	}
	if !s.handle.Live() {
		return nil, vault.ErrHandleExpired
	}
	return s.handle, nil
}

// scrub must be called with mu held
func (s *session) scrub() {
	if s.handle != nil {
		s.handle.Scrub()
	}
	s.vault.Scrub()
}

// Hide destroys the revealed secret now. The flow state does not change.
func (s *session) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrub()
}

// Close scrubs the secret and cancels any in-flight call before returning.
// Safe to call repeatedly.
func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.endCall()
	s.scrub()
	s.log.Debug("session closed", zap.String("state", string(s.state)))
}
