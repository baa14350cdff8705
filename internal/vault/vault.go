// Package vault holds revealed secret material (recovery phrases, private keys)
// for the lifetime of a single reveal session.
//
// A Vault owns at most one live Handle. The Handle owns the secret bytes and
// zeroes them on Scrub, which runs on every exit path: explicit hide, close,
// completed attach, TTL expiry, or the end of a Hold scope.
package vault

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSecretLive is returned by Reveal while another handle is still live
	ErrSecretLive = errors.New("a secret is already revealed")
	// ErrHandleExpired is returned by any read after Scrub
	ErrHandleExpired = errors.New("secret handle expired")
	// ErrEmptySecret is returned by Reveal for zero-length input
	ErrEmptySecret = errors.New("secret is empty")
)

// Kind labels what a handle holds. It is safe to log.
type Kind string

const (
	KindMnemonic         Kind = "mnemonic"
	KindPrivateKey       Kind = "private_key"
	KindLegacyPrivateKey Kind = "legacy_private_key"
)

// Option configures a Vault
type Option func(*Vault)

// WithTTL scrubs a revealed secret after d even if nobody closes it. Zero disables.
func WithTTL(d time.Duration) Option {
	return func(v *Vault) { v.ttl = d }
}

// WithLogger sets the logger used for lifecycle events (kinds only, never values)
func WithLogger(l *zap.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.log = l
		}
	}
}

// Vault is a single-owner container for one revealed secret at a time
type Vault struct {
	mu   sync.Mutex
	live *Handle
	ttl  time.Duration
	log  *zap.Logger
}

// New creates an empty vault
func New(opts ...Option) *Vault {
	v := &Vault{log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Reveal moves secret into the vault and returns the handle that owns it.
// The vault takes ownership of the slice: the caller must not keep, copy or
// reuse it. On error the slice is zeroed as well.
func (v *Vault) Reveal(kind Kind, secret []byte) (*Handle, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.live != nil && v.live.Live() {
		clear(secret)
		return nil, ErrSecretLive
	}

	h := &Handle{vault: v, kind: kind, secret: secret, revealedAt: time.Now()}
	if v.ttl > 0 {
		// the callback may fire before AfterFunc returns; Scrub reads timer under h.mu
		h.mu.Lock()
		h.timer = time.AfterFunc(v.ttl, func() {
			v.log.Info("secret lifetime elapsed, scrubbing", zap.String("kind", string(kind)))
			h.Scrub()
		})
		h.mu.Unlock()
	}
	v.live = h

	v.log.Debug("secret revealed", zap.String("kind", string(kind)))
	return h, nil
}

// Hold reveals secret for the duration of fn and scrubs it when fn returns,
// whether by error, success or panic.
func (v *Vault) Hold(kind Kind, secret []byte, fn func(*Handle) error) error {
	h, err := v.Reveal(kind, secret)
	if err != nil {
		return err
	}
	defer h.Scrub()
	return fn(h)
}

// Live reports whether a secret is currently revealed
func (v *Vault) Live() bool {
	v.mu.Lock()
	h := v.live
	v.mu.Unlock()
	return h != nil && h.Live()
}

// Scrub destroys the live secret, if any. Safe to call repeatedly.
func (v *Vault) Scrub() {
	v.mu.Lock()
	h := v.live
	v.mu.Unlock()
	if h != nil {
		h.Scrub()
	}
}

// release drops the vault's reference once h has been scrubbed
func (v *Vault) release(h *Handle) {
	v.mu.Lock()
	if v.live == h {
		v.live = nil
	}
	v.mu.Unlock()
}
