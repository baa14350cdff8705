package vault

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle is the only reference to a revealed secret.
// Reads never extend its lifetime.
type Handle struct {
	vault      *Vault
	kind       Kind
	revealedAt time.Time

	mu      sync.Mutex
	timer   *time.Timer
	secret  []byte
	expired bool
}

// Kind returns what the handle holds
func (h *Handle) Kind() Kind {
	return h.kind
}

// Live reports whether the handle has not been scrubbed yet
func (h *Handle) Live() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.expired
}

// Read returns the secret for display, copy or download.
// Go strings cannot be zeroed, so the returned value is a residual copy the
// caller must drop as soon as it is rendered.
func (h *Handle) Read() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.expired {
		return "", ErrHandleExpired
	}
	return string(h.secret), nil
}

// Use lends the secret bytes to fn without copying them.
// fn must not retain the slice.
func (h *Handle) Use(fn func(secret []byte) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.expired {
		return ErrHandleExpired
	}
	return fn(h.secret)
}

// Scrub zeroes the secret and invalidates the handle. Idempotent.
func (h *Handle) Scrub() {
	h.mu.Lock()
	if h.expired {
		h.mu.Unlock()
		return
	}
	clear(h.secret)
	h.secret = nil
	h.expired = true
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()

	if h.vault != nil {
		h.vault.release(h)
		h.vault.log.Debug("secret scrubbed",
			zap.String("kind", string(h.kind)),
			zap.Duration("held", time.Since(h.revealedAt)))
	}
}
