package custody

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/self-custody/internal/client"
	"github.com/AlexZinkM/self-custody/internal/common"
	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// RevealPhrase must be typed verbatim before the custodial key is requested
const RevealPhrase = "I understand the risks"

// Migration moves one account from its custodial key to a self-custody key:
// reveal (with consent) -> confirm (saved + imported) -> attach new public key.
type Migration struct {
	session
	legacyAddress solanago.PublicKey
	attached      solanago.PublicKey
}

// NewMigration starts a migration. Accounts without a custodial key, or
// already migrated, start (and stay) in not_required.
func NewMigration(hasCustodialKey bool, backend Backend, opts Options) *Migration {
	initial := StatePendingReveal
	if !hasCustodialKey {
		initial = StateNotRequired
	}
	return &Migration{session: newSession(initial, backend, opts, "migration")}
}

// RequestReveal asks the backend for the decrypted custodial key.
// A server fault moves the flow to unrecoverable for good; any other failure
// (network, auth, timeout) leaves it in pending_reveal so the user can retry.
func (m *Migration) RequestReveal(ctx context.Context, sentence string) (*vault.Handle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	switch m.state {
	case StatePendingReveal:
	case StateUnrecoverable:
		m.mu.Unlock()
		return nil, ErrUnrecoverable
	default:
		s := m.state
		m.mu.Unlock()
		return nil, stateError("reveal", s)
	}
	if sentence != RevealPhrase {
		m.mu.Unlock()
		return nil, ErrConsentRequired
	}
	callCtx, err := m.beginCall(ctx)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	encoded, err := m.backend.RevealPrivateKey(callCtx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.endCall()

	if m.closed {
		return nil, ErrClosed
	}
	if err != nil {
		if client.IsServerFault(err) {
			_ = m.advance(StateUnrecoverable)
			m.log.Error("custodial key reveal failed on server", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
		}
		m.log.Warn("custodial key reveal failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRevealFailed, err)
	}

	key, err := solana.ParsePrivateKey(encoded)
	if err != nil {
		_ = m.advance(StateUnrecoverable)
		m.log.Error("backend returned an unusable custodial key", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	m.legacyAddress = key.PublicKey()
	clear(key)

	h, err := m.vault.Reveal(vault.KindLegacyPrivateKey, []byte(encoded))
	if err != nil {
		return nil, err
	}
	m.handle = h

	if err := m.advance(StateRevealedUnconfirmed); err != nil {
		m.scrub()
		return nil, err
	}
	m.log.Info("custodial key revealed", zap.String("legacy_address", common.ShortAddress(m.legacyAddress.String())))
	return h, nil
}

// Secret returns the revealed custodial key handle while it is live
func (m *Migration) Secret() (*vault.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRevealedUnconfirmed && m.state != StateConfirmed {
		return nil, stateError("read secret", m.state)
	}
	return m.secret()
}

// LegacyAddress is the custodial wallet address, known after a successful reveal
func (m *Migration) LegacyAddress() solanago.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.legacyAddress
}

// AttachedKey is the self-custody key of record once attached
func (m *Migration) AttachedKey() solanago.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// Confirm records that the user saved the key and imported it into their own wallet
func (m *Migration) Confirm(ack confirm.ImportAcknowledgements) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.state != StateRevealedUnconfirmed {
		return stateError("confirm", m.state)
	}
	if err := ack.Check(); err != nil {
		return err
	}
	return m.advance(StateConfirmed)
}

// Attach registers the self-custody public key with the backend.
// Failure keeps the flow in confirmed; success scrubs the revealed key.
func (m *Migration) Attach(ctx context.Context, publicKey solanago.PublicKey) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != StateConfirmed {
		s := m.state
		m.mu.Unlock()
		return stateError("attach", s)
	}
	if publicKey.IsZero() {
		m.mu.Unlock()
		return fmt.Errorf("%w: empty public key", ErrAttachFailed)
	}
	callCtx, err := m.beginCall(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	err = m.backend.AttachPublicKey(callCtx, publicKey.String())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.endCall()

	if err != nil {
		m.log.Warn("attach failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAttachFailed, err)
	}
	if m.closed {
		// the backend accepted the key; the flow was torn down meanwhile
		m.log.Info("public key attached after session close", zap.String("address", common.ShortAddress(publicKey.String())))
		return ErrClosed
	}

	if err := m.advance(StateAttached); err != nil {
		return err
	}
	m.attached = publicKey
	m.scrub()
	m.log.Info("self-custody key attached", zap.String("address", common.ShortAddress(publicKey.String())))
	return nil
}

// Backup encrypts the revealed custodial key for download
func (m *Migration) Backup(password []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, err := m.secret()
	if err != nil {
		return nil, err
	}
	return backupSecret(h, m.legacyAddress.String(), password)
}
