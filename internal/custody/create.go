package custody

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/self-custody/internal/common"
	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Creation is the create-wallet flow: generate a phrase, prove it was
// written down, then register only the derived public key.
type Creation struct {
	session
	challenge confirm.Challenge
	publicKey solanago.PublicKey
}

// NewCreation returns a flow in pending_reveal. backend may be nil when the
// wallet is only created locally; Attach then fails with ErrNoBackend.
func NewCreation(backend Backend, opts Options) *Creation {
	return &Creation{session: newSession(StatePendingReveal, backend, opts, "create")}
}

// Generate creates the recovery phrase and its confirmation challenge
func (c *Creation) Generate() (*vault.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.state != StatePendingReveal {
		return nil, stateError("generate", c.state)
	}
	h, err := c.generate()
	if err != nil {
		return nil, err
	}
	if err := c.advance(StateRevealedUnconfirmed); err != nil {
		c.scrub()
		return nil, err
	}
	return h, nil
}

// Restart throws the current phrase away and generates a new one.
// Only allowed before the phrase is confirmed.
func (c *Creation) Restart() (*vault.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.state != StateRevealedUnconfirmed {
		return nil, stateError("restart", c.state)
	}
	c.scrub()
	c.log.Info("phrase discarded, generating a new one")
	return c.generate()
}

// generate must be called with mu held and nothing live in the vault
func (c *Creation) generate() (*vault.Handle, error) {
	phrase, err := c.opts.Generator.Generate()
	if err != nil {
		c.log.Error("phrase generation failed", zap.Error(err))
		return nil, err
	}
	ch, err := confirm.NewChallenge(solana.MnemonicWords, c.opts.ChallengeSize, c.opts.Source)
	if err != nil {
		return nil, err
	}
	h, err := c.vault.Reveal(vault.KindMnemonic, []byte(phrase))
	if err != nil {
		return nil, err
	}
	c.handle = h
	c.challenge = ch
	return h, nil
}

// Phrase returns the live phrase handle
func (c *Creation) Phrase() (*vault.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secret()
}

// Challenge returns the positions the user has to re-enter
func (c *Creation) Challenge() (confirm.Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRevealedUnconfirmed {
		return confirm.Challenge{}, stateError("challenge", c.state)
	}
	return c.challenge, nil
}

// PublicKey is the derived address, zero until the phrase is confirmed
func (c *Creation) PublicKey() solanago.PublicKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publicKey
}

// Confirm runs the confirmation gate against the live phrase. On success the
// public key is derived and the flow moves to confirmed. A mismatch keeps the
// same phrase and challenge so the user can try again.
func (c *Creation) Confirm(ack confirm.Acknowledgements, answers map[int]string) (solanago.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return solanago.PublicKey{}, ErrClosed
	}
	if c.state != StateRevealedUnconfirmed {
		return solanago.PublicKey{}, stateError("confirm", c.state)
	}
	h, err := c.secret()
	if err != nil {
		return solanago.PublicKey{}, err
	}

	var pub solanago.PublicKey
	err = h.Use(func(phrase []byte) error {
		if err := confirm.Pass(ack, c.challenge, common.Words(phrase), answers); err != nil {
			return err
		}
		var derr error
		pub, derr = solana.DerivePublicKey(string(phrase))
		return derr
	})
	if err != nil {
		return solanago.PublicKey{}, err
	}

	if err := c.advance(StateConfirmed); err != nil {
		return solanago.PublicKey{}, err
	}
	c.publicKey = pub
	c.log.Info("phrase confirmed", zap.String("address", common.ShortAddress(pub.String())))
	return pub, nil
}

// Attach registers the confirmed public key with the backend.
// Failure keeps the flow in confirmed; success scrubs the phrase.
func (c *Creation) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateConfirmed {
		s := c.state
		c.mu.Unlock()
		return stateError("attach", s)
	}
	pub := c.publicKey
	callCtx, err := c.beginCall(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	err = c.backend.AttachPublicKey(callCtx, pub.String())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endCall()

	if err != nil {
		c.log.Warn("attach failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAttachFailed, err)
	}
	if c.closed {
		return ErrClosed
	}
	if err := c.advance(StateAttached); err != nil {
		return err
	}
	c.scrub()
	c.log.Info("new wallet attached", zap.String("address", common.ShortAddress(pub.String())))
	return nil
}

// Backup encrypts the live phrase for download. The header address is
// derived from the phrase so a backup taken before confirmation is still labelled.
func (c *Creation) Backup(password []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, err := c.secret()
	if err != nil {
		return nil, err
	}
	address := c.publicKey
	if address.IsZero() {
		err = h.Use(func(phrase []byte) error {
			var derr error
			address, derr = solana.DerivePublicKey(string(phrase))
			return derr
		})
		if err != nil {
			return nil, err
		}
	}
	return backupSecret(h, address.String(), password)
}
