package custody

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/self-custody/internal/client"
	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legalWinner = "legal winner thank year wave sausage worth useful legal winner thank yellow"

var allAcks = confirm.Acknowledgements{CannotRecover: true, NeverShare: true, SavedSecurely: true}

type fakeBackend struct {
	mu         sync.Mutex
	key        string
	revealErr  error
	attachErr  error
	block      bool
	started    chan struct{}
	reveals    atomic.Int32
	attaches   atomic.Int32
	attachedTo string
}

func (f *fakeBackend) RevealPrivateKey(ctx context.Context) (string, error) {
	f.reveals.Add(1)
	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.revealErr != nil {
		return "", f.revealErr
	}
	return f.key, nil
}

func (f *fakeBackend) AttachPublicKey(ctx context.Context, publicKey string) error {
	f.attaches.Add(1)
	if f.attachErr != nil {
		return f.attachErr
	}
	f.mu.Lock()
	f.attachedTo = publicKey
	f.mu.Unlock()
	return nil
}

// seqSource yields fixed draws so the challenge is predictable
type seqSource struct {
	vals []int
	pos  int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.pos%len(s.vals)] % n
	s.pos++
	return v
}

// draws 2, 6, 8 select indices {2, 7, 10} from 12 words
func fixedChallenge() *seqSource { return &seqSource{vals: []int{2, 6, 8}} }

func fixedOpts() Options {
	return Options{
		Generator: solana.Generator{Entropy: bytes.NewReader(bytes.Repeat([]byte{0x7f}, 16))},
		Source:    fixedChallenge(),
	}
}

func newLegacyKey(t *testing.T) (string, solanago.PublicKey) {
	t.Helper()
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.String(), key.PublicKey()
}

func TestState_ForwardOnly(t *testing.T) {
	assert.True(t, StatePendingReveal.CanTransition(StateRevealedUnconfirmed))
	assert.True(t, StatePendingReveal.CanTransition(StateUnrecoverable))
	assert.True(t, StateRevealedUnconfirmed.CanTransition(StateConfirmed))
	assert.True(t, StateConfirmed.CanTransition(StateAttached))

	assert.False(t, StateConfirmed.CanTransition(StateRevealedUnconfirmed))
	assert.False(t, StateRevealedUnconfirmed.CanTransition(StatePendingReveal))
	assert.False(t, StatePendingReveal.CanTransition(StateAttached))

	all := []State{StateNotRequired, StatePendingReveal, StateRevealedUnconfirmed,
		StateConfirmed, StateAttached, StateUnrecoverable}
	for _, terminal := range []State{StateNotRequired, StateAttached, StateUnrecoverable} {
		assert.True(t, terminal.Terminal(), terminal)
		for _, to := range all {
			assert.False(t, terminal.CanTransition(to), "%s -> %s", terminal, to)
		}
	}
	assert.False(t, State("bogus").Valid())
}

func TestCreation_HappyPath(t *testing.T) {
	backend := &fakeBackend{}
	c := NewCreation(backend, fixedOpts())
	assert.Equal(t, StatePendingReveal, c.State())

	h, err := c.Generate()
	require.NoError(t, err)
	phrase, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, legalWinner, phrase)
	assert.Equal(t, StateRevealedUnconfirmed, c.State())

	ch, err := c.Challenge()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7, 10}, ch.Indices)

	words := strings.Fields(legalWinner)
	pub, err := c.Confirm(allAcks, map[int]string{2: words[2], 7: " " + words[7] + " ", 10: words[10]})
	require.NoError(t, err)
	want, err := solana.DerivePublicKey(legalWinner)
	require.NoError(t, err)
	assert.Equal(t, want, pub)
	assert.Equal(t, StateConfirmed, c.State())

	require.NoError(t, c.Attach(context.Background()))
	assert.Equal(t, StateAttached, c.State())
	assert.Equal(t, want.String(), backend.attachedTo)

	_, err = h.Read()
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
	_, err = c.Phrase()
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
}

func TestCreation_TypoAtLastChallengedWordFails(t *testing.T) {
	c := NewCreation(nil, fixedOpts())
	_, err := c.Generate()
	require.NoError(t, err)

	words := strings.Fields(legalWinner)
	_, err = c.Confirm(allAcks, map[int]string{2: words[2], 7: words[7], 10: "thnak"})
	assert.ErrorIs(t, err, confirm.ErrConfirmationMismatch)
	assert.Equal(t, StateRevealedUnconfirmed, c.State())

	// same phrase and challenge survive for the retry
	h, err := c.Phrase()
	require.NoError(t, err)
	phrase, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, legalWinner, phrase)

	_, err = c.Confirm(allAcks, map[int]string{2: words[2], 7: words[7], 10: words[10]})
	assert.NoError(t, err)
}

func TestCreation_AcknowledgementsRequired(t *testing.T) {
	c := NewCreation(nil, fixedOpts())
	_, err := c.Generate()
	require.NoError(t, err)

	words := strings.Fields(legalWinner)
	_, err = c.Confirm(confirm.Acknowledgements{CannotRecover: true}, map[int]string{2: words[2], 7: words[7], 10: words[10]})
	assert.ErrorIs(t, err, confirm.ErrAcknowledgementRequired)
	assert.Equal(t, StateRevealedUnconfirmed, c.State())
}

func TestCreation_CloseScrubsAndReopenIsFresh(t *testing.T) {
	first := NewCreation(nil, Options{})
	h, err := first.Generate()
	require.NoError(t, err)
	phrase1, err := h.Read()
	require.NoError(t, err)

	first.Close()
	assert.False(t, h.Live())
	_, err = h.Read()
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
	_, err = first.Phrase()
	assert.ErrorIs(t, err, ErrClosed)
	first.Close()

	second := NewCreation(nil, Options{})
	h2, err := second.Generate()
	require.NoError(t, err)
	phrase2, err := h2.Read()
	require.NoError(t, err)
	assert.NotEqual(t, phrase1, phrase2)
	assert.True(t, solana.ChecksumValid(phrase2))
}

func TestCreation_Restart(t *testing.T) {
	c := NewCreation(nil, Options{})
	h1, err := c.Generate()
	require.NoError(t, err)
	p1, _ := h1.Read()

	h2, err := c.Restart()
	require.NoError(t, err)
	assert.False(t, h1.Live())
	p2, err := h2.Read()
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, StateRevealedUnconfirmed, c.State())
}

func TestCreation_OutOfOrderCalls(t *testing.T) {
	c := NewCreation(&fakeBackend{}, fixedOpts())

	_, err := c.Restart()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, c.Attach(context.Background()), ErrInvalidState)
	_, err = c.Confirm(allAcks, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.Generate()
	require.NoError(t, err)
	_, err = c.Generate()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, c.Attach(context.Background()), ErrInvalidState)
}

func TestCreation_EntropyUnavailable(t *testing.T) {
	c := NewCreation(nil, Options{Generator: solana.Generator{Entropy: bytes.NewReader(nil)}})
	_, err := c.Generate()
	assert.ErrorIs(t, err, solana.ErrEntropyUnavailable)
	assert.Equal(t, StatePendingReveal, c.State())
}

func TestCreation_AttachFailureStaysConfirmed(t *testing.T) {
	backend := &fakeBackend{attachErr: client.ErrNetworkFailure}
	c := NewCreation(backend, fixedOpts())
	_, err := c.Generate()
	require.NoError(t, err)
	words := strings.Fields(legalWinner)
	_, err = c.Confirm(allAcks, map[int]string{2: words[2], 7: words[7], 10: words[10]})
	require.NoError(t, err)

	err = c.Attach(context.Background())
	assert.ErrorIs(t, err, ErrAttachFailed)
	assert.ErrorIs(t, err, client.ErrNetworkFailure)
	assert.Equal(t, StateConfirmed, c.State())

	// phrase is still available for backup while attach is retried
	_, err = c.Phrase()
	assert.NoError(t, err)

	backend.attachErr = nil
	require.NoError(t, c.Attach(context.Background()))
	assert.Equal(t, StateAttached, c.State())
}

func TestCreation_AttachWithoutBackend(t *testing.T) {
	c := NewCreation(nil, fixedOpts())
	_, err := c.Generate()
	require.NoError(t, err)
	words := strings.Fields(legalWinner)
	_, err = c.Confirm(allAcks, map[int]string{2: words[2], 7: words[7], 10: words[10]})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Attach(context.Background()), ErrNoBackend)
	assert.Equal(t, StateConfirmed, c.State())
}

func TestCreation_SecretTTL(t *testing.T) {
	opts := fixedOpts()
	opts.SecretTTL = 20 * time.Millisecond
	c := NewCreation(nil, opts)
	h, err := c.Generate()
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !h.Live() }, time.Second, 5*time.Millisecond)
	_, err = c.Phrase()
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
	_, err = c.Confirm(allAcks, nil)
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
}

func TestMigration_NotRequired(t *testing.T) {
	backend := &fakeBackend{}
	m := NewMigration(false, backend, Options{})
	assert.Equal(t, StateNotRequired, m.State())

	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, backend.reveals.Load())
}

func TestMigration_HappyPath(t *testing.T) {
	encoded, legacy := newLegacyKey(t)
	backend := &fakeBackend{key: encoded}
	m := NewMigration(true, backend, Options{})

	h, err := m.RequestReveal(context.Background(), RevealPhrase)
	require.NoError(t, err)
	assert.Equal(t, vault.KindLegacyPrivateKey, h.Kind())
	secret, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, encoded, secret)
	assert.Equal(t, legacy, m.LegacyAddress())
	assert.Equal(t, StateRevealedUnconfirmed, m.State())

	err = m.Confirm(confirm.ImportAcknowledgements{SavedSecurely: true})
	assert.ErrorIs(t, err, confirm.ErrAcknowledgementRequired)
	require.NoError(t, m.Confirm(confirm.ImportAcknowledgements{SavedSecurely: true, ImportedToWallet: true}))
	assert.Equal(t, StateConfirmed, m.State())

	newKey, err := solana.DerivePublicKey(legalWinner)
	require.NoError(t, err)
	require.NoError(t, m.Attach(context.Background(), newKey))
	assert.Equal(t, StateAttached, m.State())
	assert.Equal(t, newKey, m.AttachedKey())
	assert.Equal(t, newKey.String(), backend.attachedTo)
	assert.False(t, h.Live())

	// terminal: nothing moves it again
	_, err = m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, m.Attach(context.Background(), newKey), ErrInvalidState)
	assert.Equal(t, int32(1), backend.reveals.Load())
}

func TestMigration_ConsentSentence(t *testing.T) {
	backend := &fakeBackend{}
	m := NewMigration(true, backend, Options{})
	for _, s := range []string{"", "i understand the risks", "I understand the risks.", " I understand the risks"} {
		_, err := m.RequestReveal(context.Background(), s)
		assert.ErrorIs(t, err, ErrConsentRequired, "%q", s)
	}
	assert.Zero(t, backend.reveals.Load())
	assert.Equal(t, StatePendingReveal, m.State())
}

func TestMigration_ServerErrorIsUnrecoverable(t *testing.T) {
	backend := &fakeBackend{revealErr: &client.StatusError{Op: "reveal", Status: http.StatusInternalServerError}}
	m := NewMigration(true, backend, Options{})

	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrUnrecoverable)
	assert.Equal(t, StateUnrecoverable, m.State())

	_, err = m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrUnrecoverable)
	assert.Equal(t, int32(1), backend.reveals.Load())

	_, err = m.Secret()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMigration_MalformedKeyIsUnrecoverable(t *testing.T) {
	m := NewMigration(true, &fakeBackend{key: "not-a-key"}, Options{})
	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrUnrecoverable)
	assert.Equal(t, StateUnrecoverable, m.State())
}

func TestMigration_TransientRevealErrorIsRetryable(t *testing.T) {
	for _, cause := range []error{
		client.ErrNetworkFailure,
		&client.StatusError{Op: "reveal", Status: http.StatusUnauthorized},
	} {
		encoded, _ := newLegacyKey(t)
		backend := &fakeBackend{revealErr: cause, key: encoded}
		m := NewMigration(true, backend, Options{})

		_, err := m.RequestReveal(context.Background(), RevealPhrase)
		assert.ErrorIs(t, err, ErrRevealFailed)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, StatePendingReveal, m.State())

		backend.revealErr = nil
		_, err = m.RequestReveal(context.Background(), RevealPhrase)
		assert.NoError(t, err)
		assert.Equal(t, StateRevealedUnconfirmed, m.State())
	}
}

func TestMigration_TimeoutLeavesRetryableState(t *testing.T) {
	backend := &fakeBackend{block: true}
	m := NewMigration(true, backend, Options{Timeout: 20 * time.Millisecond})

	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	assert.ErrorIs(t, err, ErrRevealFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatePendingReveal, m.State())
}

func TestMigration_CloseDuringReveal(t *testing.T) {
	backend := &fakeBackend{block: true, started: make(chan struct{})}
	m := NewMigration(true, backend, Options{Timeout: time.Minute})

	done := make(chan error, 1)
	go func() {
		_, err := m.RequestReveal(context.Background(), RevealPhrase)
		done <- err
	}()

	<-backend.started
	m.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("reveal did not return after close")
	}
	_, err := m.Secret()
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, m.Closed())
}

func TestMigration_AttachFailureStaysConfirmed(t *testing.T) {
	encoded, _ := newLegacyKey(t)
	backend := &fakeBackend{key: encoded, attachErr: &client.StatusError{Op: "attach", Status: http.StatusBadGateway}}
	m := NewMigration(true, backend, Options{})
	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	require.NoError(t, err)
	require.NoError(t, m.Confirm(confirm.ImportAcknowledgements{SavedSecurely: true, ImportedToWallet: true}))

	pub, err := solana.DerivePublicKey(legalWinner)
	require.NoError(t, err)
	err = m.Attach(context.Background(), pub)
	assert.ErrorIs(t, err, ErrAttachFailed)
	assert.Equal(t, StateConfirmed, m.State())

	// legacy key stays viewable until attach succeeds
	h, err := m.Secret()
	require.NoError(t, err)
	assert.True(t, h.Live())

	err = m.Attach(context.Background(), solanago.PublicKey{})
	assert.ErrorIs(t, err, ErrAttachFailed)
}

func TestMigration_AttachBeforeConfirmRejected(t *testing.T) {
	encoded, _ := newLegacyKey(t)
	backend := &fakeBackend{key: encoded}
	m := NewMigration(true, backend, Options{})
	pub, err := solana.DerivePublicKey(legalWinner)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Attach(context.Background(), pub), ErrInvalidState)
	_, err = m.RequestReveal(context.Background(), RevealPhrase)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Attach(context.Background(), pub), ErrInvalidState)
	assert.Zero(t, backend.attaches.Load())
}

func TestMigration_HideKeepsState(t *testing.T) {
	encoded, _ := newLegacyKey(t)
	m := NewMigration(true, &fakeBackend{key: encoded}, Options{})
	h, err := m.RequestReveal(context.Background(), RevealPhrase)
	require.NoError(t, err)

	m.Hide()
	m.Hide()
	assert.False(t, h.Live())
	assert.Equal(t, StateRevealedUnconfirmed, m.State())
	_, err = m.Secret()
	assert.ErrorIs(t, err, vault.ErrHandleExpired)
}

func TestMigration_NoBackend(t *testing.T) {
	m := NewMigration(true, nil, Options{})
	_, err := m.RequestReveal(context.Background(), RevealPhrase)
	assert.True(t, errors.Is(err, ErrNoBackend))
	assert.Equal(t, StatePendingReveal, m.State())
}
