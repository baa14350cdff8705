package solana

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

const (
	// MnemonicWords is the length of every generated recovery phrase
	MnemonicWords = 12
	entropyBytes  = 16 // 128 bits -> 12 words
)

// ErrEntropyUnavailable means the secure random source could not be read.
// Wallet creation cannot continue without it.
var ErrEntropyUnavailable = errors.New("secure entropy source unavailable")

// Generator produces BIP-39 recovery phrases.
// Entropy is crypto/rand.Reader unless overridden (tests only).
type Generator struct {
	Entropy io.Reader
}

// Generate returns a new 12-word recovery phrase.
// The phrase is returned as a string because go-bip39 only works with strings;
// callers hand it to the vault immediately and must not keep other references.
func (g Generator) Generate() (string, error) {
	src := g.Entropy
	if src == nil {
		src = rand.Reader
	}

	entropy := make([]byte, entropyBytes)
	defer clear(entropy)

	if _, err := io.ReadFull(src, entropy); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}

	return mnemonic, nil
}

// GenerateMnemonic generates a phrase from crypto/rand
func GenerateMnemonic() (string, error) {
	return Generator{}.Generate()
}

// ChecksumValid reports whether the phrase is a valid 12-word BIP-39 mnemonic
func ChecksumValid(mnemonic string) bool {
	words := strings.Fields(mnemonic)
	if len(words) != MnemonicWords {
		return false
	}
	return bip39.IsMnemonicValid(strings.Join(words, " "))
}
