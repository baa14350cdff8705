package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

// solanaSeedLen is the prefix of the BIP-39 seed used as the ed25519 seed
const solanaSeedLen = ed25519.SeedSize

// ErrInvalidMnemonic is returned for phrases that fail the BIP-39 checksum
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// Keypair is a Solana keypair derived from a recovery phrase.
// PublicKey and PrivateKey are always produced together.
type Keypair struct {
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey // 64 bytes: seed || public key
}

// Address returns the base58 wallet address
func (k *Keypair) Address() string {
	return k.PublicKey.String()
}

// Wipe zeroes the private key bytes
func (k *Keypair) Wipe() {
	if k == nil {
		return
	}
	clear(k.PrivateKey)
	k.PrivateKey = nil
}

// DeriveKeypair derives the keypair for a recovery phrase.
// Same phrase always yields the same keypair (no passphrase, seed[:32]).
func DeriveKeypair(mnemonic string) (*Keypair, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	defer clear(seed)

	privateKey := solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:solanaSeedLen]))

	return &Keypair{
		PublicKey:  privateKey.PublicKey(),
		PrivateKey: privateKey,
	}, nil
}

// DerivePublicKey derives only the address and wipes the private half before returning
func DerivePublicKey(mnemonic string) (solana.PublicKey, error) {
	kp, err := DeriveKeypair(mnemonic)
	if err != nil {
		return solana.PublicKey{}, err
	}
	defer kp.Wipe()
	return kp.PublicKey, nil
}

// ParsePublicKey validates a base58 Solana address
func ParsePublicKey(address string) (solana.PublicKey, error) {
	pub, err := solana.PublicKeyFromBase58(strings.TrimSpace(address))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid Solana address: %w", err)
	}
	return pub, nil
}

// ParsePrivateKey decodes a base58 64-byte Solana private key and checks
// that its embedded public half matches the seed half.
func ParsePrivateKey(encoded string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromBase58(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}
	if len(key) != ed25519.PrivateKeySize {
		clear(key)
		return nil, fmt.Errorf("invalid private key length")
	}

	derived := ed25519.NewKeyFromSeed(key[:solanaSeedLen])
	defer clear(derived)
	if !ed25519.PublicKey(key[solanaSeedLen:]).Equal(derived.Public()) {
		clear(key)
		return nil, fmt.Errorf("private key does not match its public key")
	}

	return key, nil
}
