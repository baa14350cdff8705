// Checks a .cwt backup: decrypts it, re-derives the address from the sealed
// secret and compares it with the readable header. Prints only the address.
// Usage: go run ./cmd/verifybackup wallet.cwt
package main

import (
	"fmt"
	"os"

	"github.com/AlexZinkM/self-custody/internal/config"
	"github.com/AlexZinkM/self-custody/internal/crypto"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: verifybackup <file.cwt>")
		os.Exit(2)
	}
	path := os.Args[1]

	address, err := crypto.ReadBackupAddress(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Address in header:", address)

	password, err := config.PromptForPassword("Backup password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	file, data, err := crypto.ReadBackupFile(path, password)
	clear(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var derived solanago.PublicKey
	err = vault.New().Hold(vault.Kind(file.Kind), data.Secret, func(h *vault.Handle) error {
		return h.Use(func(secret []byte) error {
			var derr error
			derived, derr = derive(h.Kind(), secret)
			return derr
		})
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "backup content is not usable:", err)
		os.Exit(1)
	}

	if derived.String() != file.Address {
		fmt.Fprintln(os.Stderr, "MISMATCH: backup derives", derived.String())
		os.Exit(1)
	}
	fmt.Println("OK: backup restores", derived.String())
}

func derive(kind vault.Kind, secret []byte) (solanago.PublicKey, error) {
	switch kind {
	case vault.KindMnemonic:
		return solana.DerivePublicKey(string(secret))
	case vault.KindPrivateKey, vault.KindLegacyPrivateKey:
		key, err := solana.ParsePrivateKey(string(secret))
		if err != nil {
			return solanago.PublicKey{}, err
		}
		defer clear(key)
		return key.PublicKey(), nil
	default:
		return solanago.PublicKey{}, fmt.Errorf("unknown backup kind %q", kind)
	}
}
