package custody

import (
	"time"

	"github.com/AlexZinkM/self-custody/internal/crypto"
	"github.com/AlexZinkM/self-custody/internal/model"
	"github.com/AlexZinkM/self-custody/internal/vault"
	"github.com/AlexZinkM/self-custody/solana"
)

// Network is written into every backup header
const Network = "solana"

// backupSecret seals the handle's secret into a .cwt document.
// The copy handed to the encryptor is cleared before return.
func backupSecret(h *vault.Handle, address string, password []byte) ([]byte, error) {
	var out []byte
	err := h.Use(func(secret []byte) error {
		data := &model.BackupData{
			Secret:    append([]byte(nil), secret...),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		defer clear(data.Secret)

		qr, err := solana.AddressQR(address)
		if err != nil {
			return err
		}

		out, err = crypto.EncryptBackup(Network, address, string(h.Kind()), qr, data, password)
		return err
	})
	return out, err
}
