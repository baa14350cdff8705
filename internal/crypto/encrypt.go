package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/self-custody/internal/model"

	"golang.org/x/crypto/scrypt"
)

// kdfParams are the scrypt parameters for backups.
//
// N=2^18 (~256MB RAM, 0.5-2s) keeps brute force expensive while still working
// on phones; N=2^20 fails under Android per-app memory limits.
type kdfParams struct {
	N, R, P, KeyLen int
}

var params = kdfParams{N: 1 << 18, R: 8, P: 1, KeyLen: 32}

const (
	saltLen  = 32
	nonceLen = 12
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var fe *FileExistsError
	return errors.As(err, &fe)
}

// EncryptBackup encrypts a secret into a .cwt document.
// password must be []byte for security (caller should zero it after use)
func EncryptBackup(network, address, kind, qrCode string, data *model.BackupData, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	// address and kind are bound as associated data so the readable header
	// cannot be swapped onto another ciphertext
	ciphertext := aesGCM.Seal(nil, nonce, plaintext, associatedData(network, address, kind))

	file := model.BackupFile{
		Network:    network,
		Address:    address,
		Kind:       kind,
		QR:         qrCode,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup file: %w", err)
	}

	// UTF-8 BOM for proper display in Windows
	return append(append([]byte{}, utf8BOM...), fileData...), nil
}

// SaveBackup writes an already sealed .cwt document to filePath (must be new or empty)
func SaveBackup(filePath string, fileData []byte) error {
	if err := checkTarget(filePath); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func checkTarget(filePath string) error {
	if !strings.HasSuffix(filePath, ".cwt") {
		return errors.New("file must have .cwt extension")
	}
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return &FileExistsError{Message: "file is not empty"}
	}
	return nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func associatedData(network, address, kind string) []byte {
	return []byte(network + "\x00" + address + "\x00" + kind)
}
