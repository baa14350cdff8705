package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/self-custody/internal/model"
)

// ErrInvalidPassword is returned when the backup cannot be opened
var ErrInvalidPassword = errors.New("invalid password")

// DecryptBackup parses and decrypts a .cwt document.
// password must be []byte for security (caller should zero it after use);
// caller must clear data.Secret when done.
func DecryptBackup(fileData []byte, password []byte) (*model.BackupFile, *model.BackupData, error) {
	file, err := parseBackup(fileData)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, nil, errors.New("invalid nonce length")
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, associatedData(file.Network, file.Address, file.Kind))
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var data model.BackupData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal backup data: %w", err)
	}

	return file, &data, nil
}

// ReadBackupFile reads and decrypts a .cwt file from disk
func ReadBackupFile(filePath string, password []byte) (*model.BackupFile, *model.BackupData, error) {
	fileData, err := readFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	return DecryptBackup(fileData, password)
}

// ReadBackupAddress reads only the address from a .cwt file (without decryption)
func ReadBackupAddress(filePath string) (string, error) {
	fileData, err := readFile(filePath)
	if err != nil {
		return "", err
	}
	file, err := parseBackup(fileData)
	if err != nil {
		return "", err
	}
	return file.Address, nil
}

func readFile(filePath string) ([]byte, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return fileData, nil
}

func parseBackup(fileData []byte) (*model.BackupFile, error) {
	// Skip UTF-8 BOM if present
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	var file model.BackupFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}
	return &file, nil
}
