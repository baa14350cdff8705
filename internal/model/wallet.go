package model

// BackupFile represents .cwt backup file structure.
// Only Network, Address, Kind and QR are readable without the password.
type BackupFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	Kind       string `json:"kind"` // "mnemonic" | "private_key" | "legacy_private_key"
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// BackupData represents decrypted backup contents
type BackupData struct {
	Secret    []byte `json:"secret"` // phrase bytes or 64-byte key (base64 in JSON)
	CreatedAt string `json:"createdAt"`
}

// KeyResponse is returned whenever a self-custody public key becomes known
type KeyResponse struct {
	PublicKey string `json:"publicKey"`
	QR        string `json:"qr,omitempty"` // base64 PNG
}

// ImportRequest represents request for POST /wallet/import
type ImportRequest struct {
	Mnemonic string `json:"mnemonic"`
}

// BackupRequest asks for an encrypted download of the revealed secret
type BackupRequest struct {
	Password string `json:"password"`
}
