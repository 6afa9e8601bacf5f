package model

import "time"

// WalletIdentity is the single local keypair-and-address record of a persistence scope
type WalletIdentity struct {
	Chain      string    `json:"chain"`
	Address    string    `json:"address"`
	PrivateKey string    `json:"privateKey"` // hex (evm) or base58 (solana)
	DeviceTag  string    `json:"deviceTag"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SealedIdentity is the persisted form of a password-sealed WalletIdentity.
// Address and device tag stay readable without the password.
type SealedIdentity struct {
	Chain      string `json:"chain"`
	Address    string `json:"address"`
	DeviceTag  string `json:"deviceTag"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// SecretData is the plaintext sealed inside SealedIdentity.CipherText
type SecretData struct {
	PrivateKey string `json:"privateKey"`
	CreatedAt  string `json:"createdAt"`
}

// IdentityResponse represents response for GET /wallet/identity
type IdentityResponse struct {
	Chain     string `json:"chain"`
	Address   string `json:"address"`
	DeviceTag string `json:"deviceTag"`
	QR        string `json:"QR"` // base64 PNG
}
