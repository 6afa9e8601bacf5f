package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/model"
)

// ErrInvalidPassword is returned when the sealed record cannot be opened
var ErrInvalidPassword = errors.New("invalid password")

// IsSealed reports whether data holds a sealed identity record
func IsSealed(data []byte) bool {
	var probe struct {
		CipherText string `json:"cipherText"`
	}
	if err := json.Unmarshal(StripBOM(data), &probe); err != nil {
		return false
	}
	return probe.CipherText != ""
}

// OpenIdentity decrypts a record produced by SealIdentity
// password must be []byte for security (caller should zero it after use)
func OpenIdentity(data []byte, password []byte) (*model.WalletIdentity, error) {
	var sealed model.SealedIdentity
	if err := json.Unmarshal(StripBOM(data), &sealed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sealed identity: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(sealed.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(sealed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(sealed.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var secret model.SecretData
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secret data: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, secret.CreatedAt)

	return &model.WalletIdentity{
		Chain:      sealed.Chain,
		Address:    sealed.Address,
		PrivateKey: secret.PrivateKey,
		DeviceTag:  sealed.DeviceTag,
		CreatedAt:  createdAt,
	}, nil
}

// ReadIdentityAddress reads only the address from a sealed record (without decryption)
func ReadIdentityAddress(data []byte) (string, error) {
	var sealed model.SealedIdentity
	if err := json.Unmarshal(StripBOM(data), &sealed); err != nil {
		return "", fmt.Errorf("failed to unmarshal sealed identity: %w", err)
	}
	return sealed.Address, nil
}

// StripBOM skips a UTF-8 BOM if present
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
