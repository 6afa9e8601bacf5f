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
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/model"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for the sealed identity record.
// N=2^18 (~256MB RAM, 0.5-2s) stays usable on phones and desktops alike.
var scryptN = 1 << 18

const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// utf8BOM is written in front of sealed records for proper display in Windows
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SealIdentity encrypts the private key of identity and returns the serialized record.
// password must be []byte for security (caller should zero it after use)
func SealIdentity(identity *model.WalletIdentity, password []byte) ([]byte, error) {
	if identity == nil {
		return nil, errors.New("identity is nil")
	}
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

	plaintext, err := json.Marshal(&model.SecretData{
		PrivateKey: identity.PrivateKey,
		CreatedAt:  identity.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secret data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	sealed := model.SealedIdentity{
		Chain:      identity.Chain,
		Address:    identity.Address,
		DeviceTag:  identity.DeviceTag,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	data, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sealed identity: %w", err)
	}

	return append(append([]byte{}, utf8BOM...), data...), nil
}

// newGCM derives the AES-GCM cipher for password and salt
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
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
