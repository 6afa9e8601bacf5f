// Package identity resolves the single local wallet identity of a persistence scope.
package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/crypto"
	"github.com/AlexZinkM/browse-wallet/internal/fingerprint"
	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/internal/storage"

	"github.com/skip2/go-qrcode"
)

const (
	// RecordKey is the fixed storage key of the identity record
	RecordKey = "wallet_identity"

	// DeviceTagLen is the number of fingerprint hex chars kept as device tag
	DeviceTagLen = 16
)

// Options configure a Store
type Options struct {
	Chain   string
	Keys    client.Keys
	Storage storage.Store
	// Signals collects fingerprint inputs; nil uses fingerprint.CollectSignals("")
	Signals func() fingerprint.Signals
	// Password returns the seal password; nil stores the record in plain JSON
	Password func() ([]byte, error)
	Logger   *slog.Logger
}

// Store creates the identity once and returns it unchanged afterwards
type Store struct {
	mu     sync.Mutex
	cached *model.WalletIdentity

	chain    string
	keys     client.Keys
	kv       storage.Store
	fp       *fingerprint.Generator
	signals  func() fingerprint.Signals
	password func() ([]byte, error)
	now      func() time.Time
	logger   *slog.Logger
}

func New(opts Options) *Store {
	signals := opts.Signals
	if signals == nil {
		signals = func() fingerprint.Signals { return fingerprint.CollectSignals("") }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		chain:    opts.Chain,
		keys:     opts.Keys,
		kv:       opts.Storage,
		fp:       fingerprint.NewGenerator(opts.Storage),
		signals:  signals,
		password: opts.Password,
		now:      time.Now,
		logger:   logger,
	}
}

// GetOrCreate returns the persisted identity, creating and persisting one on first use.
// A persisted record that cannot be decoded is returned as an error.
func (s *Store) GetOrCreate(ctx context.Context) (*model.WalletIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return copyOf(s.cached), nil
	}

	if locker, ok := s.kv.(storage.Locker); ok {
		unlock, err := locker.Lock(ctx, RecordKey)
		if err != nil {
			return nil, fmt.Errorf("failed to lock identity: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				s.logger.Warn("failed to release identity lock", "error", err)
			}
		}()
	}

	data, err := s.kv.Get(ctx, RecordKey)
	switch {
	case err == nil:
		id, err := s.decode(data)
		if err != nil {
			return nil, err
		}
		if id.Chain != "" && id.Chain != s.chain {
			s.logger.Warn("persisted identity belongs to another chain", "identity_chain", id.Chain, "chain", s.chain)
		}
		s.cached = id
		return copyOf(id), nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	id, err := s.create(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = id
	s.logger.Info("wallet identity created", "chain", id.Chain, "address", id.Address, "device_tag", id.DeviceTag)
	return copyOf(id), nil
}

func (s *Store) create(ctx context.Context) (*model.WalletIdentity, error) {
	address, privateKey, err := s.keys.NewKeypair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	hash, err := s.fp.Compute(ctx, s.signals())
	if err != nil {
		return nil, fmt.Errorf("failed to compute fingerprint: %w", err)
	}

	id := &model.WalletIdentity{
		Chain:      s.chain,
		Address:    address,
		PrivateKey: privateKey,
		DeviceTag:  hash.Hex()[:DeviceTagLen],
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	}

	data, err := s.encode(id)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, RecordKey, data); err != nil {
		return nil, fmt.Errorf("failed to persist identity: %w", err)
	}
	return id, nil
}

func (s *Store) encode(id *model.WalletIdentity) ([]byte, error) {
	if s.password == nil {
		return encodeRecord(id, nil)
	}

	password, err := s.password()
	if err != nil {
		return nil, err
	}
	defer clear(password)

	return encodeRecord(id, password)
}

func (s *Store) decode(data []byte) (*model.WalletIdentity, error) {
	if crypto.IsSealed(data) {
		if s.password == nil {
			addr, _ := crypto.ReadIdentityAddress(data)
			return nil, fmt.Errorf("identity %s is sealed: set WALLET_SEAL=true to unlock it", addr)
		}
		password, err := s.password()
		if err != nil {
			return nil, err
		}
		defer clear(password)

		return decodeRecord(data, password)
	}
	return decodeRecord(data, nil)
}

// encodeRecord seals id under password, or marshals it as plain JSON when password is empty
func encodeRecord(id *model.WalletIdentity, password []byte) ([]byte, error) {
	if len(password) == 0 {
		data, err := json.MarshalIndent(id, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal identity: %w", err)
		}
		return data, nil
	}

	data, err := crypto.SealIdentity(id, password)
	if err != nil {
		return nil, fmt.Errorf("failed to seal identity: %w", err)
	}
	return data, nil
}

func decodeRecord(data, password []byte) (*model.WalletIdentity, error) {
	if crypto.IsSealed(data) {
		if len(password) == 0 {
			return nil, errors.New("identity is sealed: password required")
		}
		id, err := crypto.OpenIdentity(data, password)
		if err != nil {
			return nil, fmt.Errorf("failed to open identity: %w", err)
		}
		return id, nil
	}

	var id model.WalletIdentity
	if err := json.Unmarshal(crypto.StripBOM(data), &id); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}
	return &id, nil
}

// Reseal rewrites the persisted identity under newPassword, opening it with
// oldPassword when it is sealed. An empty newPassword stores it as plain JSON.
// The address and private key are unchanged.
func Reseal(ctx context.Context, kv storage.Store, oldPassword, newPassword []byte) (string, error) {
	data, err := kv.Get(ctx, RecordKey)
	if err != nil {
		return "", fmt.Errorf("failed to read identity: %w", err)
	}

	id, err := decodeRecord(data, oldPassword)
	if err != nil {
		return "", err
	}

	out, err := encodeRecord(id, newPassword)
	if err != nil {
		return "", err
	}
	if err := kv.Put(ctx, RecordKey, out); err != nil {
		return "", fmt.Errorf("failed to persist identity: %w", err)
	}
	return id.Address, nil
}

func copyOf(id *model.WalletIdentity) *model.WalletIdentity {
	c := *id
	return &c
}

// QRCode renders address as a base64 PNG
func QRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
