package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/AlexZinkM/browse-wallet/internal/config"
)

// ErrUnsupported is returned for calls a chain backend cannot serve
var ErrUnsupported = errors.New("not supported on this chain")

// ErrReverted is returned when a submitted transaction lands but fails on chain
var ErrReverted = errors.New("transaction reverted")

// Keys generates and checks keys and addresses without touching the network
type Keys interface {
	NewKeypair() (address, privateKey string, err error)
	AddressOf(privateKey string) (string, error)
	ValidateAddress(address string) error
}

// TokenClient reads and mutates the reward token and vault contracts.
// Every mutating call returns only after the transaction is confirmed.
type TokenClient interface {
	Keys

	Chain() string
	VaultAddress() string

	Decimals(ctx context.Context) (uint8, error)
	BalanceOf(ctx context.Context, address string) (*big.Int, error)
	VaultBalanceOf(ctx context.Context, address string) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)

	Mint(ctx context.Context, signerKey, to string, amount *big.Int) (string, error)
	Approve(ctx context.Context, signerKey, spender string, amount *big.Int) (string, error)
	Deposit(ctx context.Context, signerKey string, amount *big.Int) (string, error)
	Transfer(ctx context.Context, signerKey, to string, amount *big.Int) (string, error)
}

// KeysFor returns the key handling of chain
func KeysFor(chain string) (Keys, error) {
	switch chain {
	case config.ChainEVM:
		return EVMKeys{}, nil
	case config.ChainSolana:
		return SolanaKeys{}, nil
	default:
		return nil, fmt.Errorf("unknown chain %q", chain)
	}
}

// New creates the token client for the configured chain.
// RPC_URL and TOKEN_ADDRESS are required; the vault is optional.
func New(cfg *config.Config) (TokenClient, error) {
	if cfg.RPCURL == "" || cfg.TokenAddress == "" {
		return nil, errors.New("RPC_URL and TOKEN_ADDRESS must be set")
	}

	switch cfg.Chain {
	case config.ChainEVM:
		c, err := NewEVMClient(cfg.RPCURL, cfg.TokenAddress, cfg.VaultAddress, cfg.ChainID)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ChainSolana:
		c, err := NewSolanaClient(cfg.RPCURL, cfg.TokenAddress, cfg.VaultAddress)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown chain %q", cfg.Chain)
	}
}
