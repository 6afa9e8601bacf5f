package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/AlexZinkM/browse-wallet/internal/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// tokenABI is the ERC-20 surface plus the demo-only privileged mint
const tokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const vaultABI = `[
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// EVMKeys handles secp256k1 keys and 0x-prefixed hex addresses
type EVMKeys struct{}

func (EVMKeys) NewKeypair() (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}
	raw := crypto.FromECDSA(key)
	defer clear(raw)
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hex.EncodeToString(raw), nil
}

func (EVMKeys) AddressOf(privateKey string) (string, error) {
	key, err := parseECDSA(privateKey)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (EVMKeys) ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}
	return nil
}

func parseECDSA(privateKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// EVMClient talks to an ERC-20 token and its vault through one JSON-RPC endpoint
type EVMClient struct {
	EVMKeys

	eth       *ethclient.Client
	token     *bind.BoundContract
	vault     *bind.BoundContract
	tokenAddr common.Address
	vaultAddr common.Address

	chainMu sync.Mutex
	chainID *big.Int
}

// NewEVMClient dials rpcURL. chainID 0 means it is asked from the node on first use.
func NewEVMClient(rpcURL, tokenAddress, vaultAddress string, chainID int64) (*EVMClient, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	if vaultAddress != "" && !common.IsHexAddress(vaultAddress) {
		return nil, fmt.Errorf("invalid vault address %q", vaultAddress)
	}

	tokenParsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	vaultParsed, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault ABI: %w", err)
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	c := &EVMClient{
		eth:       eth,
		tokenAddr: common.HexToAddress(tokenAddress),
	}
	c.token = bind.NewBoundContract(c.tokenAddr, tokenParsed, eth, eth, eth)
	if vaultAddress != "" {
		c.vaultAddr = common.HexToAddress(vaultAddress)
		c.vault = bind.NewBoundContract(c.vaultAddr, vaultParsed, eth, eth, eth)
	}
	if chainID != 0 {
		c.chainID = big.NewInt(chainID)
	}
	return c, nil
}

func (c *EVMClient) Chain() string {
	return config.ChainEVM
}

func (c *EVMClient) VaultAddress() string {
	if c.vault == nil {
		return ""
	}
	return c.vaultAddr.Hex()
}

func (c *EVMClient) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("decimals call failed: %w", err)
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", out[0])
	}
	return d, nil
}

func (c *EVMClient) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	if err := c.ValidateAddress(address); err != nil {
		return nil, err
	}
	return callUint256(ctx, c.token, "balanceOf", common.HexToAddress(address))
}

func (c *EVMClient) VaultBalanceOf(ctx context.Context, address string) (*big.Int, error) {
	if c.vault == nil {
		return nil, errors.New("vault address not configured")
	}
	if err := c.ValidateAddress(address); err != nil {
		return nil, err
	}
	return callUint256(ctx, c.vault, "balanceOf", common.HexToAddress(address))
}

func (c *EVMClient) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	if err := c.ValidateAddress(owner); err != nil {
		return nil, err
	}
	if err := c.ValidateAddress(spender); err != nil {
		return nil, err
	}
	return callUint256(ctx, c.token, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

func (c *EVMClient) Mint(ctx context.Context, signerKey, to string, amount *big.Int) (string, error) {
	if err := c.ValidateAddress(to); err != nil {
		return "", err
	}
	return c.transact(ctx, c.token, signerKey, "mint", common.HexToAddress(to), amount)
}

func (c *EVMClient) Approve(ctx context.Context, signerKey, spender string, amount *big.Int) (string, error) {
	if err := c.ValidateAddress(spender); err != nil {
		return "", err
	}
	return c.transact(ctx, c.token, signerKey, "approve", common.HexToAddress(spender), amount)
}

func (c *EVMClient) Deposit(ctx context.Context, signerKey string, amount *big.Int) (string, error) {
	if c.vault == nil {
		return "", errors.New("vault address not configured")
	}
	return c.transact(ctx, c.vault, signerKey, "deposit", amount)
}

func (c *EVMClient) Transfer(ctx context.Context, signerKey, to string, amount *big.Int) (string, error) {
	if err := c.ValidateAddress(to); err != nil {
		return "", err
	}
	return c.transact(ctx, c.token, signerKey, "transfer", common.HexToAddress(to), amount)
}

func (c *EVMClient) networkID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

// transact signs method with signerKey, submits it and waits until it is mined
func (c *EVMClient) transact(ctx context.Context, contract *bind.BoundContract, signerKey, method string, params ...interface{}) (string, error) {
	key, err := parseECDSA(signerKey)
	if err != nil {
		return "", err
	}

	chainID, err := c.networkID(ctx)
	if err != nil {
		return "", err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return "", fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return "", fmt.Errorf("failed to send %s: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return tx.Hash().Hex(), fmt.Errorf("failed waiting for %s: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash().Hex(), fmt.Errorf("%s %s: %w", method, tx.Hash().Hex(), ErrReverted)
	}
	return tx.Hash().Hex(), nil
}

func callUint256(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, out[0])
	}
	return v, nil
}
