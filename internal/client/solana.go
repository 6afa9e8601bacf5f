package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/config"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	confirmPollInterval = 500 * time.Millisecond
	confirmTimeout      = 90 * time.Second
)

// SolanaKeys handles ed25519 keys and base58 addresses
type SolanaKeys struct{}

func (SolanaKeys) NewKeypair() (string, string, error) {
	wallet := solana.NewWallet()
	return wallet.PublicKey().String(), wallet.PrivateKey.String(), nil
}

func (SolanaKeys) AddressOf(privateKey string) (string, error) {
	key, err := solana.PrivateKeyFromBase58(strings.TrimSpace(privateKey))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return key.PublicKey().String(), nil
}

func (SolanaKeys) ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("invalid address %q", address)
	}
	return nil
}

// SolanaClient drives an SPL token mint. The operator key is the mint authority,
// and the vault is the owner of the token account deposits are sent to.
type SolanaClient struct {
	SolanaKeys

	rpcClient     *rpc.Client
	mintPublicKey solana.PublicKey
	vaultPubkey   *solana.PublicKey

	decimalsMu sync.Mutex
	decimals   *uint8
}

// NewSolanaClient creates a new Solana client for the given mint and optional vault.
func NewSolanaClient(rpcURL, mintAddress, vaultAddress string) (*SolanaClient, error) {
	mintPubKey, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}

	c := &SolanaClient{
		rpcClient:     rpc.New(rpcURL),
		mintPublicKey: mintPubKey,
	}
	if vaultAddress != "" {
		vault, err := solana.PublicKeyFromBase58(vaultAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid vault address: %w", err)
		}
		c.vaultPubkey = &vault
	}
	return c, nil
}

func (c *SolanaClient) Chain() string {
	return config.ChainSolana
}

func (c *SolanaClient) VaultAddress() string {
	if c.vaultPubkey == nil {
		return ""
	}
	return c.vaultPubkey.String()
}

// Decimals reads the mint precision once and caches it
func (c *SolanaClient) Decimals(ctx context.Context) (uint8, error) {
	c.decimalsMu.Lock()
	defer c.decimalsMu.Unlock()

	if c.decimals != nil {
		return *c.decimals, nil
	}
	supply, err := c.rpcClient.GetTokenSupply(ctx, c.mintPublicKey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get token supply: %w", err)
	}
	if supply.Value == nil {
		return 0, errors.New("token supply is empty")
	}
	d := supply.Value.Decimals
	c.decimals = &d
	return d, nil
}

// BalanceOf returns the owner's token balance in base units. A missing
// associated token account reads as zero.
func (c *SolanaClient) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q", address)
	}

	ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, c.mintPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, ataAddress, rpc.CommitmentConfirmed)
	if err != nil {
		if isATANotFoundError(err) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to get token account balance: %w", err)
	}

	if balance.Value == nil {
		return new(big.Int), nil
	}

	amount, ok := new(big.Int).SetString(balance.Value.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse token balance amount %q", balance.Value.Amount)
	}
	return amount, nil
}

// VaultBalanceOf is not tracked per user on Solana: deposits land in one vault account
func (c *SolanaClient) VaultBalanceOf(context.Context, string) (*big.Int, error) {
	return nil, ErrUnsupported
}

// tokenAccountInfo is the jsonParsed shape of an SPL token account
type tokenAccountInfo struct {
	Parsed struct {
		Info struct {
			Mint            string `json:"mint,omitempty"`
			Owner           string `json:"owner,omitempty"`
			Delegate        string `json:"delegate,omitempty"`
			DelegatedAmount struct {
				Amount string `json:"amount,omitempty"`
			} `json:"delegatedAmount,omitempty"`
		} `json:"info,omitempty"`
		Type string `json:"type,omitempty"`
	} `json:"parsed,omitempty"`
}

// Allowance is the amount the owner's token account delegates to spender
func (c *SolanaClient) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	ownerPubkey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q", owner)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(ownerPubkey, c.mintPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	res, err := c.rpcClient.GetAccountInfoWithOpts(ctx, ata, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingJSONParsed,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if isATANotFoundError(err) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to get token account: %w", err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return new(big.Int), nil
	}

	var info tokenAccountInfo
	if err := json.Unmarshal(res.Value.Data.GetRawJSON(), &info); err != nil {
		return nil, fmt.Errorf("failed to decode token account: %w", err)
	}
	if info.Parsed.Info.Delegate != spender || info.Parsed.Info.DelegatedAmount.Amount == "" {
		return new(big.Int), nil
	}

	amount, ok := new(big.Int).SetString(info.Parsed.Info.DelegatedAmount.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse delegated amount %q", info.Parsed.Info.DelegatedAmount.Amount)
	}
	return amount, nil
}

// Mint mints amount to the recipient's associated token account, creating it if needed.
// signerKey must be the mint authority.
func (c *SolanaClient) Mint(ctx context.Context, signerKey, to string, amount *big.Int) (string, error) {
	authority, err := solana.PrivateKeyFromBase58(signerKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	toPubkey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}
	raw, decimals, err := c.rawAmount(ctx, amount)
	if err != nil {
		return "", err
	}

	instructions, destATA, err := c.ensureATA(ctx, authority.PublicKey(), toPubkey)
	if err != nil {
		return "", err
	}
	instructions = append(instructions, token.NewMintToCheckedInstruction(
		raw,
		decimals,
		c.mintPublicKey,
		destATA,
		authority.PublicKey(),
		[]solana.PublicKey{},
	).Build())

	return c.sendAndConfirm(ctx, instructions, authority)
}

// Approve delegates amount of the signer's token account to spender
func (c *SolanaClient) Approve(ctx context.Context, signerKey, spender string, amount *big.Int) (string, error) {
	owner, err := solana.PrivateKeyFromBase58(signerKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	delegate, err := solana.PublicKeyFromBase58(spender)
	if err != nil {
		return "", fmt.Errorf("invalid spender address: %w", err)
	}
	raw, decimals, err := c.rawAmount(ctx, amount)
	if err != nil {
		return "", err
	}

	source, _, err := solana.FindAssociatedTokenAddress(owner.PublicKey(), c.mintPublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to find source token account address: %w", err)
	}

	approve := token.NewApproveCheckedInstruction(
		raw,
		decimals,
		source,
		c.mintPublicKey,
		delegate,
		owner.PublicKey(),
		[]solana.PublicKey{},
	).Build()

	return c.sendAndConfirm(ctx, []solana.Instruction{approve}, owner)
}

// Deposit moves amount from the signer's token account into the vault's token account
func (c *SolanaClient) Deposit(ctx context.Context, signerKey string, amount *big.Int) (string, error) {
	if c.vaultPubkey == nil {
		return "", errors.New("vault address not configured")
	}
	return c.Transfer(ctx, signerKey, c.vaultPubkey.String(), amount)
}

// Transfer sends amount to the recipient, creating its associated token account if needed
func (c *SolanaClient) Transfer(ctx context.Context, signerKey, to string, amount *big.Int) (string, error) {
	owner, err := solana.PrivateKeyFromBase58(signerKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	toPubkey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid to address: %w", err)
	}
	raw, decimals, err := c.rawAmount(ctx, amount)
	if err != nil {
		return "", err
	}

	sourceTokenAccount, _, err := solana.FindAssociatedTokenAddress(owner.PublicKey(), c.mintPublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to find source token account address: %w", err)
	}

	instructions, destTokenAccount, err := c.ensureATA(ctx, owner.PublicKey(), toPubkey)
	if err != nil {
		return "", err
	}
	instructions = append(instructions, token.NewTransferCheckedInstruction(
		raw,
		decimals,
		sourceTokenAccount,
		c.mintPublicKey,
		destTokenAccount,
		owner.PublicKey(),
		[]solana.PublicKey{},
	).Build())

	return c.sendAndConfirm(ctx, instructions, owner)
}

// rawAmount converts amount to uint64 and returns it with the mint decimals
func (c *SolanaClient) rawAmount(ctx context.Context, amount *big.Int) (uint64, uint8, error) {
	if amount == nil || amount.Sign() <= 0 || !amount.IsUint64() {
		return 0, 0, fmt.Errorf("amount out of range: %v", amount)
	}
	decimals, err := c.Decimals(ctx)
	if err != nil {
		return 0, 0, err
	}
	return amount.Uint64(), decimals, nil
}

// ensureATA returns the owner's associated token account and, when it does not
// exist yet, the instruction creating it paid by payer
func (c *SolanaClient) ensureATA(ctx context.Context, payer, owner solana.PublicKey) ([]solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, c.mintPublicKey)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to find destination token account: %w", err)
	}

	info, err := c.rpcClient.GetAccountInfo(ctx, ata)
	if err != nil && !isATANotFoundError(err) {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to get destination account info: %w", err)
	}
	if err == nil && info != nil && info.Value != nil {
		return nil, ata, nil
	}

	create := associatedtokenaccount.NewCreateInstruction(
		payer,
		owner,
		c.mintPublicKey,
	).Build()
	return []solana.Instruction{create}, ata, nil
}

// sendAndConfirm signs with signer (also fee payer), sends and waits for confirmation
func (c *SolanaClient) sendAndConfirm(ctx context.Context, instructions []solana.Instruction, signer solana.PrivateKey) (string, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer.PublicKey().Equals(key) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := c.waitConfirmed(ctx, sig); err != nil {
		return sig.String(), err
	}
	return sig.String(), nil
}

func (c *SolanaClient) waitConfirmed(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%s: %v: %w", sig, status.Err, ErrReverted)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// isATANotFoundError checks if error indicates that token account doesn't exist
func isATANotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
