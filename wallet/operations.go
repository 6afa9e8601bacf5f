package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/model"
)

const (
	OpFaucet   = "faucet"
	OpDeposit  = "deposit"
	OpClaim    = "claim"
	OpTransfer = "transfer"
)

func (c *Controller) requireClient() error {
	if c.client == nil {
		return fmt.Errorf("chain client (RPC_URL, TOKEN_ADDRESS): %w", ErrNotConfigured)
	}
	return nil
}

func (c *Controller) requireOperator() error {
	if err := c.requireClient(); err != nil {
		return err
	}
	if c.settings.OperatorKey == "" {
		return fmt.Errorf("OPERATOR_PRIVATE_KEY: %w", ErrNotConfigured)
	}
	return nil
}

// FaucetMint mints the faucet amount to the wallet, signed by the operator key
func (c *Controller) FaucetMint(ctx context.Context) ([]model.TransactionRecord, error) {
	return c.execute(ctx, func(id *model.WalletIdentity) (*command, error) {
		if err := c.requireOperator(); err != nil {
			return nil, err
		}
		// Mint is signed by the operator, who is the mint authority
		amount := c.settings.FaucetAmount
		c.log.Appendf("Requesting %s from faucet...", common.FormatToken(amount))

		return &command{
			name: OpFaucet,
			steps: []step{{
				kind:   model.OperationMint,
				amount: amount,
				send: func(ctx context.Context) (string, error) {
					return c.client.Mint(ctx, c.settings.OperatorKey, id.Address, amount)
				},
				done: func(txID string) string {
					return fmt.Sprintf("Faucet minted %s (tx %s)", common.FormatToken(amount), shortTx(txID))
				},
			}},
		}, nil
	})
}

// Deposit approves the vault and deposits amount into it.
// An empty amount uses the configured deposit amount.
// If the deposit fails after approve succeeded, the approval stays granted.
func (c *Controller) Deposit(ctx context.Context, amountStr string) ([]model.TransactionRecord, error) {
	return c.execute(ctx, func(id *model.WalletIdentity) (*command, error) {
		if err := c.requireClient(); err != nil {
			return nil, err
		}
		// Deposits need a vault to approve and deposit into
		vault := c.client.VaultAddress()
		if vault == "" {
			return nil, fmt.Errorf("VAULT_ADDRESS: %w", ErrNotConfigured)
		}

		amount, amountErr := c.depositAmount(amountStr)

		return &command{
			name: OpDeposit,
			preconditions: []precondition{
				// Validate amount
				func(context.Context) error { return amountErr },
				// Check balance before approving anything
				func(ctx context.Context) error { return c.requireBalance(ctx, id.Address, amount) },
			},
			steps: []step{
				// Approve the vault, unless the allowance already covers amount
				{
					kind:   model.OperationApprove,
					amount: amount,
					skip: func(ctx context.Context) bool {
						allowance, err := c.client.Allowance(ctx, id.Address, vault)
						return err == nil && allowance.Cmp(amount) >= 0
					},
					send: func(ctx context.Context) (string, error) {
						return c.client.Approve(ctx, id.PrivateKey, vault, amount)
					},
					done: func(txID string) string {
						return fmt.Sprintf("Vault approved for %s (tx %s)", common.FormatToken(amount), shortTx(txID))
					},
				},
				// Deposit into the vault; a failure here leaves the approval granted
				{
					kind:   model.OperationDeposit,
					amount: amount,
					send: func(ctx context.Context) (string, error) {
						return c.client.Deposit(ctx, id.PrivateKey, amount)
					},
					done: func(txID string) string {
						return fmt.Sprintf("Deposited %s into vault (tx %s)", common.FormatToken(amount), shortTx(txID))
					},
				},
			},
		}, nil
	})
}

func (c *Controller) depositAmount(s string) (*big.Int, error) {
	if s == "" {
		if c.settings.DepositAmount == nil || c.settings.DepositAmount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: DEPOSIT_AMOUNT must be greater than zero", ErrInvalidAmount)
		}
		return c.settings.DepositAmount, nil
	}
	return parseAmount(s)
}

// ClaimReward transfers the reward amount from the operator wallet to the user
func (c *Controller) ClaimReward(ctx context.Context) ([]model.TransactionRecord, error) {
	return c.execute(ctx, func(id *model.WalletIdentity) (*command, error) {
		if err := c.requireOperator(); err != nil {
			return nil, err
		}
		// Resolve the operator address to check the reward pool
		operator, err := c.client.AddressOf(c.settings.OperatorKey)
		if err != nil {
			return nil, fmt.Errorf("OPERATOR_PRIVATE_KEY: %w", err)
		}
		amount := c.settings.RewardAmount

		return &command{
			name: OpClaim,
			preconditions: []precondition{
				// Check operator balance
				func(ctx context.Context) error {
					if err := c.requireBalance(ctx, operator, amount); err != nil {
						return fmt.Errorf("reward pool: %w", err)
					}
					return nil
				},
			},
			// Send reward from operator to user
			steps: []step{{
				kind:   model.OperationTransfer,
				amount: amount,
				send: func(ctx context.Context) (string, error) {
					return c.client.Transfer(ctx, c.settings.OperatorKey, id.Address, amount)
				},
				done: func(txID string) string {
					return fmt.Sprintf("Reward of %s claimed (tx %s)", common.FormatToken(amount), shortTx(txID))
				},
			}},
		}, nil
	})
}
