package wallet

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/model"
)

// Transfer sends amount of the token from the wallet to toAddress.
// Address and amount are validated before any network call.
func (c *Controller) Transfer(ctx context.Context, toAddress, amountStr string) ([]model.TransactionRecord, error) {
	return c.execute(ctx, func(id *model.WalletIdentity) (*command, error) {
		if err := c.requireClient(); err != nil {
			return nil, err
		}

		// Parse amount up front, reported after the address check
		amount, amountErr := parseAmount(amountStr)

		return &command{
			name: OpTransfer,
			preconditions: []precondition{
				// Validate recipient address
				func(context.Context) error {
					if err := c.client.ValidateAddress(toAddress); err != nil {
						return fmt.Errorf("%w %q", ErrInvalidAddress, toAddress)
					}
					return nil
				},
				// Validate amount
				func(context.Context) error { return amountErr },
				// Check balance
				func(ctx context.Context) error { return c.requireBalance(ctx, id.Address, amount) },
			},
			// Create and send transfer transaction
			steps: []step{{
				kind:   model.OperationTransfer,
				amount: amount,
				send: func(ctx context.Context) (string, error) {
					return c.client.Transfer(ctx, id.PrivateKey, toAddress, amount)
				},
				done: func(txID string) string {
					return fmt.Sprintf("Sent %s to %s (tx %s)", common.FormatToken(amount), toAddress, shortTx(txID))
				},
			}},
		}, nil
	})
}
