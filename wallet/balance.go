package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/metrics"
)

// RefreshBalance reads the token balance of the wallet address.
// On failure the previous balance is kept and the error is logged.
func (c *Controller) RefreshBalance(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("chain client: %w", ErrNotConfigured)
	}

	id, err := c.identity(ctx)
	if err != nil {
		return err
	}

	balance, err := c.client.BalanceOf(ctx, id.Address)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.BalanceRefreshTotal.WithLabelValues(c.chain, "error").Inc()
		c.log.Appendf("Balance refresh failed: %v", err)
		return fmt.Errorf("failed to read balance: %w", err)
	}

	vault, err := c.client.VaultBalanceOf(ctx, id.Address)
	if err != nil {
		if !errors.Is(err, client.ErrUnsupported) {
			c.logger.Debug("vault balance unavailable", "error", err)
		}
		vault = nil
	}

	c.mu.Lock()
	changed := c.balance == nil || c.balance.Cmp(balance) != 0
	c.balance = balance
	c.vaultBalance = vault
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	metrics.BalanceRefreshTotal.WithLabelValues(c.chain, "ok").Inc()
	if changed {
		c.log.Appendf("Balance: %s", common.FormatToken(balance))
	}
	return nil
}
