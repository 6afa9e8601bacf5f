package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/metrics"
	"github.com/AlexZinkM/browse-wallet/internal/model"
)

// precondition is checked before any transaction of a command is sent
type precondition func(ctx context.Context) error

// step is one signed, awaited transaction
type step struct {
	kind   model.OperationKind
	amount *big.Int
	// skip reports that the step is already satisfied on chain
	skip func(ctx context.Context) bool
	send func(ctx context.Context) (txID string, err error)
	// done is the activity line for a confirmed step
	done func(txID string) string
}

// command is a named sequence of steps guarded by preconditions
type command struct {
	name          string
	preconditions []precondition
	steps         []step
}

// execute runs cmd exclusively. Preconditions short-circuit in order, steps run
// in order and each is confirmed before the next starts. A balance refresh is
// scheduled afterwards whatever the outcome.
func (c *Controller) execute(ctx context.Context, build func(id *model.WalletIdentity) (*command, error)) ([]model.TransactionRecord, error) {
	// Reject while another operation is in flight
	if !c.busy.CompareAndSwap(false, true) {
		metrics.OperationsRejectedBusy.WithLabelValues(c.chain).Inc()
		c.log.Append("Please wait: another operation is in progress")
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	// Pending refresh is replaced by one after this operation
	c.cancelRefresh()
	defer c.scheduleRefresh()

	id, err := c.identity(ctx)
	if err != nil {
		c.log.Append(err.Error())
		return nil, err
	}

	cmd, err := build(id)
	if err != nil {
		c.log.Append(err.Error())
		return nil, err
	}

	start := time.Now()
	records, err := c.run(ctx, cmd)
	metrics.OperationLatency.WithLabelValues(c.chain, cmd.name).Observe(time.Since(start).Seconds())
	metrics.OperationsTotal.WithLabelValues(c.chain, cmd.name, outcome(err)).Inc()
	return records, err
}

func (c *Controller) run(ctx context.Context, cmd *command) ([]model.TransactionRecord, error) {
	// Validate everything before the first transaction
	for _, check := range cmd.preconditions {
		if err := check(ctx); err != nil {
			c.log.Appendf("%s aborted: %v", cmd.name, err)
			return nil, err
		}
	}

	records := make([]model.TransactionRecord, 0, len(cmd.steps))
	for _, s := range cmd.steps {
		rec := model.TransactionRecord{Kind: s.kind, Amount: common.FormatToken(s.amount)}

		// Already satisfied on chain
		if s.skip != nil && s.skip(ctx) {
			rec.Status = model.TxSkipped
			records = append(records, rec)
			c.logger.Debug("step skipped", "operation", cmd.name, "kind", s.kind)
			continue
		}

		// Send and wait for confirmation
		c.logger.Info("sending transaction", "operation", cmd.name, "kind", s.kind, "amount", rec.Amount)
		txID, err := s.send(ctx)
		rec.TxID = txID
		if err != nil {
			rec.Status = model.TxFailed
			records = append(records, rec)
			c.log.Appendf("%s failed at %s: %v", cmd.name, s.kind, err)
			return records, fmt.Errorf("%s %s: %w", cmd.name, s.kind, err)
		}

		rec.Status = model.TxConfirmed
		records = append(records, rec)
		c.log.Append(s.done(txID))
	}
	return records, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInsufficientBalance):
		return "rejected"
	case errors.Is(err, ErrNotConfigured):
		return "disabled"
	default:
		return "error"
	}
}

// requireBalance reads the balance of address and fails when it is below need
func (c *Controller) requireBalance(ctx context.Context, address string, need *big.Int) error {
	have, err := c.client.BalanceOf(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}
	if have.Cmp(need) < 0 {
		short := new(big.Int).Sub(need, have)
		return fmt.Errorf("%w: have %s, need %s (short by %s)", ErrInsufficientBalance,
			common.FormatToken(have), common.FormatToken(need), common.FormatToken(short))
	}
	return nil
}

// parseAmount accepts a positive decimal with at most 6 fractional digits
func parseAmount(s string) (*big.Int, error) {
	v, err := common.ParseToken(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w %q: must be greater than zero", ErrInvalidAmount, s)
	}
	return v, nil
}

func shortTx(txID string) string {
	if len(txID) <= 14 {
		return txID
	}
	return txID[:10] + "…" + txID[len(txID)-4:]
}
