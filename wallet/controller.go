// Package wallet owns the application state of the browse-to-earn wallet and
// sequences its on-chain operations.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/config"
	"github.com/AlexZinkM/browse-wallet/internal/metrics"
	"github.com/AlexZinkM/browse-wallet/internal/model"
)

var (
	// ErrNotConfigured means a chain setting the operation depends on is missing
	ErrNotConfigured = errors.New("not configured")
	// ErrInvalidAddress is returned for a malformed recipient address
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidAmount is returned for unparsable or non-positive amounts
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance is returned before any transaction is sent
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBusy is returned while another operation is in flight
	ErrBusy = errors.New("another operation is in progress")
)

// IdentityResolver returns the local wallet identity, creating it on first use
type IdentityResolver interface {
	GetOrCreate(ctx context.Context) (*model.WalletIdentity, error)
}

// Settings are the fixed amounts and keys used by the operations
type Settings struct {
	OperatorKey   string
	FaucetAmount  *big.Int
	RewardAmount  *big.Int
	DepositAmount *big.Int
	RefreshDelay  time.Duration
}

// SettingsFromConfig parses the configured token amounts
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	faucet, err := common.ParseToken(cfg.FaucetAmount)
	if err != nil {
		return Settings{}, fmt.Errorf("FAUCET_AMOUNT: %w", err)
	}
	reward, err := common.ParseToken(cfg.RewardAmount)
	if err != nil {
		return Settings{}, fmt.Errorf("REWARD_AMOUNT: %w", err)
	}
	deposit, err := common.ParseToken(cfg.DepositAmount)
	if err != nil {
		return Settings{}, fmt.Errorf("DEPOSIT_AMOUNT: %w", err)
	}
	return Settings{
		OperatorKey:   cfg.OperatorKey,
		FaucetAmount:  faucet,
		RewardAmount:  reward,
		DepositAmount: deposit,
		RefreshDelay:  cfg.RefreshDelay,
	}, nil
}

// Options configure a Controller
type Options struct {
	Chain      string
	Identities IdentityResolver
	// Client is nil when RPC_URL or TOKEN_ADDRESS is missing; chain operations are then disabled
	Client   client.TokenClient
	Settings Settings
	// Missing lists unset chain settings, reported once by Init
	Missing []string

	Activity *activity.Log
	Logger   *slog.Logger
}

// State is an immutable snapshot of the controller
type State struct {
	Chain        string
	Address      string
	DeviceTag    string
	Balance      *big.Int // nil until the first successful read
	VaultBalance *big.Int
	RefreshedAt  time.Time
	Busy         bool
	Activity     []model.ActivityEntry
	Missing      []string
}

// Controller holds wallet state. All mutations go through its methods.
type Controller struct {
	chain      string
	identities IdentityResolver
	client     client.TokenClient
	settings   Settings
	missing    []string
	log        *activity.Log
	logger     *slog.Logger

	busy atomic.Bool

	mu           sync.RWMutex
	address      string
	deviceTag    string
	balance      *big.Int
	vaultBalance *big.Int
	refreshedAt  time.Time

	refreshMu sync.Mutex
	refresh   *pendingRefresh

	baseCtx context.Context
	stop    context.CancelFunc
}

type pendingRefresh struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	log := opts.Activity
	if log == nil {
		log = activity.New(logger)
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		chain:      opts.Chain,
		identities: opts.Identities,
		client:     opts.Client,
		settings:   opts.Settings,
		missing:    opts.Missing,
		log:        log,
		logger:     logger.With("component", "wallet"),
		baseCtx:    ctx,
		stop:       stop,
	}
}

// Init resolves the identity and reads the first balance.
// Only an identity failure is returned; chain problems are logged.
func (c *Controller) Init(ctx context.Context) error {
	id, err := c.identities.GetOrCreate(ctx)
	if err != nil {
		c.log.Appendf("Wallet initialization failed: %v", err)
		return fmt.Errorf("failed to resolve wallet identity: %w", err)
	}

	c.mu.Lock()
	c.address = id.Address
	c.deviceTag = id.DeviceTag
	c.mu.Unlock()

	c.log.Appendf("Wallet ready: %s (device %s)", id.Address, id.DeviceTag)

	if len(c.missing) > 0 {
		c.log.Appendf("Some operations are disabled, missing: %v", c.missing)
	}
	if c.client == nil {
		return nil
	}

	if d, err := c.client.Decimals(ctx); err != nil {
		c.logger.Warn("failed to read token decimals", "error", err)
	} else if int(d) != common.TokenDecimals {
		c.logger.Warn("token decimals differ from display scale", "decimals", d, "scale", common.TokenDecimals)
	}

	_ = c.RefreshBalance(ctx)
	return nil
}

// Close cancels any pending balance refresh
func (c *Controller) Close() {
	c.cancelRefresh()
	c.stop()
}

// Activity is the shared log, also written by the viewport
func (c *Controller) Activity() *activity.Log {
	return c.log
}

// Chain returns the configured chain name
func (c *Controller) Chain() string {
	return c.chain
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return State{
		Chain:        c.chain,
		Address:      c.address,
		DeviceTag:    c.deviceTag,
		Balance:      copyInt(c.balance),
		VaultBalance: copyInt(c.vaultBalance),
		RefreshedAt:  c.refreshedAt,
		Busy:         c.busy.Load(),
		Activity:     c.log.Entries(),
		Missing:      append([]string(nil), c.missing...),
	}
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func (c *Controller) identity(ctx context.Context) (*model.WalletIdentity, error) {
	id, err := c.identities.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallet identity: %w", err)
	}
	return id, nil
}

// scheduleRefresh replaces any pending refresh with a new one after RefreshDelay
func (c *Controller) scheduleRefresh() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refresh != nil {
		c.refresh.timer.Stop()
		c.refresh.cancel()
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	p := &pendingRefresh{cancel: cancel}
	p.timer = time.AfterFunc(c.settings.RefreshDelay, func() {
		defer cancel()
		if err := c.RefreshBalance(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Debug("scheduled balance refresh failed", "error", err)
		}
		c.refreshMu.Lock()
		if c.refresh == p {
			c.refresh = nil
		}
		c.refreshMu.Unlock()
	})
	c.refresh = p
}

// cancelRefresh stops the pending refresh, reporting whether one was pending
func (c *Controller) cancelRefresh() bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refresh == nil {
		return false
	}
	c.refresh.timer.Stop()
	c.refresh.cancel()
	c.refresh = nil
	metrics.BalanceRefreshCancelled.WithLabelValues(c.chain).Inc()
	return true
}

func (c *Controller) refreshPending() bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refresh != nil
}
