package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/api"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/config"
	"github.com/AlexZinkM/browse-wallet/internal/crypto"
	"github.com/AlexZinkM/browse-wallet/internal/handler"
	"github.com/AlexZinkM/browse-wallet/internal/identity"
	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/internal/storage"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// withApp builds the app, resolves the wallet and runs fn
func withApp(c *cli.Context, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config.Get(), slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.wallet.Init(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the local browser and wallet UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "serve address (default BIND_HOST:PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				addr := c.String("addr")
				if addr == "" {
					addr = a.cfg.ListenAddr()
				}

				limiter := api.NewRateLimitMiddleware(a.logger, a.cfg.RateLimitPerMinute)
				defer limiter.Stop()
				if err := limiter.TrustProxies(a.cfg.TrustedProxies); err != nil {
					return fmt.Errorf("TRUSTED_PROXIES: %w", err)
				}
				if rs, ok := a.store.(*storage.RedisStore); ok {
					limiter.UseShared(api.NewRedisLimiter(rs.Client(), rs.Namespace(), a.cfg.RateLimitPerMinute))
				}

				srv := &http.Server{
					Addr:              addr,
					Handler:           api.SetupRouter(handler.NewWalletHandler(a.wallet), handler.NewBrowserHandler(a.viewport, a.wallet), limiter),
					ReadHeaderTimeout: 10 * time.Second,
				}

				errWg, errCtx := errgroup.WithContext(ctx)

				errWg.Go(func() error {
					a.logger.Info("listening", "addr", "http://"+addr, "chain", a.cfg.Chain, "storage", a.cfg.StorageBackend)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})

				errWg.Go(func() error {
					<-errCtx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})

				return errWg.Wait()
			})
		},
	}
}

func commandIdentity() *cli.Command {
	return &cli.Command{
		Name:  "identity",
		Usage: "print the wallet address and device tag, creating the wallet on first use",
		Action: func(c *cli.Context) error {
			return withApp(c, func(_ context.Context, a *app) error {
				st := a.wallet.Snapshot()
				fmt.Printf("chain:   %s\naddress: %s\ndevice:  %s\n", st.Chain, st.Address, st.DeviceTag)
				return nil
			})
		},
	}
}

func commandBalance() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "read the token balance",
		Action: func(c *cli.Context) error {
			return withApp(c, func(_ context.Context, a *app) error {
				st := a.wallet.Snapshot()
				if st.Balance == nil {
					printActivity(a.wallet.Activity())
					return errors.New("balance unavailable")
				}
				fmt.Printf("%s %s\n", st.Address, common.FormatToken(st.Balance))
				if st.VaultBalance != nil {
					fmt.Printf("vault   %s\n", common.FormatToken(st.VaultBalance))
				}
				return nil
			})
		},
	}
}

func commandFaucet() *cli.Command {
	return &cli.Command{
		Name:  "faucet",
		Usage: "mint the faucet amount to the wallet",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				return report(a, func() ([]model.TransactionRecord, error) { return a.wallet.FaucetMint(ctx) })
			})
		},
	}
}

func commandDeposit() *cli.Command {
	return &cli.Command{
		Name:  "deposit",
		Usage: "approve the vault and deposit tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "amount", Usage: "token amount (default DEPOSIT_AMOUNT)"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				return report(a, func() ([]model.TransactionRecord, error) { return a.wallet.Deposit(ctx, c.String("amount")) })
			})
		},
	}
}

func commandClaim() *cli.Command {
	return &cli.Command{
		Name:  "claim",
		Usage: "claim the browsing reward from the operator wallet",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				return report(a, func() ([]model.TransactionRecord, error) { return a.wallet.ClaimReward(ctx) })
			})
		},
	}
}

func commandTransfer() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "send tokens to another address",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Usage: "recipient address", Required: true},
			&cli.StringFlag{Name: "amount", Usage: "token amount", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app) error {
				return report(a, func() ([]model.TransactionRecord, error) {
					return a.wallet.Transfer(ctx, c.String("to"), c.String("amount"))
				})
			})
		},
	}
}

func commandNavigate() *cli.Command {
	return &cli.Command{
		Name:      "navigate",
		Usage:     "resolve address bar input and check whether it can be embedded",
		ArgsUsage: "<url or search text>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("missing address")
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, config.Get(), slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.viewport.Navigate(ctx, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("target:  %s\nsandbox: %s\n", resp.Target, resp.Sandbox)
			if resp.Blocked {
				fmt.Printf("blocked: %s\n", resp.Reason)
				for _, l := range resp.Fallbacks {
					fmt.Printf("  try %s  %s\n", l.Title, l.URL)
				}
			}
			return nil
		},
	}
}

func commandReseal() *cli.Command {
	return &cli.Command{
		Name:  "reseal",
		Usage: "seal the stored identity under a new password, or store it in plain text with --plain",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "plain", Usage: "remove the password"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			store, closeStore, err := openStore(ctx, config.Get())
			if err != nil {
				return err
			}
			defer closeStore()

			data, err := store.Get(ctx, identity.RecordKey)
			if errors.Is(err, storage.ErrNotFound) {
				return errors.New("no identity stored yet")
			}
			if err != nil {
				return err
			}

			var oldPassword, newPassword []byte
			if crypto.IsSealed(data) {
				if oldPassword, err = config.ReadPassword("Current password: "); err != nil {
					return err
				}
				defer clear(oldPassword)
			}
			if !c.Bool("plain") {
				if newPassword, err = config.ReadPassword("New password: "); err != nil {
					return err
				}
				defer clear(newPassword)
			}

			address, err := identity.Reseal(ctx, store, oldPassword, newPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "identity %s rewritten\n", address)
			if newPassword != nil {
				fmt.Fprintln(os.Stderr, "start with WALLET_SEAL=true to unlock it")
			}
			return nil
		},
	}
}

// report runs op and prints its records followed by the activity log
func report(a *app, op func() ([]model.TransactionRecord, error)) error {
	records, err := op()
	for _, r := range records {
		fmt.Printf("%-8s %-10s %-9s %s\n", r.Kind, r.Amount, r.Status, r.TxID)
	}
	printActivity(a.wallet.Activity())
	return err
}

func printActivity(log *activity.Log) {
	for _, line := range log.Lines() {
		fmt.Fprintln(os.Stderr, line)
	}
}
