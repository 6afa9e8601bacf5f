package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/AlexZinkM/browse-wallet/docs"
	"github.com/AlexZinkM/browse-wallet/internal/config"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func init() {
	//nolint:errcheck
	godotenv.Load("./.env")
}

// @title           browse-wallet API
// @version         1.0
// @description     Local custodial token wallet with an embedded site viewer.
// @host            localhost:8080
// @BasePath        /
func main() {
	app := &cli.App{
		Name:  "browsewallet",
		Usage: "earn demo tokens while browsing",
		Before: func(c *cli.Context) error {
			if err := config.Init(); err != nil {
				return err
			}
			cfg := config.Get()
			slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))
			return nil
		},
		Commands: []*cli.Command{
			commandServe(),
			commandIdentity(),
			commandBalance(),
			commandFaucet(),
			commandDeposit(),
			commandClaim(),
			commandTransfer(),
			commandNavigate(),
			commandReseal(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
