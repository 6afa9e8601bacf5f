package api

import (
	"net/http"

	"github.com/AlexZinkM/browse-wallet/internal/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(walletHandler *handler.WalletHandler, browserHandler *handler.BrowserHandler, limiter *RateLimitMiddleware) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// Browser
	mux.HandleFunc("/", browserHandler.Page)
	mux.HandleFunc("/browser/navigate", browserHandler.Navigate)
	mux.HandleFunc("/browser/links", browserHandler.Links)

	// Wallet endpoints
	mux.HandleFunc("/wallet/identity", walletHandler.Identity)
	mux.HandleFunc("/wallet/balance", walletHandler.Balance)
	mux.HandleFunc("/wallet/activity", walletHandler.Activity)
	mux.HandleFunc("/wallet/faucet", walletHandler.Faucet)
	mux.HandleFunc("/wallet/deposit", walletHandler.Deposit)
	mux.HandleFunc("/wallet/claim", walletHandler.Claim)
	mux.HandleFunc("/wallet/transfer", walletHandler.Transfer)

	if limiter == nil {
		return mux
	}
	return limiter.Wrap(mux)
}
