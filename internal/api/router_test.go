package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/client"
	"github.com/AlexZinkM/browse-wallet/internal/handler"
	"github.com/AlexZinkM/browse-wallet/internal/identity"
	"github.com/AlexZinkM/browse-wallet/internal/storage"
	"github.com/AlexZinkM/browse-wallet/internal/viewport"
	"github.com/AlexZinkM/browse-wallet/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := activity.New(nil)

	ids := identity.New(identity.Options{Chain: "evm", Keys: client.EVMKeys{}, Storage: storage.NewMemoryStore()})
	ctrl := wallet.New(wallet.Options{Chain: "evm", Identities: ids, Activity: log, Missing: []string{"RPC_URL"}})
	t.Cleanup(ctrl.Close)
	require.NoError(t, ctrl.Init(context.Background()))

	vp := viewport.New(viewport.Options{SearchURL: "https://duckduckgo.com/?q=", Activity: log})

	rl := NewRateLimitMiddleware(nil, 1)
	t.Cleanup(rl.Stop)

	return SetupRouter(handler.NewWalletHandler(ctrl), handler.NewBrowserHandler(vp, ctrl), rl)
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/wallet/identity", http.StatusOK},
		{http.MethodGet, "/wallet/balance", http.StatusOK},
		{http.MethodGet, "/wallet/activity", http.StatusOK},
		{http.MethodGet, "/browser/links", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/wallet/faucet", http.StatusServiceUnavailable},
		{http.MethodPost, "/wallet/faucet", http.StatusTooManyRequests},
		{http.MethodGet, "/wallet/faucet", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equalf(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}
