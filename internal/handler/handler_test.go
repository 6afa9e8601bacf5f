package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/internal/viewport"
	"github.com/AlexZinkM/browse-wallet/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWallet struct {
	state     wallet.State
	log       *activity.Log
	err       error
	refreshed bool
	deposit   string
	transfer  [2]string
}

func (f *fakeWallet) Snapshot() wallet.State { return f.state }

func (f *fakeWallet) Activity() *activity.Log { return f.log }

func (f *fakeWallet) RefreshBalance(context.Context) error {
	f.refreshed = true
	return f.err
}

func (f *fakeWallet) records(kind model.OperationKind) ([]model.TransactionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.TransactionRecord{{Kind: kind, Amount: "1.000000", TxID: "0xabc", Status: model.TxConfirmed}}, nil
}

func (f *fakeWallet) FaucetMint(context.Context) ([]model.TransactionRecord, error) {
	return f.records(model.OperationMint)
}

func (f *fakeWallet) Deposit(_ context.Context, amount string) ([]model.TransactionRecord, error) {
	f.deposit = amount
	return f.records(model.OperationDeposit)
}

func (f *fakeWallet) ClaimReward(context.Context) ([]model.TransactionRecord, error) {
	return f.records(model.OperationTransfer)
}

func (f *fakeWallet) Transfer(_ context.Context, to, amount string) ([]model.TransactionRecord, error) {
	f.transfer = [2]string{to, amount}
	return f.records(model.OperationTransfer)
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		state: wallet.State{
			Chain:     "evm",
			Address:   "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
			DeviceTag: "0123456789abcdef",
			Balance:   big.NewInt(30_000_000),
		},
		log: activity.New(nil),
	}
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestIdentity(t *testing.T) {
	h := NewWalletHandler(newFakeWallet())

	rec := do(t, h.Identity, http.MethodGet, "/wallet/identity", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.IdentityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", resp.Address)
	assert.Equal(t, "0123456789abcdef", resp.DeviceTag)
	assert.NotEmpty(t, resp.QR)
}

func TestIdentity_NotInitialized(t *testing.T) {
	fw := newFakeWallet()
	fw.state.Address = ""
	h := NewWalletHandler(fw)

	rec := do(t, h.Identity, http.MethodGet, "/wallet/identity", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_configured", resp.Code)
}

func TestBalance(t *testing.T) {
	fw := newFakeWallet()
	h := NewWalletHandler(fw)

	rec := do(t, h.Balance, http.MethodGet, "/wallet/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fw.refreshed)

	var resp model.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "30.000000", resp.Balance)
	assert.True(t, resp.Known)

	fw.err = errors.New("rpc down")
	rec = do(t, h.Balance, http.MethodGet, "/wallet/balance?refresh=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fw.refreshed)
}

func TestBalance_MethodNotAllowed(t *testing.T) {
	h := NewWalletHandler(newFakeWallet())
	rec := do(t, h.Balance, http.MethodPost, "/wallet/balance", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOperations(t *testing.T) {
	fw := newFakeWallet()
	h := NewWalletHandler(fw)

	rec := do(t, h.Faucet, http.MethodPost, "/wallet/faucet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, wallet.OpFaucet, resp.Operation)
	assert.Equal(t, model.OperationMint, resp.Records[0].Kind)

	rec = do(t, h.Deposit, http.MethodPost, "/wallet/deposit", "")
	assert.Equal(t, http.StatusOK, rec.Code, "empty body uses the default amount")
	assert.Equal(t, "", fw.deposit)

	rec = do(t, h.Deposit, http.MethodPost, "/wallet/deposit", `{"amount":"25"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "25", fw.deposit)

	rec = do(t, h.Claim, http.MethodPost, "/wallet/claim", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.Transfer, http.MethodPost, "/wallet/transfer", `{"toAddress":"0xabc","amount":"1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"0xabc", "1"}, fw.transfer)

	rec = do(t, h.Transfer, http.MethodPost, "/wallet/transfer", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{wallet.ErrBusy, http.StatusConflict, "busy"},
		{fmt.Errorf("VAULT_ADDRESS: %w", wallet.ErrNotConfigured), http.StatusServiceUnavailable, "not_configured"},
		{fmt.Errorf("%w \"x\"", wallet.ErrInvalidAddress), http.StatusBadRequest, "invalid_address"},
		{fmt.Errorf("%w \"0\"", wallet.ErrInvalidAmount), http.StatusBadRequest, "invalid_amount"},
		{fmt.Errorf("%w: have 0", wallet.ErrInsufficientBalance), http.StatusBadRequest, "insufficient_balance"},
		{errors.New("execution reverted"), http.StatusBadGateway, "chain_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			fw := newFakeWallet()
			fw.err = tt.err
			rec := do(t, NewWalletHandler(fw).Claim, http.MethodPost, "/wallet/claim", "")
			assert.Equal(t, tt.status, rec.Code)

			var resp model.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestActivity(t *testing.T) {
	fw := newFakeWallet()
	fw.log.Append("Wallet ready")
	h := NewWalletHandler(fw)

	rec := do(t, h.Activity, http.MethodGet, "/wallet/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "Wallet ready", resp.Entries[0].Message)
}

func newBrowserHandler() (*BrowserHandler, *fakeWallet) {
	fw := newFakeWallet()
	v := viewport.New(viewport.Options{
		SearchURL:  "https://duckduckgo.com/?q=",
		QuickLinks: []model.QuickLink{{Title: "Example", URL: "https://example.org"}},
		Activity:   fw.log,
	})
	return NewBrowserHandler(v, fw), fw
}

func TestNavigate(t *testing.T) {
	h, fw := newBrowserHandler()

	rec := do(t, h.Navigate, http.MethodPost, "/browser/navigate", `{"input":"example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.NavigateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://example.com", resp.Target)
	assert.Equal(t, viewport.Sandbox, resp.Sandbox)
	assert.NotEmpty(t, fw.log.Entries())

	rec = do(t, h.Navigate, http.MethodPost, "/browser/navigate", `{"input":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinks(t *testing.T) {
	h, _ := newBrowserHandler()

	rec := do(t, h.Links, http.MethodGet, "/browser/links", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var links []model.QuickLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	assert.Equal(t, "Example", links[0].Title)
}

func TestPage(t *testing.T) {
	h, _ := newBrowserHandler()
	_, err := h.browser.Navigate(context.Background(), "example.com")
	require.NoError(t, err)

	rec := do(t, h.Page, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `sandbox="allow-scripts allow-same-origin allow-popups allow-forms"`)
	assert.Contains(t, body, `src="https://example.com"`)
	assert.Contains(t, body, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	assert.Contains(t, body, "30.000000")

	rec = do(t, h.Page, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
