package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/identity"
	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/wallet"
)

// Wallet is the controller surface used by the HTTP handlers
type Wallet interface {
	Snapshot() wallet.State
	Activity() *activity.Log
	RefreshBalance(ctx context.Context) error
	FaucetMint(ctx context.Context) ([]model.TransactionRecord, error)
	Deposit(ctx context.Context, amount string) ([]model.TransactionRecord, error)
	ClaimReward(ctx context.Context) ([]model.TransactionRecord, error)
	Transfer(ctx context.Context, toAddress, amount string) ([]model.TransactionRecord, error)
}

// WalletHandler serves the wallet panel endpoints
type WalletHandler struct {
	wallet Wallet
}

func NewWalletHandler(w Wallet) *WalletHandler {
	return &WalletHandler{wallet: w}
}

// Identity handles GET /wallet/identity
// @Summary      Get wallet identity
// @Description  Returns the local wallet address, device tag and address QR code
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.IdentityResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /wallet/identity [get]
func (h *WalletHandler) Identity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	st := h.wallet.Snapshot()
	if st.Address == "" {
		writeError(w, http.StatusServiceUnavailable, "not_configured", errors.New("wallet identity not initialized"))
		return
	}
	qr, err := identity.QRCode(st.Address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusOK, model.IdentityResponse{
		Chain:     st.Chain,
		Address:   st.Address,
		DeviceTag: st.DeviceTag,
		QR:        qr,
	})
}

// Balance handles GET /wallet/balance
// @Summary      Get wallet balance
// @Description  Returns the last known token balance. refresh=true reads it from chain first; a failed read keeps the previous value.
// @Tags         wallet
// @Produce      json
// @Param        refresh  query     bool  false  "Read balance from chain first"
// @Success      200      {object}  model.BalanceResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		// failures are already in the activity log
		_ = h.wallet.RefreshBalance(r.Context())
	}

	writeJSON(w, http.StatusOK, balanceResponse(h.wallet.Snapshot()))
}

func balanceResponse(st wallet.State) model.BalanceResponse {
	resp := model.BalanceResponse{
		Address:     st.Address,
		Balance:     common.FormatToken(st.Balance),
		Known:       st.Balance != nil,
		RefreshedAt: st.RefreshedAt,
		Busy:        st.Busy,
	}
	if st.VaultBalance != nil {
		resp.VaultBalance = common.FormatToken(st.VaultBalance)
	}
	return resp
}

// Faucet handles POST /wallet/faucet
// @Summary      Faucet mint
// @Description  Mints the configured faucet amount to the wallet using the operator key
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.OperationResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /wallet/faucet [post]
func (h *WalletHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	records, err := h.wallet.FaucetMint(r.Context())
	h.respond(w, wallet.OpFaucet, records, err)
}

// Deposit handles POST /wallet/deposit
// @Summary      Deposit into vault
// @Description  Approves the vault and deposits the amount. Empty body or amount uses the configured deposit amount.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.DepositRequest  false  "Deposit amount"
// @Success      200      {object}  model.OperationResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallet/deposit [post]
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	records, err := h.wallet.Deposit(r.Context(), req.Amount)
	h.respond(w, wallet.OpDeposit, records, err)
}

// Claim handles POST /wallet/claim
// @Summary      Claim browsing reward
// @Description  Transfers the reward amount from the operator wallet to the user
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.OperationResponse
// @Router       /wallet/claim [post]
func (h *WalletHandler) Claim(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	records, err := h.wallet.ClaimReward(r.Context())
	h.respond(w, wallet.OpClaim, records, err)
}

// Transfer handles POST /wallet/transfer
// @Summary      Send tokens
// @Description  Sends tokens from the wallet to another address
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.TransferRequest  true  "Transfer data"
// @Success      200      {object}  model.OperationResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallet/transfer [post]
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	records, err := h.wallet.Transfer(r.Context(), req.ToAddress, req.Amount)
	h.respond(w, wallet.OpTransfer, records, err)
}

// Activity handles GET /wallet/activity
// @Summary      Get activity log
// @Description  Returns the most recent status lines, oldest first
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.ActivityResponse
// @Router       /wallet/activity [get]
func (h *WalletHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, model.ActivityResponse{Entries: h.wallet.Activity().Entries()})
}

func (h *WalletHandler) respond(w http.ResponseWriter, op string, records []model.TransactionRecord, err error) {
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.OperationResponse{Operation: op, Records: records})
}
