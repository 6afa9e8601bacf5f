package model

// TransferRequest represents request for POST /wallet/transfer
type TransferRequest struct {
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// DepositRequest represents request for POST /wallet/deposit.
// Empty amount falls back to the configured deposit amount.
type DepositRequest struct {
	Amount string `json:"amount"`
}
