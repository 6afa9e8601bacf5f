package model

// OperationKind is the kind of on-chain call issued by an operation step
type OperationKind string

const (
	OperationMint     OperationKind = "mint"
	OperationApprove  OperationKind = "approve"
	OperationTransfer OperationKind = "transfer"
	OperationDeposit  OperationKind = "deposit"
)

// TxStatus is the outcome of a single step
type TxStatus string

const (
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
	TxSkipped   TxStatus = "skipped" // approve skipped, allowance already covers the amount
)

// TransactionRecord is the ephemeral result of one on-chain step
type TransactionRecord struct {
	Kind   OperationKind `json:"kind"`
	Amount string        `json:"amount"`
	TxID   string        `json:"txId,omitempty"`
	Status TxStatus      `json:"status"`
}

// OperationResponse represents response for POST /wallet/{faucet,deposit,claim,transfer}
type OperationResponse struct {
	Operation string              `json:"operation"`
	Records   []TransactionRecord `json:"records"`
}
