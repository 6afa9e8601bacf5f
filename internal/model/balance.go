package model

import "time"

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address      string    `json:"address"`
	Balance      string    `json:"balance"`
	Known        bool      `json:"known"` // false until the first successful read
	VaultBalance string    `json:"vaultBalance,omitempty"`
	RefreshedAt  time.Time `json:"refreshedAt,omitempty"`
	Busy         bool      `json:"busy"`
}
