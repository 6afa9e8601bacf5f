package model

// ErrorResponse is returned by every endpoint on failure.
// Code is one of invalid_address, invalid_amount, insufficient_balance,
// invalid_url, invalid_body, busy, not_configured, chain_error, rate_limited
// or internal.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
