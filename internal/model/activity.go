package model

import "time"

// ActivityEntry is one human-readable status line
type ActivityEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ActivityResponse represents response for GET /wallet/activity
type ActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}
