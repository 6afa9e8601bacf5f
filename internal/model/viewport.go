package model

// QuickLink is a fixed destination shortcut shown next to the address bar
type QuickLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NavigateRequest represents request for POST /browser/navigate
type NavigateRequest struct {
	Input string `json:"input" binding:"required"`
}

// NavigateResponse represents response for POST /browser/navigate.
// When Blocked is set the frame must not be rendered; show Fallbacks instead.
type NavigateResponse struct {
	Target    string      `json:"target"`
	Sandbox   string      `json:"sandbox"`
	Blocked   bool        `json:"blocked"`
	Reason    string      `json:"reason,omitempty"`
	Fallbacks []QuickLink `json:"fallbacks,omitempty"`
}
