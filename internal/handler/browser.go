package handler

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/common"
	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/internal/viewport"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Browser is the viewport surface used by the HTTP handlers
type Browser interface {
	Navigate(ctx context.Context, input string) (*model.NavigateResponse, error)
	QuickLinks() []model.QuickLink
	Current() model.NavigateResponse
}

// BrowserHandler serves the page and the address bar endpoints
type BrowserHandler struct {
	browser Browser
	wallet  Wallet
}

func NewBrowserHandler(b Browser, w Wallet) *BrowserHandler {
	return &BrowserHandler{browser: b, wallet: w}
}

type pageData struct {
	Sandbox    string
	Frame      model.NavigateResponse
	QuickLinks []model.QuickLink
	Address    string
	DeviceTag  string
	Balance    string
	Activity   []string
}

// Page handles GET /
func (h *BrowserHandler) Page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	st := h.wallet.Snapshot()
	lines := make([]string, len(st.Activity))
	for i, e := range st.Activity {
		lines[i] = activity.Format(e)
	}

	data := pageData{
		Sandbox:    viewport.Sandbox,
		Frame:      h.browser.Current(),
		QuickLinks: h.browser.QuickLinks(),
		Address:    st.Address,
		DeviceTag:  st.DeviceTag,
		Balance:    common.FormatToken(st.Balance),
		Activity:   lines,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Navigate handles POST /browser/navigate
// @Summary      Navigate the viewport
// @Description  Normalizes the address bar input and checks whether the target can be embedded. Blocked targets carry fallback links.
// @Tags         browser
// @Accept       json
// @Produce      json
// @Param        request  body      model.NavigateRequest  true  "Address bar input"
// @Success      200      {object}  model.NavigateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /browser/navigate [post]
func (h *BrowserHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req model.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	resp, err := h.browser.Navigate(r.Context(), req.Input)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Links handles GET /browser/links
// @Summary      Quick links
// @Description  Returns the quick-access destinations
// @Tags         browser
// @Produce      json
// @Success      200  {array}  model.QuickLink
// @Router       /browser/links [get]
func (h *BrowserHandler) Links(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.browser.QuickLinks())
}
