// Package viewport resolves address bar input into a frame target and checks
// whether the target allows being embedded.
package viewport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/activity"
	"github.com/AlexZinkM/browse-wallet/internal/metrics"
	"github.com/AlexZinkM/browse-wallet/internal/model"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// Sandbox is the fixed capability set of the embedded frame
const Sandbox = "allow-scripts allow-same-origin allow-popups allow-forms"

const (
	userAgent = "browse-wallet/1.0 (+frame probe)"

	probeBackoff = 250 * time.Millisecond
	probeJitter  = 50 * time.Millisecond
)

var (
	ErrEmptyInput        = errors.New("empty address")
	ErrUnsupportedScheme = errors.New("only http and https addresses can be opened")
)

// Options configure a Viewport
type Options struct {
	SearchURL  string
	QuickLinks []model.QuickLink
	// Probe enables the embeddability check before a target is framed
	Probe        bool
	ProbeTimeout time.Duration
	// ProbeRetries is how often a failed or 5xx probe is repeated
	ProbeRetries int
	// HTTPClient overrides the transport used by the probe
	HTTPClient heimdall.Doer

	Activity *activity.Log
	Logger   *slog.Logger
}

// Viewport tracks the current frame target
type Viewport struct {
	searchURL string
	links     []model.QuickLink
	probe     bool
	timeout   time.Duration
	http      *httpclient.Client
	log       *activity.Log
	logger    *slog.Logger

	mu      sync.RWMutex
	current model.NavigateResponse
}

func New(opts Options) *Viewport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	log := opts.Activity
	if log == nil {
		log = activity.New(logger)
	}
	clientOpts := []httpclient.Option{
		httpclient.WithHTTPTimeout(opts.ProbeTimeout),
		httpclient.WithRetryCount(opts.ProbeRetries),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(probeBackoff, probeJitter))),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(opts.HTTPClient))
	}
	return &Viewport{
		searchURL: opts.SearchURL,
		links:     append([]model.QuickLink(nil), opts.QuickLinks...),
		probe:     opts.Probe,
		timeout:   opts.ProbeTimeout,
		http:      httpclient.NewClient(clientOpts...),
		log:       log,
		logger:    logger.With("component", "viewport"),
	}
}

// QuickLinks returns the configured shortcuts
func (v *Viewport) QuickLinks() []model.QuickLink {
	return append([]model.QuickLink(nil), v.links...)
}

// Current returns the last navigation result
func (v *Viewport) Current() model.NavigateResponse {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Navigate normalizes input and, when probing is enabled, checks that the
// target can be framed. A blocked target carries the quick links as fallbacks.
func (v *Viewport) Navigate(ctx context.Context, input string) (*model.NavigateResponse, error) {
	target, search, err := Normalize(input, v.searchURL)
	if err != nil {
		v.log.Appendf("Cannot open %q: %v", input, err)
		return nil, err
	}

	resp := &model.NavigateResponse{Target: target, Sandbox: Sandbox}
	if search {
		v.log.Appendf("Searching for %q", strings.TrimSpace(input))
	} else {
		v.log.Appendf("Opening %s", target)
	}

	if v.probe {
		if reason := v.check(ctx, target); reason != "" {
			resp.Blocked = true
			resp.Reason = reason
			resp.Fallbacks = v.QuickLinks()
			v.log.Appendf("%s cannot be shown here: %s", target, reason)
		}
	}

	result := "framed"
	switch {
	case resp.Blocked:
		result = "blocked"
	case search:
		result = "search"
	}
	metrics.NavigationsTotal.WithLabelValues(result).Inc()

	v.mu.Lock()
	v.current = *resp
	v.mu.Unlock()
	return resp, nil
}

// check returns why target cannot be framed, or "" when it can
func (v *Viewport) check(ctx context.Context, target string) string {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err.Error()
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	res, err := v.http.Do(req)
	metrics.ProbeLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		v.logger.Debug("probe failed", "target", target, "error", err)
		return "site could not be reached"
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	// heimdall hands back the last 5xx once retries are exhausted
	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Sprintf("site returned %d", res.StatusCode)
	}

	return FrameBlockReason(res.Header)
}

// FrameBlockReason inspects X-Frame-Options and the CSP frame-ancestors
// directive. It returns "" when any origin may embed the response.
func FrameBlockReason(h http.Header) string {
	for _, xfo := range h.Values("X-Frame-Options") {
		switch strings.ToUpper(strings.TrimSpace(xfo)) {
		case "DENY", "SAMEORIGIN":
			return "site refuses to be embedded (X-Frame-Options " + strings.ToUpper(strings.TrimSpace(xfo)) + ")"
		}
	}

	for _, csp := range h.Values("Content-Security-Policy") {
		for _, directive := range strings.Split(csp, ";") {
			fields := strings.Fields(directive)
			if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
				continue
			}
			if !allowsAnyAncestor(fields[1:]) {
				return "site refuses to be embedded (frame-ancestors " + strings.Join(fields[1:], " ") + ")"
			}
		}
	}
	return ""
}

func allowsAnyAncestor(sources []string) bool {
	for _, s := range sources {
		if s == "*" {
			return true
		}
	}
	return false
}

// Normalize turns address bar input into an absolute URL. Input without a
// scheme gets https://; input that does not look like a host becomes a search.
func Normalize(input, searchURL string) (target string, search bool, err error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return "", false, ErrEmptyInput
	}

	if i := strings.Index(in, "://"); i > 0 {
		u, err := url.Parse(in)
		if err != nil {
			return "", false, fmt.Errorf("invalid address: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", false, ErrUnsupportedScheme
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid address %q: missing host", in)
		}
		return u.String(), false, nil
	}

	if looksLikeHost(in) {
		u, err := url.Parse("https://" + in)
		if err == nil && u.Host != "" {
			return u.String(), false, nil
		}
	}

	if searchURL == "" {
		return "", false, fmt.Errorf("invalid address %q", in)
	}
	return searchURL + url.QueryEscape(in), true, nil
}

func looksLikeHost(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	host := s
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "localhost" || (strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, "."))
}

// ParseQuickLinks parses "Title=URL" entries
func ParseQuickLinks(entries []string) ([]model.QuickLink, error) {
	links := make([]model.QuickLink, 0, len(entries))
	for _, e := range entries {
		title, raw, ok := strings.Cut(e, "=")
		title, raw = strings.TrimSpace(title), strings.TrimSpace(raw)
		if !ok || title == "" || raw == "" {
			return nil, fmt.Errorf("quick link %q must look like Title=URL", e)
		}
		target, search, err := Normalize(raw, "")
		if err != nil || search {
			return nil, fmt.Errorf("quick link %q: invalid url", e)
		}
		links = append(links, model.QuickLink{Title: title, URL: target})
	}
	return links, nil
}
