// Package cloudflare drives the Browser Rendering markdown endpoint used to
// extract article text. Every call is billed by browser milliseconds, so the
// client surfaces the billed amount and classifies rate and quota pushback
// precisely enough for callers to gate further work
package cloudflare

import (
	"bytes"
	"context"
	json "encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"newsdesk/internal/core/blockpage"
	"newsdesk/internal/platform/logger"
)

const (
	baseURLDefault = "https://api.cloudflare.com/client/v4"
	defaultTimeout = 60 * time.Second

	// the renderer rejects goto timeouts above a minute
	maxGotoTimeoutMs = 60000

	// anything shorter is an error page or an empty shell, not an article
	minContentChars = 50

	defaultRetryAfter = 60 * time.Second

	quotaMarker = "time limit exceeded for today"
)

// Outcome classifies one render attempt
type Outcome string

// Outcome values mirror the story status vocabulary
const (
	OutcomeDone          Outcome = "done"
	OutcomeBlocked       Outcome = "blocked"
	OutcomeFailed        Outcome = "failed"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
)

// Result is the interpreted response of one render call
type Result struct {
	Content    string
	Outcome    Outcome
	BilledMs   float64
	Detail     string
	RetryAfter time.Duration // set for rate_limited
}

// Options configures the Client
type Options struct {
	AccountID string
	APIToken  string
	BaseURL   string
	Timeout   time.Duration

	// GotoTimeoutMs is how long the headless browser waits for the page,
	// capped at maxGotoTimeoutMs
	GotoTimeoutMs int
}

// Client renders URLs to markdown
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.GotoTimeoutMs <= 0 {
		o.GotoTimeoutMs = 2000
	}
	if o.GotoTimeoutMs > maxGotoTimeoutMs {
		o.GotoTimeoutMs = maxGotoTimeoutMs
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("cloudflare"),
	}
}

type renderRequest struct {
	URL         string `json:"url"`
	GotoOptions struct {
		Timeout int `json:"timeout"`
	} `json:"gotoOptions"`
}

type renderResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Errors  []any  `json:"errors"`
}

// Render fetches url through the headless browser and interprets the reply.
// Transport and decode failures never escape as errors; they come back as
// failed or timeout results so the worker finalization stays uniform
func (c *Client) Render(ctx context.Context, url string) Result {
	var req renderRequest
	req.URL = url
	req.GotoOptions.Timeout = c.opts.GotoTimeoutMs

	body, err := json.Marshal(req)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Detail: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/browser-rendering/markdown", c.opts.BaseURL, c.opts.AccountID)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Detail: err.Error()}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Authorization", "Bearer "+c.opts.APIToken)

	resp, err := c.http.Do(hreq)
	if err != nil {
		if isTimeout(err) {
			return Result{Outcome: OutcomeTimeout, Detail: "request timed out"}
		}
		return Result{Outcome: OutcomeFailed, Detail: err.Error()}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("cloudflare close body failed")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		if isTimeout(err) {
			return Result{Outcome: OutcomeTimeout, Detail: "read timed out"}
		}
		return Result{Outcome: OutcomeFailed, Detail: err.Error()}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.classify429(resp, raw)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Outcome: OutcomeFailed, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	billed := parseBilledMs(resp.Header)

	var env renderResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{Outcome: OutcomeFailed, BilledMs: billed, Detail: err.Error()}
	}
	if !env.Success {
		return Result{Outcome: OutcomeFailed, BilledMs: billed, Detail: fmt.Sprintf("%v", env.Errors)}
	}

	content := env.Result
	if len([]rune(strings.TrimSpace(content))) < minContentChars {
		return Result{Outcome: OutcomeFailed, BilledMs: billed, Detail: "empty content"}
	}
	if blockpage.Detect(content) {
		return Result{Content: content, Outcome: OutcomeBlocked, BilledMs: billed, Detail: "blocking detected"}
	}
	return Result{Content: content, Outcome: OutcomeDone, BilledMs: billed}
}

// classify429 splits daily quota exhaustion from ordinary rate limiting
func (c *Client) classify429(resp *http.Response, raw []byte) Result {
	var env renderResponse
	if err := json.Unmarshal(raw, &env); err == nil {
		msg := strings.ToLower(fmt.Sprintf("%v", env.Errors))
		if strings.Contains(msg, quotaMarker) {
			c.log.Warn().Msg("cloudflare daily quota exceeded")
			return Result{Outcome: OutcomeQuotaExceeded, Detail: "daily quota exceeded"}
		}
	}
	wait := defaultRetryAfter
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if sec, err := strconv.Atoi(ra); err == nil && sec > 0 {
			wait = time.Duration(sec) * time.Second
		}
	}
	return Result{
		Outcome:    OutcomeRateLimited,
		Detail:     fmt.Sprintf("rate limited, retry after %s", wait),
		RetryAfter: wait,
	}
}

func parseBilledMs(h http.Header) float64 {
	v := h.Get("x-browser-ms-used")
	if v == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return os.IsTimeout(err)
}
