// Package sheets is the client for the spreadsheet-backed business data
// service (an Apps-Script-style HTTP JSON endpoint).
//
// It serves the cashback lookups and the warranty registration flow. Every
// call is synchronous with a short timeout; the dialogue engine treats any
// failure (timeout, non-2xx status, malformed body) uniformly as "service
// unavailable".
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gajahardware/gajabot/internal/util"
)

// DefaultTimeout bounds every data lookup.
const DefaultTimeout = 10 * time.Second

// Opts holds configuration options for the data service client.
type Opts struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
	Client  *http.Client
}

// Option defines a configuration option for the data service client.
type Option func(*Opts)

// WithBaseURL sets the service endpoint URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithSecret sets the shared secret passed on every call. Deployments without
// a secret simply omit it.
func WithSecret(s string) Option {
	return func(o *Opts) { o.Secret = s }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPClient injects a custom HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.Client = c }
}

// Client queries the business data service.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewClient creates a data service client. The base URL is required.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("data service URL not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	slog.Debug("sheets client created", "secret_set", cfg.Secret != "", "timeout", cfg.Timeout)
	return &Client{baseURL: cfg.BaseURL, secret: cfg.Secret, client: client}, nil
}

// CashbackResult is the cashback lookup response. Name and Amount are only
// meaningful when Found is true.
type CashbackResult struct {
	Found  bool        `json:"found"`
	Name   string      `json:"name"`
	Amount json.Number `json:"cashback_amount"`
}

// TokenStatus is the warranty token verification response.
type TokenStatus struct {
	Valid     bool `json:"valid"`
	Available bool `json:"available"`
}

// Product is the barcode lookup response.
type Product struct {
	Found bool   `json:"found"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Registration is the warranty registration response.
type Registration struct {
	Success        bool   `json:"success"`
	WarrantyMonths int    `json:"warranty_months"`
	ExpiryDate     string `json:"expiry_date"`
}

// Months returns the latest month labels, most recent first, truncated to n.
func (c *Client) Months(ctx context.Context, n int) ([]string, error) {
	var out struct {
		Months []string `json:"months"`
	}
	params := url.Values{"action": {"months"}, "latest": {fmt.Sprint(n)}}
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	if len(out.Months) > n {
		out.Months = out.Months[:n]
	}
	return out.Months, nil
}

// Cashback looks up the cashback amount for a carpenter code and month.
func (c *Client) Cashback(ctx context.Context, code, month string) (CashbackResult, error) {
	var out CashbackResult
	params := url.Values{"action": {"cashback"}, "code": {code}, "month": {month}}
	err := c.get(ctx, params, &out)
	return out, err
}

// VerifyToken checks whether a warranty token is genuine and still unused.
func (c *Client) VerifyToken(ctx context.Context, token string) (TokenStatus, error) {
	var out TokenStatus
	params := url.Values{"action": {"verifytoken"}, "token": {token}}
	err := c.get(ctx, params, &out)
	return out, err
}

// LookupBarcode resolves a 6-digit price-sticker barcode to a product.
func (c *Client) LookupBarcode(ctx context.Context, code string) (Product, error) {
	var out Product
	params := url.Values{"action": {"barcode"}, "code": {code}}
	err := c.get(ctx, params, &out)
	return out, err
}

// RegisterWarranty exchanges a verified token and barcode for a warranty
// registration bound to the user's phone number.
func (c *Client) RegisterWarranty(ctx context.Context, token, barcode, phone string) (Registration, error) {
	var out Registration
	params := url.Values{
		"action":  {"registerwarranty"},
		"token":   {token},
		"barcode": {barcode},
		"phone":   {phone},
	}
	err := c.get(ctx, params, &out)
	if err == nil {
		slog.Debug("sheets warranty registered", "phone", util.MaskPhone(phone), "barcode", barcode)
	}
	return out, err
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if c.secret != "" {
		params.Set("secret", c.secret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("sheets request failed", "action", params.Get("action"), "error", err)
		return fmt.Errorf("data service request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("sheets request returned non-success status", "action", params.Get("action"), "status", resp.StatusCode)
		return fmt.Errorf("data service status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Error("sheets response decode failed", "action", params.Get("action"), "error", err)
		return fmt.Errorf("data service decode: %w", err)
	}
	return nil
}
