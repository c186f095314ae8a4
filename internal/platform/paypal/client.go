// Package paypal verifies PayPal webhook deliveries through the PayPal REST API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/plutov/paypal/v4"
)

const (
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"

	verificationSuccess = "SUCCESS"
)

var ErrVerificationFailed = errors.New("paypal webhook verification failed")

type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	WebhookID    string
	HTTPClient   *http.Client
}

// Client wraps the PayPal SDK client. The OAuth token is fetched on first
// use and refreshed by the SDK shortly before it expires.
type Client struct {
	opts Options

	mu  sync.Mutex
	api *sdk.Client
}

func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts}
}

// sdkClient returns an authenticated SDK client. A failed token request is
// not cached, so the next delivery retries it.
func (c *Client) sdkClient(ctx context.Context) (*sdk.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	api, err := sdk.NewClient(c.opts.ClientID, c.opts.ClientSecret, c.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	api.SetHTTPClient(c.opts.HTTPClient)
	if _, err := api.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("failed to get paypal access token: %w", err)
	}
	c.api = api
	return api, nil
}

// VerifyWebhookSignature asks PayPal whether body was signed for the
// configured webhook. A non-SUCCESS status returns ErrVerificationFailed.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	for _, h := range []string{HeaderAuthAlgo, HeaderCertURL, HeaderTransmissionID, HeaderTransmissionSig, HeaderTransmissionTime} {
		if headers.Get(h) == "" {
			return fmt.Errorf("%w: missing header %s", ErrVerificationFailed, h)
		}
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w: body is not json", ErrVerificationFailed)
	}

	api, err := c.sdkClient(ctx)
	if err != nil {
		return err
	}

	// The SDK reads the transmission headers and the event off an inbound request.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header = headers.Clone()

	out, err := api.VerifyWebhookSignature(ctx, req, c.opts.WebhookID)
	if err != nil {
		return fmt.Errorf("failed to call paypal verification: %w", err)
	}
	if out.VerificationStatus != verificationSuccess {
		return fmt.Errorf("%w: status %q", ErrVerificationFailed, out.VerificationStatus)
	}
	return nil
}
