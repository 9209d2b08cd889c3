package httpsig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ContentType is the media type used for outbound activity documents.
const ContentType = "application/activity+json"

// DefaultTimeout bounds outbound deliveries when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 15 * time.Second

// Client delivers signed requests to remote servers. It performs no retries;
// retry policy, if any, belongs to the caller.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient constructs a signing HTTP client with the given timeout.
func NewClient(logger zerolog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http:   resty.New().SetTimeout(timeout),
		logger: logger.With().Str("component", "httpsig_client").Logger(),
	}
}

// SendSigned signs and sends a request, returning the remote status code and
// response body. Any transport error or non-2xx response is returned as an
// error so the caller can treat it as a failed delivery.
func (c *Client) SendSigned(ctx context.Context, method, url string, body []byte, privateKeyPEM, keyID string) (int, []byte, error) {
	headers, err := Sign(method, url, body, privateKeyPEM, keyID, time.Now())
	if err != nil {
		return 0, nil, err
	}

	req := c.http.R().SetContext(ctx).SetHeaders(headers)
	if len(body) > 0 {
		req.SetHeader("Content-Type", ContentType).SetBody(body)
	} else {
		req.SetHeader("Accept", ContentType)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return 0, nil, fmt.Errorf("delivery to %s failed: %w", url, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return status, resp.Body(), fmt.Errorf("delivery to %s returned status %d", url, status)
	}

	return status, resp.Body(), nil
}

// FetchJSON issues a signed GET and decodes the JSON response into out.
func (c *Client) FetchJSON(ctx context.Context, url, privateKeyPEM, keyID string, out any) error {
	_, body, err := c.SendSigned(ctx, "GET", url, nil, privateKeyPEM, keyID)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}
