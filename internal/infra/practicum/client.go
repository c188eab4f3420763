// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const maxBodyBytes = 1 << 20

// FetchErrorKind classifies a failed status request.
type FetchErrorKind string

const (
	KindTransport        FetchErrorKind = "TRANSPORT"
	KindUnexpectedStatus FetchErrorKind = "UNEXPECTED_STATUS"
	KindMalformedBody    FetchErrorKind = "MALFORMED_BODY"
	KindBodyTooLarge     FetchErrorKind = "BODY_TOO_LARGE"
)

// FetchError is returned by Client.Fetch when no usable payload was received.
type FetchError struct {
	Kind       FetchErrorKind
	Endpoint   string
	StatusCode int   // set for KindUnexpectedStatus
	Err        error // underlying cause, if any
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindUnexpectedStatus:
		return fmt.Sprintf("endpoint %s is unavailable, response code: %d", e.Endpoint, e.StatusCode)
	case KindMalformedBody:
		return fmt.Sprintf("endpoint %s returned a body that is not JSON", e.Endpoint)
	case KindBodyTooLarge:
		return fmt.Sprintf("endpoint %s returned a body that exceeds the %d byte limit", e.Endpoint, maxBodyBytes)
	default:
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client requests homework statuses from the Practicum API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single request for status updates since the given unix timestamp.
// It never retries.
func (c *Client) Fetch(ctx context.Context, since int64) (json.RawMessage, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Endpoint: c.endpoint, Err: fmt.Errorf("invalid endpoint: %w", err)}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(since, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{Kind: KindUnexpectedStatus, Endpoint: c.endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Endpoint: c.endpoint, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{Kind: KindBodyTooLarge, Endpoint: c.endpoint}
	}
	if !json.Valid(body) {
		return nil, &FetchError{Kind: KindMalformedBody, Endpoint: c.endpoint}
	}
	return json.RawMessage(body), nil
}
