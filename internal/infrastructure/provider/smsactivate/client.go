// Package smsactivate is a client for the SMS-Activate handler API, which
// leases phone numbers and reports the codes they receive.
package smsactivate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/metrics"
	"github.com/RobertLogos32/bto-prova/internal/shared/config"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	actionGetNumber  = "getNumber"
	actionGetStatus  = "getStatus"
	actionSetStatus  = "setStatus"
	actionGetBalance = "getBalance"

	setStatusRetry  = 3
	setStatusDone   = 6
	setStatusCancel = 8

	maxResponseBytes = 64 << 10
)

// ErrEmptyAPIKey is returned by NewClient when no key is configured.
var ErrEmptyAPIKey = errors.New("sms-activate api key is required")

// APIError is a textual error answer such as NO_NUMBERS or BAD_KEY.
type APIError struct {
	Action string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sms-activate %s: %s", e.Action, e.Code)
}

// IsDecline reports whether the provider refused a number without a fault on its side.
func (e *APIError) IsDecline() bool {
	switch e.Code {
	case "NO_NUMBERS", "NO_BALANCE", "WRONG_SERVICE", "BAD_SERVICE", "BANNED":
		return true
	default:
		return false
	}
}

// Client is stateless; every method issues exactly one HTTP request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     logger.Interface
}

func NewClient(cfg config.ProviderConfig, httpClient *http.Client, log logger.Interface) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     log.With("provider", "sms-activate"),
	}, nil
}

// RequestNumber leases a number for serviceCode in country.
func (c *Client) RequestNumber(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
	body, err := c.call(ctx, actionGetNumber, url.Values{
		"service": {serviceCode},
		"country": {strconv.Itoa(country)},
	})
	if err != nil {
		return allocation.Lease{}, err
	}

	// ACCESS_NUMBER:{id}:{number}
	parts := strings.SplitN(body, ":", 3)
	if len(parts) != 3 || parts[0] != "ACCESS_NUMBER" || parts[1] == "" || parts[2] == "" {
		return allocation.Lease{}, &APIError{Action: actionGetNumber, Code: body}
	}

	lease := allocation.Lease{ActivationID: parts[1], Number: normalizeNumber(parts[2])}
	c.logger.Infow("number leased",
		"service_code", serviceCode,
		"activation_id", lease.ActivationID,
	)
	return lease, nil
}

// QueryStatus classifies the current activation status. Transport failures
// and provider error codes are returned as errors; payloads that match no
// known form come back as an Unknown status.
func (c *Client) QueryStatus(ctx context.Context, activationID string) (allocation.ProviderStatus, error) {
	body, err := c.call(ctx, actionGetStatus, url.Values{"id": {activationID}})
	if err != nil {
		return allocation.ProviderStatus{}, err
	}
	return ParseStatus(body)
}

// Acknowledge tells the provider the code was received (setStatus 6).
func (c *Client) Acknowledge(ctx context.Context, activationID, code string) error {
	return c.setStatus(ctx, activationID, setStatusDone, "ACCESS_ACTIVATION")
}

// Cancel releases an activation that never received a code (setStatus 8).
func (c *Client) Cancel(ctx context.Context, activationID string) error {
	return c.setStatus(ctx, activationID, setStatusCancel, "ACCESS_CANCEL")
}

// RequestAnotherCode asks the provider to wait for one more code (setStatus 3).
func (c *Client) RequestAnotherCode(ctx context.Context, activationID string) error {
	return c.setStatus(ctx, activationID, setStatusRetry, "ACCESS_RETRY_GET")
}

// GetBalance returns the account balance as reported, e.g. "12.50".
func (c *Client) GetBalance(ctx context.Context) (string, error) {
	body, err := c.call(ctx, actionGetBalance, nil)
	if err != nil {
		return "", err
	}
	amount, ok := strings.CutPrefix(body, "ACCESS_BALANCE:")
	if !ok {
		return "", &APIError{Action: actionGetBalance, Code: body}
	}
	return amount, nil
}

func (c *Client) setStatus(ctx context.Context, activationID string, status int, expect string) error {
	body, err := c.call(ctx, actionSetStatus, url.Values{
		"id":     {activationID},
		"status": {strconv.Itoa(status)},
	})
	if err != nil {
		return err
	}
	if !strings.HasPrefix(body, expect) {
		return &APIError{Action: actionSetStatus, Code: body}
	}
	return nil
}

func (c *Client) call(ctx context.Context, action string, params url.Values) (body string, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.IsDecline():
			outcome = metrics.OutcomeDecline
		case err != nil:
			outcome = metrics.OutcomeError
		}
		metrics.ObserveProviderCall(action, outcome, time.Since(start))
	}()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid provider base url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.apiKey)
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create %s request: %w", action, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms-activate %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sms-activate %s returned HTTP %d", action, resp.StatusCode)
	}

	body = strings.TrimSpace(string(raw))
	if isErrorCode(body) {
		return "", &APIError{Action: action, Code: body}
	}

	c.logger.Debugw("provider response", "action", action, "body", body)
	return body, nil
}

// ParseStatus maps a getStatus payload onto a ProviderStatus.
func ParseStatus(body string) (allocation.ProviderStatus, error) {
	switch {
	case body == "STATUS_WAIT_CODE", body == "STATUS_WAIT_RESEND", strings.HasPrefix(body, "STATUS_WAIT_RETRY"):
		return allocation.Waiting(body), nil
	case strings.HasPrefix(body, "STATUS_OK:"):
		text := strings.TrimSpace(strings.TrimPrefix(body, "STATUS_OK:"))
		if text == "" {
			return allocation.Unknown(body), nil
		}
		return allocation.Delivered(text, body), nil
	case body == "STATUS_CANCEL", body == "BANNED", body == "NO_ACTIVATION":
		return allocation.Ended(body), nil
	case isErrorCode(body):
		return allocation.ProviderStatus{}, &APIError{Action: actionGetStatus, Code: body}
	default:
		return allocation.Unknown(body), nil
	}
}

func isErrorCode(body string) bool {
	switch body {
	case "BAD_KEY", "BAD_ACTION", "ERROR_SQL", "NO_NUMBERS", "NO_BALANCE", "WRONG_SERVICE", "BAD_SERVICE", "BAD_STATUS", "WRONG_ACTIVATION_ID":
		return true
	default:
		return false
	}
}

// normalizeNumber returns the number in +E.164 form.
func normalizeNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + number
}
