// Package creditapi is the client of the external credit bureau API, plus the
// local loan simulation the sales team uses before an application exists.
package creditapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"credit-sales/domain"
	"credit-sales/logging"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is kept.
	maxErrorBody = 4 << 10
)

var ErrNotConfigured = errors.New("API de créditos no configurada")

// APIError is a non-2xx answer of the credit API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("credit API error (status %d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("credit API error (status %d): %s: %s", e.StatusCode, e.Code, e.Message)
}

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	logger = logging.OrNop(logger)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if cfg.BaseURL == "" {
		logger.Warn("credit API base URL not configured")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		logger.Warn("credit API credentials not configured")
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether remote calls can be made.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetPreApprovedLoan fetches the pre-approved offer of a client.
func (c *Client) GetPreApprovedLoan(ctx context.Context, clientID string) (json.RawMessage, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id vacío", domain.ErrMalformedInput)
	}
	return c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID)+"/pre-approved-loans", nil)
}

// SubmitApplication sends a credit application.
func (c *Client) SubmitApplication(ctx context.Context, application map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/credit-applications", application)
}

// GetApplicationStatus fetches the review status of an application.
func (c *Client) GetApplicationStatus(ctx context.Context, applicationID string) (json.RawMessage, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: application id vacío", domain.ErrMalformedInput)
	}
	return c.do(ctx, http.MethodGet, "/credit-applications/"+url.PathEscape(applicationID), nil)
}

// GetClientInfo fetches the bureau's profile of a client.
func (c *Client) GetClientInfo(ctx context.Context, clientID string) (json.RawMessage, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id vacío", domain.ErrMalformedInput)
	}
	return c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID), nil)
}

// CalculateLoanOptions asks the bureau for the offers available for an
// amount and term. clientData is optional.
func (c *Client) CalculateLoanOptions(
	ctx context.Context,
	amount float64,
	termMonths int,
	clientData map[string]any,
) (json.RawMessage, error) {
	payload := map[string]any{
		"amount":      amount,
		"term_months": termMonths,
	}
	if len(clientData) > 0 {
		payload["client_data"] = clientData
	}
	return c.do(ctx, http.MethodPost, "/loan-calculator", payload)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-API-Secret", c.apiSecret)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("credit API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("credit API %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("credit API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, decodeAPIError(resp.StatusCode, raw)
	}

	var data json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding credit API response: %w", err)
	}
	return data, nil
}

func decodeAPIError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{StatusCode: status, Code: "Error al procesar respuesta", Message: strings.TrimSpace(string(raw))}
	}
	if body.Error == "" {
		body.Error = "Error desconocido"
	}
	return &APIError{StatusCode: status, Code: body.Error, Message: body.Message}
}
