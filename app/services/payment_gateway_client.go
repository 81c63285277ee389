package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentGateway abstracts the card payment provider used for deposit
// collection at checkout.
type PaymentGateway interface {
	// GetToken reserves a payment with the gateway and returns the token the
	// patient's browser is redirected with.
	GetToken(ctx context.Context, req *GatewayTokenRequest) (string, error)
	// PaymentURL builds the redirect URL for a gateway token.
	PaymentURL(token string) string
}

// GatewayTokenRequest carries the parameters of a gateway tokenize call
type GatewayTokenRequest struct {
	AmountGBP     decimal.Decimal
	Currency      string
	InvoiceNumber string
	Description   string
	RedirectURL   string
}

// HTTPPaymentGateway implements PaymentGateway against a JSON tokenize API
type HTTPPaymentGateway struct {
	BaseURL    string
	APIKey     string
	Terminal   string
	HTTPClient *http.Client
}

// NewHTTPPaymentGateway creates a gateway client with the given credentials
func NewHTTPPaymentGateway(baseURL, apiKey, terminal string, timeout time.Duration) *HTTPPaymentGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPaymentGateway{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Terminal:   terminal,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type gatewayTokenPayload struct {
	Amount        string `json:"amount"` // minor-unit safe decimal string
	Currency      string `json:"currency"`
	InvoiceNumber string `json:"invoiceNumber"`
	Description   string `json:"description,omitempty"`
	RedirectURL   string `json:"redirectUrl"`
	APIKey        string `json:"apiKey"`
	Terminal      string `json:"terminal,omitempty"`
}

type gatewayTokenResponse struct {
	Status           string `json:"status"`
	Token            string `json:"token"`
	Message          string `json:"message,omitempty"`
	ErrorCode        string `json:"errorCode,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
}

// GetToken calls the gateway's get-token endpoint
func (g *HTTPPaymentGateway) GetToken(ctx context.Context, req *GatewayTokenRequest) (string, error) {
	payload := gatewayTokenPayload{
		Amount:        req.AmountGBP.StringFixed(2),
		Currency:      req.Currency,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		RedirectURL:   req.RedirectURL,
		APIKey:        g.APIKey,
		Terminal:      g.Terminal,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/get-token", bytes.NewReader(payloadBytes))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned non-OK status: %d", resp.StatusCode)
	}

	var tokenResp gatewayTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	if tokenResp.Status != "1" {
		errorMsg := "unknown error"
		if tokenResp.Message != "" {
			errorMsg = tokenResp.Message
		}
		if tokenResp.ErrorCode != "" {
			errorMsg = fmt.Sprintf("%s (code: %s)", errorMsg, tokenResp.ErrorCode)
		}
		if tokenResp.ErrorDescription != "" {
			errorMsg = fmt.Sprintf("%s (description: %s)", errorMsg, tokenResp.ErrorDescription)
		}
		return "", fmt.Errorf("gateway error: %s", errorMsg)
	}

	if tokenResp.Token == "" {
		return "", errors.New("gateway returned empty token")
	}

	return tokenResp.Token, nil
}

// PaymentURL builds the browser redirect for a token
func (g *HTTPPaymentGateway) PaymentURL(token string) string {
	return fmt.Sprintf("%s/v1/redirect-to-gateway?token=%s", g.BaseURL, token)
}
