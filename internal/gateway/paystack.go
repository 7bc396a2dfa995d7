package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.paystack.co"

// PaystackConfig holds the credentials and tuning for the Paystack client.
type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// PaystackClient implements PaymentGateway against the Paystack API.
type PaystackClient struct {
	config PaystackConfig
	client *http.Client
	log    *zap.SugaredLogger
}

func NewPaystackClient(cfg PaystackConfig, log *zap.SugaredLogger) *PaystackClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &PaystackClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

func (c *PaystackClient) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*AccountInfo, error) {
	params := url.Values{}
	params.Add("account_number", accountNumber)
	params.Add("bank_code", bankCode)

	var resp response[AccountInfo]
	if err := c.do(ctx, http.MethodGet, "/bank/resolve?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error) {
	// Constants are NUBAN and NGN
	req := createRecipientRequest{
		Type:          "nuban",
		Name:          name,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		Currency:      "NGN",
	}

	var resp response[recipientData]
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", req, &resp); err != nil {
		return "", err
	}
	return resp.Data.RecipientCode, nil
}

func (c *PaystackClient) InitiateTransfer(ctx context.Context, amount int64, recipientCode, reason, reference string) (*TransferResult, error) {
	req := transferRequest{
		Source:    "balance",
		Amount:    amount,
		Recipient: recipientCode,
		Reason:    reason,
		Reference: reference,
	}

	var resp response[TransferResult]
	if err := c.do(ctx, http.MethodPost, "/transfer", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) PurchaseAirtime(ctx context.Context, phone string, amount int64, reference string) (*PurchaseResult, error) {
	req := airtimeRequest{
		Customer:  phone,
		Amount:    amount,
		Reference: reference,
	}

	var resp response[PurchaseResult]
	if err := c.do(ctx, http.MethodPost, "/bill-payment/airtime", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) PurchaseData(ctx context.Context, phone, plan, reference string) (*PurchaseResult, error) {
	req := dataRequest{
		Customer:  phone,
		Plan:      plan,
		Reference: reference,
	}

	var resp response[PurchaseResult]
	if err := c.do(ctx, http.MethodPost, "/bill-payment/data", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) PurchaseCable(ctx context.Context, smartCardNumber, provider, plan, reference string) (*PurchaseResult, error) {
	req := cableRequest{
		Customer:  smartCardNumber,
		Provider:  provider,
		Plan:      plan,
		Reference: reference,
	}

	var resp response[PurchaseResult]
	if err := c.do(ctx, http.MethodPost, "/bill-payment/cable", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) PurchaseElectricity(ctx context.Context, meterNumber, disco string, amount int64, reference string) (*PurchaseResult, error) {
	req := electricityRequest{
		Customer:  meterNumber,
		Provider:  disco,
		Amount:    amount,
		Reference: reference,
	}

	var resp response[PurchaseResult]
	if err := c.do(ctx, http.MethodPost, "/bill-payment/electricity", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr response[json.RawMessage]
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.Message != "" {
			c.log.Warnw("gateway rejected request", "path", path, "code", resp.StatusCode, "message", apiErr.Message)
			return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response body: %w", err)
	}
	return nil
}
