package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
)

const defaultRazorpayAPIBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient talks to the Razorpay REST API with basic auth. Only the
// calls the checkout flow needs are implemented.
type RazorpayClient struct {
	KeyID     string
	KeySecret string

	APIBaseURL string

	HTTPClient *http.Client
}

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpaySubscription struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	TotalCount int    `json:"total_count"`
	ShortURL   string `json:"short_url"`
}

func NewRazorpayClientFromEnv() *RazorpayClient {
	return &RazorpayClient{
		KeyID:      strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		KeySecret:  strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("RAZORPAY_API_BASE_URL", defaultRazorpayAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured reports whether API credentials are present.
func (c *RazorpayClient) IsConfigured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// CreateOrder creates a one-off payment order. Amount is in paise.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if amountPaise <= 0 {
		return nil, errors.New("order amount must be positive")
	}
	body := map[string]interface{}{
		"amount":   amountPaise,
		"currency": strings.ToUpper(strings.TrimSpace(currency)),
		"receipt":  strings.TrimSpace(receipt),
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	var out RazorpayOrder
	if err := c.post(ctx, "/orders", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("razorpay order response missing id")
	}
	return &out, nil
}

// CreateSubscription creates a recurring-billing subscription on a provider plan.
func (c *RazorpayClient) CreateSubscription(ctx context.Context, planID string, totalCount int, notes map[string]string) (*RazorpaySubscription, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, errors.New("plan id is required")
	}
	if totalCount <= 0 {
		totalCount = 12
	}
	body := map[string]interface{}{
		"plan_id":         strings.TrimSpace(planID),
		"total_count":     totalCount,
		"customer_notify": 1,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	var out RazorpaySubscription
	if err := c.post(ctx, "/subscriptions", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("razorpay subscription response missing id")
	}
	return &out, nil
}

func (c *RazorpayClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if !c.IsConfigured() {
		return errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("razorpay request %s failed: status=%d body=%s", path, resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
