package billing

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

	"github.com/ManuelReschke/recurpay/internal/pkg/env"
)

const (
	defaultPortOneAPIBaseURL = "https://api.portone.io"
	defaultPortOneAuthScheme = "PortOne"
	defaultPortOneTimeout    = 15 * time.Second

	maxProviderBody = 1 << 20
)

// PaymentProvider is the remote payment API the flow depends on.
type PaymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*PaymentDetail, error)
	SchedulePayment(ctx context.Context, req ScheduleRequest) error
}

type PortOneClient struct {
	APISecret  string
	AuthScheme string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewPortOneClientFromEnv() *PortOneClient {
	return &PortOneClient{
		APISecret:  strings.TrimSpace(env.GetEnv("PORTONE_API_SECRET", "")),
		AuthScheme: strings.TrimSpace(env.GetEnv("PORTONE_AUTH_SCHEME", defaultPortOneAuthScheme)),
		APIBaseURL: strings.TrimSpace(env.GetEnv("PORTONE_API_BASE_URL", defaultPortOneAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: env.GetDuration("PORTONE_HTTP_TIMEOUT", defaultPortOneTimeout),
		},
	}
}

// Configured reports whether the API secret is present.
func (c *PortOneClient) Configured() bool {
	return strings.TrimSpace(c.APISecret) != ""
}

// GetPayment fetches the authoritative state of a payment.
func (c *PortOneClient) GetPayment(ctx context.Context, paymentID string) (*PaymentDetail, error) {
	if !c.Configured() {
		return nil, configurationMissing("PORTONE_API_SECRET")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, invalidRequest("payment_id is required")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, AsError(err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, transportFailed(err)
	}
	if status < 200 || status >= 300 {
		return nil, upstreamFailed(status, string(body), fmt.Errorf("portone payment lookup failed: status=%d", status))
	}

	type rawPayment struct {
		ID            string  `json:"id"`
		PaymentID     string  `json:"paymentId"`
		TransactionID string  `json:"transactionId"`
		Amount        *Amount `json:"amount"`
		BillingKey    string  `json:"billingKey"`
		OrderName     string  `json:"orderName"`
		Customer      struct {
			ID string `json:"id"`
		} `json:"customer"`
	}

	var raw rawPayment
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, upstreamFailed(http.StatusBadGateway, string(body), fmt.Errorf("decode portone payment: %w", err))
	}
	if raw.Amount == nil {
		return nil, upstreamFailed(http.StatusBadGateway, string(body), errors.New("portone payment response missing amount"))
	}

	pid := strings.TrimSpace(raw.PaymentID)
	if pid == "" {
		pid = strings.TrimSpace(raw.ID)
	}
	if pid == "" {
		pid = id
	}

	return &PaymentDetail{
		PaymentID:     pid,
		TransactionID: strings.TrimSpace(raw.TransactionID),
		Amount:        raw.Amount.Total,
		BillingKey:    strings.TrimSpace(raw.BillingKey),
		OrderName:     strings.TrimSpace(raw.OrderName),
		CustomerID:    strings.TrimSpace(raw.Customer.ID),
	}, nil
}

// SchedulePayment registers a future charge against the billing key.
func (c *PortOneClient) SchedulePayment(ctx context.Context, in ScheduleRequest) error {
	if !c.Configured() {
		return configurationMissing("PORTONE_API_SECRET")
	}
	if strings.TrimSpace(in.ScheduleID) == "" {
		return errors.New("schedule id is required")
	}

	currency := in.Currency
	if currency == "" {
		currency = Currency
	}

	type customer struct {
		ID string `json:"id"`
	}
	type amount struct {
		Total int64 `json:"total"`
	}
	type payment struct {
		BillingKey string   `json:"billingKey"`
		OrderName  string   `json:"orderName"`
		Customer   customer `json:"customer"`
		Amount     amount   `json:"amount"`
		Currency   string   `json:"currency"`
	}
	payload := struct {
		Payment   payment `json:"payment"`
		TimeToPay string  `json:"timeToPay"`
	}{
		Payment: payment{
			BillingKey: in.BillingKey,
			OrderName:  in.OrderName,
			Customer:   customer{ID: in.CustomerID},
			Amount:     amount{Total: in.Amount},
			Currency:   currency,
		},
		TimeToPay: in.TimeToPay.UTC().Format(time.RFC3339),
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/payments/"+url.PathEscape(in.ScheduleID)+"/schedule", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return transportFailed(err)
	}
	if status < 200 || status >= 300 {
		return upstreamFailed(status, string(body), fmt.Errorf("portone schedule registration failed: status=%d", status))
	}
	return nil
}

func (c *PortOneClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	base := strings.TrimRight(c.APIBaseURL, "/")
	if base == "" {
		base = defaultPortOneAPIBaseURL
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("invalid PORTONE_API_BASE_URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	scheme := c.AuthScheme
	if scheme == "" {
		scheme = defaultPortOneAuthScheme
	}
	req.Header.Set("Authorization", scheme+" "+strings.TrimSpace(c.APISecret))
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *PortOneClient) do(req *http.Request) (int, []byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultPortOneTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	return resp.StatusCode, body, nil
}

// transportFailed maps network errors; timeouts become 504.
func transportFailed(err error) *Error {
	status := http.StatusBadGateway
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		status = http.StatusGatewayTimeout
	}
	e := upstreamFailed(status, "", err)
	e.Message = "payment provider unreachable"
	return e
}
