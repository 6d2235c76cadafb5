package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Currency is the only currency future charges are registered in.
const Currency = "KRW"

// NotificationStatus is the lifecycle status carried by an inbound webhook.
type NotificationStatus string

const (
	NotificationPaid      NotificationStatus = "Paid"
	NotificationCancelled NotificationStatus = "Cancelled"
)

// Notification is the validated inbound webhook payload.
type Notification struct {
	PaymentID string             `json:"payment_id" validate:"required,max=191"`
	Status    NotificationStatus `json:"status" validate:"required,oneof=Paid Cancelled"`
}

// PaymentDetail is the authoritative payment state fetched from the provider.
type PaymentDetail struct {
	PaymentID     string
	TransactionID string
	Amount        int64
	BillingKey    string
	OrderName     string
	CustomerID    string
}

// ScheduleRequest registers the next recurring charge with the provider.
type ScheduleRequest struct {
	ScheduleID string
	BillingKey string
	OrderName  string
	CustomerID string
	Amount     int64
	Currency   string
	TimeToPay  time.Time
}

// Amount accepts both provider schemas: {"total": N} and a bare number.
type Amount struct {
	Total int64
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("amount is missing")
	}

	if data[0] == '{' {
		var nested struct {
			Total *json.Number `json:"total"`
		}
		if err := json.Unmarshal(data, &nested); err != nil {
			return err
		}
		if nested.Total == nil {
			return errors.New("amount.total is missing")
		}
		total, err := minorUnits(*nested.Total)
		if err != nil {
			return err
		}
		a.Total = total
		return nil
	}

	var flat json.Number
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("amount must be a number or an object with total: %w", err)
	}
	total, err := minorUnits(flat)
	if err != nil {
		return err
	}
	a.Total = total
	return nil
}

func minorUnits(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("amount must be non-negative, got %d", v)
		}
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", n.String(), err)
	}
	if f < 0 {
		return 0, fmt.Errorf("amount must be non-negative, got %s", n.String())
	}
	if f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, fmt.Errorf("amount must be a whole number of minor units, got %s", n.String())
	}
	return int64(f), nil
}
