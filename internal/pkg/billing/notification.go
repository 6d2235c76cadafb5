package billing

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ParseNotification decodes and validates a webhook body. It performs no I/O.
func ParseNotification(body []byte) (*Notification, error) {
	var raw struct {
		PaymentID *string `json:"payment_id"`
		Status    *string `json:"status"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, invalidRequest("body must be a JSON object with payment_id and status")
	}

	n := &Notification{}
	if raw.PaymentID != nil {
		n.PaymentID = strings.TrimSpace(*raw.PaymentID)
	}
	if raw.Status != nil {
		n.Status = NotificationStatus(strings.TrimSpace(*raw.Status))
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks required fields and the status enum.
func (n *Notification) Validate() error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidRequest("%v", err)
	}
	fe := verrs[0]
	field := "payment_id"
	if fe.StructField() == "Status" {
		field = "status"
	}
	switch fe.Tag() {
	case "required":
		return invalidRequest("%s is required", field)
	case "oneof":
		return invalidRequest("status must be one of Paid, Cancelled (got %q)", fe.Value())
	default:
		return invalidRequest("%s is invalid", field)
	}
}
