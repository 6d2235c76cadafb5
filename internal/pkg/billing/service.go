package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/recurpay/app/models"
)

// State is a step of the payment flow.
type State string

const (
	StateValidating      State = "validating"
	StateFetchingDetail  State = "fetching_detail"
	StateComputingWindow State = "computing_window"
	StatePersisting      State = "persisting"
	StateScheduling      State = "scheduling"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Result is the outcome of one notification. Warnings hold non-fatal failures;
// their presence never turns a Done result into a failure.
type Result struct {
	State    State
	Record   *models.PaymentRecord
	Warnings []Warning
}

// Service sequences the payment flow: fetch detail, compute the billing
// window, persist the record and register the next charge.
type Service struct {
	provider PaymentProvider
	repo     Repository
	warnings WarningSink
	metrics  *Metrics

	now        func() time.Time
	minutes    MinuteSource
	scheduleID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMinuteSource(src MinuteSource) Option {
	return func(s *Service) { s.minutes = src }
}

func WithScheduleIDGenerator(gen func() string) Option {
	return func(s *Service) { s.scheduleID = gen }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a billing service from injected collaborators. A nil
// sink falls back to logging.
func NewService(provider PaymentProvider, repo Repository, sink WarningSink, opts ...Option) *Service {
	if sink == nil {
		sink = LogWarningSink{}
	}
	s := &Service{
		provider:   provider,
		repo:       repo,
		warnings:   sink,
		now:        time.Now,
		minutes:    DefaultMinuteSource,
		scheduleID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWebhookBody validates a raw body and runs the flow.
func (s *Service) HandleWebhookBody(ctx context.Context, body []byte) (*Result, error) {
	n, err := ParseNotification(body)
	if err != nil {
		s.metrics.observeNotification("", string(KindInvalidRequest))
		return &Result{State: StateFailed}, err
	}
	return s.HandleNotification(ctx, *n)
}

// HandleNotification runs the flow for a notification. Errors are always *Error.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (res *Result, err error) {
	res = &Result{State: StateValidating}
	defer func() {
		if err != nil {
			res.State = StateFailed
			err = AsError(err)
			s.metrics.observeNotification(n.Status, string(AsError(err).Kind))
			return
		}
		outcome := "ok"
		if len(res.Warnings) > 0 {
			outcome = "ok_with_warnings"
		}
		s.metrics.observeNotification(n.Status, outcome)
	}()

	if err := n.Validate(); err != nil {
		return res, err
	}

	switch n.Status {
	case NotificationCancelled:
		// TODO: close out the active PaymentRecord on cancellation; today this is a no-op.
		log.Infof("[Billing] Cancellation for payment %s acknowledged, nothing to do", n.PaymentID)
		res.State = StateDone
		return res, nil
	case NotificationPaid:
		return s.completePayment(ctx, n, res)
	default:
		return res, invalidRequest("unsupported status %q", n.Status)
	}
}

func (s *Service) completePayment(ctx context.Context, n Notification, res *Result) (*Result, error) {
	res.State = StateFetchingDetail
	started := time.Now()
	detail, err := s.provider.GetPayment(ctx, n.PaymentID)
	s.metrics.observeProvider("get_payment", started, err)
	if err != nil {
		log.Errorf("[Billing] Payment lookup for %s failed: %v", n.PaymentID, err)
		return res, err
	}
	if detail.Amount < 0 {
		return res, upstreamFailed(0, "", fmt.Errorf("negative amount %d for payment %s", detail.Amount, n.PaymentID))
	}

	res.State = StateComputingWindow
	window := ComputeBillingWindow(s.now(), s.minutes)

	res.State = StatePersisting
	txKey := strings.TrimSpace(detail.TransactionID)
	if txKey == "" {
		txKey = n.PaymentID
	}
	record := &models.PaymentRecord{
		TransactionKey: txKey,
		PaymentID:      n.PaymentID,
		CustomerID:     detail.CustomerID,
		Amount:         detail.Amount,
		Currency:       Currency,
		Status:         models.PaymentStatusPaid,
		StartAt:        window.StartAt,
		EndAt:          window.EndAt,
		EndGraceAt:     window.EndGraceAt,
		NextScheduleAt: window.NextScheduleAt,
		NextScheduleID: s.scheduleID(),
	}
	if err := s.repo.CreatePaymentRecord(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			log.Warnf("[Billing] Duplicate notification for transaction %s rejected", txKey)
		} else {
			log.Errorf("[Billing] Storing payment %s failed: %v", n.PaymentID, err)
		}
		return res, persistenceFailed(err)
	}
	res.Record = record
	log.Infof("[Billing] Recorded payment %s (transaction %s, amount %d, ends %s)",
		n.PaymentID, txKey, record.Amount, record.EndAt.Format(time.RFC3339))

	res.State = StateScheduling
	if w := s.scheduleNextCharge(ctx, detail, record); w != nil {
		res.Warnings = append(res.Warnings, *w)
	}

	res.State = StateDone
	return res, nil
}

// scheduleNextCharge never fails the flow; a failed registration comes back as a Warning.
func (s *Service) scheduleNextCharge(ctx context.Context, detail *PaymentDetail, record *models.PaymentRecord) *Warning {
	started := time.Now()
	err := s.provider.SchedulePayment(ctx, ScheduleRequest{
		ScheduleID: record.NextScheduleID,
		BillingKey: detail.BillingKey,
		OrderName:  detail.OrderName,
		CustomerID: detail.CustomerID,
		Amount:     detail.Amount,
		Currency:   Currency,
		TimeToPay:  record.NextScheduleAt,
	})
	s.metrics.observeProvider("schedule_payment", started, err)
	if err == nil {
		log.Infof("[Billing] Next charge %s scheduled at %s", record.NextScheduleID, record.NextScheduleAt.Format(time.RFC3339))
		return nil
	}

	s.metrics.observeScheduleFailure()
	serr := schedulingFailed(err)
	w := Warning{
		Kind:           serr.Kind,
		PaymentID:      record.PaymentID,
		TransactionKey: record.TransactionKey,
		ScheduleID:     record.NextScheduleID,
		TimeToPay:      record.NextScheduleAt,
		Message:        serr.Error(),
		OccurredAt:     s.now().UTC(),
	}
	s.warnings.RecordWarning(ctx, w)
	return &w
}
