package billing

import (
	"math/rand/v2"
	"time"
)

const (
	subscriptionDays = 30
	graceDays        = 1
	scheduleHour     = 10
)

// MinuteSource picks the minute of the scheduled charge. *rand.Rand satisfies it.
type MinuteSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultMinuteSource is safe for concurrent use.
var DefaultMinuteSource MinuteSource = globalRand{}

// BillingWindow is the subscription period opened by one payment.
type BillingWindow struct {
	StartAt        time.Time
	EndAt          time.Time
	EndGraceAt     time.Time
	NextScheduleAt time.Time
}

// ComputeBillingWindow derives the period boundaries from now. Day arithmetic
// runs in UTC so daylight-saving shifts never apply. The next charge lands on
// the day after EndAt at 10:MM UTC with MM drawn from rnd.
func ComputeBillingWindow(now time.Time, rnd MinuteSource) BillingWindow {
	if rnd == nil {
		rnd = DefaultMinuteSource
	}
	start := now.UTC()
	end := start.AddDate(0, 0, subscriptionDays)
	grace := start.AddDate(0, 0, subscriptionDays+graceDays)

	minute := rnd.IntN(60)
	if minute < 0 || minute > 59 {
		minute = 0
	}
	day := end.AddDate(0, 0, 1)
	next := time.Date(day.Year(), day.Month(), day.Day(), scheduleHour, minute, 0, 0, time.UTC)

	return BillingWindow{
		StartAt:        start,
		EndAt:          end,
		EndGraceAt:     grace,
		NextScheduleAt: next,
	}
}
