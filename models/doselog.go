package models

import "time"

// DoseLog records one taken dose and the expected gap until the next one.
// ExtraWeeks holds a one-off adjustment (travel buffer) on top of the
// regular interval.
type DoseLog struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	TakenDate     time.Time `json:"taken_date"`
	IntervalWeeks int       `json:"interval_weeks"`
	ExtraWeeks    int       `json:"extra_weeks"`
	Note          string    `json:"note"`
}
