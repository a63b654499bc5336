package models

import (
	"fmt"
	"time"
)

// Milestone is a named lead-time offset at which a reminder fires,
// e.g. {Name: "D-7", Offset: 7} fires seven days before the due date.
type Milestone struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
}

func MilestoneFor(offset int) Milestone {
	return Milestone{Name: fmt.Sprintf("D-%d", offset), Offset: offset}
}

func Milestones(offsets []int) []Milestone {
	milestones := make([]Milestone, 0, len(offsets))
	for _, offset := range offsets {
		milestones = append(milestones, MilestoneFor(offset))
	}
	return milestones
}

// NotificationLog records a sent reminder. At most one row exists per
// (customer, milestone, due date); the evaluator checks this before
// sending again.
type NotificationLog struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Milestone  string    `json:"milestone"`
	DueDate    time.Time `json:"due_date"`
	SentAt     time.Time `json:"sent_at"`
}
