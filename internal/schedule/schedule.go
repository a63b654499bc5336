// Package schedule computes when a customer's next dose is due and which
// reminder milestones should fire on a given day.
package schedule

import (
	"time"

	"medremind.app/cloud/models"
)

// NextDueDate returns the date the customer's next dose is expected.
//
// With dose history, the due date is the latest taken date plus the
// effective interval, where a one-off extra-weeks adjustment is folded
// into the regular interval. Without history it falls back to the
// enrollment date plus the default onboarding interval.
func NextDueDate(customer models.Customer, logs []models.DoseLog, defaultIntervalWeeks int) time.Time {
	latest := latestLog(logs)
	if latest == nil {
		return DateOnly(customer.StartDate).AddDate(0, 0, defaultIntervalWeeks*7)
	}

	weeks := latest.IntervalWeeks
	if weeks <= 0 {
		weeks = defaultIntervalWeeks
	}
	weeks += latest.ExtraWeeks

	return DateOnly(latest.TakenDate).AddDate(0, 0, weeks*7)
}

// DaysUntil returns the signed whole-day count from today to the due date.
// Zero means due today, negative means overdue.
func DaysUntil(dueDate, today time.Time) int {
	diff := DateOnly(dueDate).Sub(DateOnly(today))
	return int(diff.Hours() / 24)
}

// DueMilestones returns the milestones that should send today: a milestone
// fires when the day offset matches exactly, and is suppressed when its
// name is already in the sent set. Missed days are not caught up.
func DueMilestones(milestones []models.Milestone, dDay int, sent map[string]bool) []models.Milestone {
	var due []models.Milestone
	for _, m := range milestones {
		if dDay != m.Offset {
			continue
		}
		if sent[m.Name] {
			continue
		}
		due = append(due, m)
	}
	return due
}

// AlertDate is the first day a reminder could fire for the due date.
func AlertDate(dueDate time.Time) time.Time {
	return DateOnly(dueDate).AddDate(0, 0, -7)
}

// DateOnly normalizes a timestamp to midnight UTC so day arithmetic is
// unaffected by time of day or DST transitions.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func latestLog(logs []models.DoseLog) *models.DoseLog {
	var latest *models.DoseLog
	for i := range logs {
		if latest == nil || logs[i].TakenDate.After(latest.TakenDate) {
			latest = &logs[i]
		}
	}
	return latest
}
