// Package testutil provides shared fixtures for tests: an in-memory
// storage, deterministic dates and a recording fake email sender.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/models"
	"medremind.app/cloud/storage"
)

// TestConfig returns a config with the default reminder policy and no
// SMTP settings.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "8080",
		DatabasePath:         ":memory:",
		MilestoneOffsets:     []int{7, 0},
		DefaultIntervalWeeks: 4,
		Timezone:             "UTC",
		NotifyHour:           9,
		NotifyMinute:         0,
		NotifyRecipient:      "operator@example.com",
		EmailFrom:            "reminders@example.com",
	}
}

// Date parses a YYYY-MM-DD string, failing the test on bad input.
func Date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DateFormat, value)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", value, err)
	}
	return parsed
}

// FixedNow returns a clock frozen at noon UTC on the given date.
func FixedNow(t *testing.T, value string) func() time.Time {
	t.Helper()
	day := Date(t, value)
	instant := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
	return func() time.Time { return instant }
}

// SeedCustomer stores a customer with the given enrollment date and
// returns it.
func SeedCustomer(t *testing.T, store storage.Storage, name, startDate string) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Name:      name,
		Contact:   name + "@example.com",
		StartDate: Date(t, startDate),
		Active:    true,
	}
	if err := store.CreateCustomer(context.Background(), customer); err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	return customer
}

// SeedDoseLog stores a dose log for the customer and returns it.
func SeedDoseLog(t *testing.T, store storage.Storage, customerID int64, takenDate string, intervalWeeks, extraWeeks int) *models.DoseLog {
	t.Helper()
	log := &models.DoseLog{
		CustomerID:    customerID,
		TakenDate:     Date(t, takenDate),
		IntervalWeeks: intervalWeeks,
		ExtraWeeks:    extraWeeks,
	}
	if err := store.CreateDoseLog(context.Background(), log); err != nil {
		t.Fatalf("Failed to seed dose log: %v", err)
	}
	return log
}

// Mail is one message captured by FakeSender.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// FakeSender records sends and can be told to fail.
type FakeSender struct {
	Sent []Mail
	Err  error
}

func (f *FakeSender) Send(to, subject, body string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// FailingSender always fails with a canned error.
func FailingSender() *FakeSender {
	return &FakeSender{Err: fmt.Errorf("smtp unavailable")}
}
