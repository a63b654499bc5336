// Package notify runs the daily reminder evaluation over the customer
// roster: compute each customer's next due date, decide which milestones
// fire today, send, and record successful sends so they never repeat.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"

	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/internal/email"
	"medremind.app/cloud/internal/logger"
	"medremind.app/cloud/internal/schedule"
	"medremind.app/cloud/models"
	"medremind.app/cloud/storage"
)

type Notifier struct {
	Storage storage.Storage
	Sender  email.Sender
	Config  *config.Config

	// Now is replaceable in tests; defaults to time.Now.
	Now func() time.Time

	// Runs are strictly serialized: the scheduled trigger and a manual
	// trigger must never interleave the duplicate-check with the
	// notification write.
	mu      sync.Mutex
	running atomic.Bool
}

func New(store storage.Storage, sender email.Sender, cfg *config.Config) *Notifier {
	return &Notifier{
		Storage: store,
		Sender:  sender,
		Config:  cfg,
		Now:     time.Now,
	}
}

// Running reports whether an evaluation run is currently in progress.
func (n *Notifier) Running() bool {
	return n.running.Load()
}

type SentReminder struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Milestone    string `json:"milestone"`
	DueDate      string `json:"due_date"`
}

type RunReport struct {
	StartedAt        time.Time      `json:"started_at"`
	CustomersChecked int            `json:"customers_checked"`
	Sent             []SentReminder `json:"sent"`
	SendFailures     int            `json:"send_failures"`
}

// Run evaluates every active customer once. Send failures are logged and
// counted but never returned as errors: the milestone stays unrecorded, so
// the next run on the same day retries it. Storage errors are collected
// and returned after the full roster has been attempted.
func (n *Notifier) Run(ctx context.Context) (*RunReport, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.running.Store(true)
	defer n.running.Store(false)

	today := n.today()
	report := &RunReport{
		StartedAt: n.Now().UTC(),
		Sent:      []SentReminder{},
	}

	customers, err := n.Storage.ListCustomers(ctx, false)
	if err != nil {
		return report, fmt.Errorf("failed to list customers: %w", err)
	}

	milestones := models.Milestones(n.Config.MilestoneOffsets)

	var runErr *multierror.Error
	for _, customer := range customers {
		report.CustomersChecked++

		if err := n.evaluateCustomer(ctx, customer, milestones, today, report); err != nil {
			runErr = multierror.Append(runErr, fmt.Errorf("customer %d: %w", customer.ID, err))
		}
	}

	logger.Info("Reminder run finished", map[string]interface{}{
		"customers":     report.CustomersChecked,
		"sent":          len(report.Sent),
		"send_failures": report.SendFailures,
	})

	return report, runErr.ErrorOrNil()
}

func (n *Notifier) evaluateCustomer(ctx context.Context, customer models.Customer, milestones []models.Milestone, today time.Time, report *RunReport) error {
	logs, err := n.Storage.ListDoseLogs(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to list dose logs: %w", err)
	}

	dueDate := schedule.NextDueDate(customer, logs, n.Config.DefaultIntervalWeeks)
	dDay := schedule.DaysUntil(dueDate, today)

	sent := make(map[string]bool)
	for _, milestone := range milestones {
		if dDay != milestone.Offset {
			continue
		}

		already, err := n.Storage.HasNotification(ctx, customer.ID, milestone.Name, dueDate)
		if err != nil {
			return fmt.Errorf("failed to check notification log: %w", err)
		}
		if already {
			logger.Debug("Reminder already sent", map[string]interface{}{
				"customer_id": customer.ID,
				"milestone":   milestone.Name,
				"due_date":    dueDate.Format(models.DateFormat),
			})
		}
		sent[milestone.Name] = already
	}

	for _, milestone := range schedule.DueMilestones(milestones, dDay, sent) {
		subject, body := reminderMessage(customer, dueDate, dDay)
		if err := n.Sender.Send(n.Config.NotifyRecipient, subject, body); err != nil {
			// No notification record on failure: the next run retries.
			logger.Error("Failed to send reminder", map[string]interface{}{
				"customer_id": customer.ID,
				"milestone":   milestone.Name,
				"error":       err.Error(),
			})
			report.SendFailures++
			continue
		}

		err = n.Storage.CreateNotification(ctx, &models.NotificationLog{
			CustomerID: customer.ID,
			Milestone:  milestone.Name,
			DueDate:    dueDate,
			SentAt:     n.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to record notification: %w", err)
		}

		report.Sent = append(report.Sent, SentReminder{
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Milestone:    milestone.Name,
			DueDate:      dueDate.Format(models.DateFormat),
		})
	}

	return nil
}

// today is the current calendar date in the configured timezone.
func (n *Notifier) today() time.Time {
	now := n.Now()
	if loc, err := time.LoadLocation(n.Config.Timezone); err == nil {
		now = now.In(loc)
	}
	return schedule.DateOnly(now)
}

func reminderMessage(customer models.Customer, dueDate time.Time, dDay int) (subject, body string) {
	due := dueDate.Format(models.DateFormat)
	subject = fmt.Sprintf("[Medication reminder] %s: next dose due %s", customer.Name, due)
	body = fmt.Sprintf("Customer: %s\nNext dose due: %s\nStatus: D-%d\nPlease follow up.", customer.Name, due, dDay)
	return subject, body
}
