package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the service reads from the environment.
// SMTP settings are optional: a missing credential surfaces as a failed
// send at run time, not a startup error.
type Config struct {
	Port         string
	DatabasePath string

	// Reminder policy.
	MilestoneOffsets     []int
	DefaultIntervalWeeks int
	Timezone             string
	NotifyHour           int
	NotifyMinute         int
	NotifyRecipient      string

	EmailFrom    string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
}

func New() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "medication.db"
	}

	offsets, err := parseOffsets(os.Getenv("NOTIFY_OFFSETS"))
	if err != nil {
		return nil, err
	}

	defaultWeeks := 4
	if raw := os.Getenv("DEFAULT_INTERVAL_WEEKS"); raw != "" {
		defaultWeeks, err = strconv.Atoi(raw)
		if err != nil || defaultWeeks < 1 {
			return nil, fmt.Errorf("DEFAULT_INTERVAL_WEEKS must be a positive integer, got %q", raw)
		}
	}

	timezone := os.Getenv("TIMEZONE")
	if timezone == "" {
		timezone = "Europe/London"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	hour, minute, err := parseNotifyAt(os.Getenv("NOTIFY_AT"))
	if err != nil {
		return nil, err
	}

	smtpUsername := os.Getenv("SMTP_USERNAME")
	emailFrom := os.Getenv("EMAIL_FROM")
	if emailFrom == "" {
		emailFrom = smtpUsername
	}

	return &Config{
		Port:                 port,
		DatabasePath:         dbPath,
		MilestoneOffsets:     offsets,
		DefaultIntervalWeeks: defaultWeeks,
		Timezone:             timezone,
		NotifyHour:           hour,
		NotifyMinute:         minute,
		NotifyRecipient:      os.Getenv("NOTIFY_EMAIL"),
		EmailFrom:            emailFrom,
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             os.Getenv("SMTP_PORT"),
		SMTPUsername:         smtpUsername,
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
	}, nil
}

// parseOffsets reads a comma-separated offset list such as "7,0".
func parseOffsets(raw string) ([]int, error) {
	if raw == "" {
		return []int{7, 0}, nil
	}

	var offsets []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		offset, err := strconv.Atoi(part)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("NOTIFY_OFFSETS must be non-negative integers, got %q", part)
		}
		offsets = append(offsets, offset)
	}
	return offsets, nil
}

// parseNotifyAt reads the daily trigger time in "HH:MM" form.
func parseNotifyAt(raw string) (int, int, error) {
	if raw == "" {
		return 9, 0, nil
	}

	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("NOTIFY_AT must be HH:MM, got %q", raw)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
