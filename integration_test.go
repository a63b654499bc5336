package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"medremind.app/cloud/handlers"
	"medremind.app/cloud/internal/notify"
	"medremind.app/cloud/internal/testutil"
	"medremind.app/cloud/storage"
)

// Integration tests that run complete workflows through the HTTP API
// against the real SQLite storage.

func newIntegrationServer(t *testing.T, now string) (*handlers.Server, *testutil.FakeSender) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sender := &testutil.FakeSender{}
	cfg := testutil.TestConfig()

	notifier := notify.New(store, sender, cfg)
	notifier.Now = testutil.FixedNow(t, now)

	server := handlers.NewServer(store, notifier, cfg)
	server.Now = testutil.FixedNow(t, now)

	return server, sender
}

func serve(t *testing.T, server *handlers.Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func TestFullWorkflow_EnrollmentToReminder(t *testing.T) {
	// The customer enrolls on 2024-01-01 with the default 4-week
	// interval, so the first dose is due 2024-01-29 and the early
	// warning fires on 2024-01-22.
	server, sender := newIntegrationServer(t, "2024-01-22")

	// Step 1: Enroll the customer.
	w := serve(t, server, http.MethodPost, "/api/v1/customers", handlers.CustomerRequest{
		Name:      "Margaret Hale",
		Contact:   "margaret@example.com",
		StartDate: "2024-01-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Enrollment failed with status %d: %s", w.Code, w.Body.String())
	}

	var customer handlers.CustomerView
	if err := json.NewDecoder(w.Body).Decode(&customer); err != nil {
		t.Fatalf("Failed to decode customer: %v", err)
	}
	if customer.NextDueDate != "2024-01-29" {
		t.Fatalf("Expected next due date 2024-01-29, got %s", customer.NextDueDate)
	}

	// Step 2: Run the reminder check. The D-7 milestone is due today.
	runW := serve(t, server, http.MethodPost, "/api/v1/checks/run", nil)
	if runW.Code != http.StatusOK {
		t.Fatalf("Reminder run failed with status %d: %s", runW.Code, runW.Body.String())
	}

	var report notify.RunReport
	if err := json.NewDecoder(runW.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode run report: %v", err)
	}
	if len(report.Sent) != 1 {
		t.Fatalf("Expected 1 reminder sent, got %d", len(report.Sent))
	}
	if report.Sent[0].Milestone != "D-7" {
		t.Errorf("Expected milestone D-7, got %s", report.Sent[0].Milestone)
	}
	if len(sender.Sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(sender.Sent))
	}

	// Step 3: Run again the same day. The notification log suppresses
	// a duplicate.
	rerunW := serve(t, server, http.MethodPost, "/api/v1/checks/run", nil)
	if rerunW.Code != http.StatusOK {
		t.Fatalf("Second run failed with status %d", rerunW.Code)
	}
	if err := json.NewDecoder(rerunW.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode second report: %v", err)
	}
	if len(report.Sent) != 0 {
		t.Errorf("Expected no sends on rerun, got %d", len(report.Sent))
	}
	if len(sender.Sent) != 1 {
		t.Errorf("Expected 1 email total, got %d", len(sender.Sent))
	}
}

func TestFullWorkflow_DoseLogShiftsSchedule(t *testing.T) {
	server, sender := newIntegrationServer(t, "2024-02-22")

	w := serve(t, server, http.MethodPost, "/api/v1/customers", handlers.CustomerRequest{
		Name:      "John Thornton",
		StartDate: "2024-01-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Enrollment failed with status %d", w.Code)
	}

	var customer handlers.CustomerView
	if err := json.NewDecoder(w.Body).Decode(&customer); err != nil {
		t.Fatalf("Failed to decode customer: %v", err)
	}

	// Record a dose taken 2024-02-01: next due 2024-02-29, D-7 today.
	doseW := serve(t, server, http.MethodPost, fmt.Sprintf("/api/v1/customers/%d/doses", customer.ID), handlers.DoseLogRequest{
		TakenDate:     "2024-02-01",
		IntervalWeeks: 4,
	})
	if doseW.Code != http.StatusCreated {
		t.Fatalf("Dose log failed with status %d: %s", doseW.Code, doseW.Body.String())
	}

	runW := serve(t, server, http.MethodPost, "/api/v1/checks/run", nil)
	if runW.Code != http.StatusOK {
		t.Fatalf("Reminder run failed with status %d", runW.Code)
	}

	var report notify.RunReport
	if err := json.NewDecoder(runW.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if len(report.Sent) != 1 {
		t.Fatalf("Expected 1 reminder, got %d", len(report.Sent))
	}
	if report.Sent[0].DueDate != "2024-02-29" {
		t.Errorf("Expected due date 2024-02-29, got %s", report.Sent[0].DueDate)
	}
	if len(sender.Sent) != 1 {
		t.Errorf("Expected 1 email, got %d", len(sender.Sent))
	}
}

func TestFullWorkflow_DeactivatedCustomerGetsNoReminder(t *testing.T) {
	server, sender := newIntegrationServer(t, "2024-01-22")

	w := serve(t, server, http.MethodPost, "/api/v1/customers", handlers.CustomerRequest{
		Name:      "Edith Shaw",
		StartDate: "2024-01-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Enrollment failed with status %d", w.Code)
	}

	var customer handlers.CustomerView
	if err := json.NewDecoder(w.Body).Decode(&customer); err != nil {
		t.Fatalf("Failed to decode customer: %v", err)
	}

	statusW := serve(t, server, http.MethodPut, fmt.Sprintf("/api/v1/customers/%d/status", customer.ID), handlers.StatusRequest{Active: false})
	if statusW.Code != http.StatusOK {
		t.Fatalf("Deactivation failed with status %d", statusW.Code)
	}

	runW := serve(t, server, http.MethodPost, "/api/v1/checks/run", nil)
	if runW.Code != http.StatusOK {
		t.Fatalf("Reminder run failed with status %d", runW.Code)
	}

	var report notify.RunReport
	if err := json.NewDecoder(runW.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.CustomersChecked != 0 {
		t.Errorf("Expected 0 customers checked, got %d", report.CustomersChecked)
	}
	if len(sender.Sent) != 0 {
		t.Errorf("Expected no emails, got %d", len(sender.Sent))
	}
}
