package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"medremind.app/cloud/internal/schedule"
	"medremind.app/cloud/models"
	"medremind.app/cloud/storage"
)

type CustomerRequest struct {
	Name               string `json:"name"`
	Contact            string `json:"contact"`
	StartDate          string `json:"start_date"`
	FirstIntervalWeeks int    `json:"first_interval_weeks"`
}

type CustomerView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	StartDate   string `json:"start_date"`
	Active      bool   `json:"active"`
	NextDueDate string `json:"next_due_date"`
	DDay        int    `json:"d_day"`
}

type DoseLogView struct {
	ID            int64  `json:"id"`
	TakenDate     string `json:"taken_date"`
	IntervalWeeks int    `json:"interval_weeks"`
	ExtraWeeks    int    `json:"extra_weeks"`
	Note          string `json:"note"`
}

type CustomerDetail struct {
	CustomerView
	AlertDate string        `json:"alert_date"`
	DoseLogs  []DoseLogView `json:"dose_logs"`
}

// ListCustomers returns the roster with each customer's computed next due
// date and D-day. Inactive customers are included only on request.
func (s *Server) ListCustomers(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "1"

	customers, err := s.Storage.ListCustomers(r.Context(), includeInactive)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list customers")
		return
	}

	today := schedule.DateOnly(s.Now())

	views := make([]CustomerView, 0, len(customers))
	for _, customer := range customers {
		logs, err := s.Storage.ListDoseLogs(r.Context(), customer.ID)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to list dose logs")
			return
		}
		views = append(views, s.customerView(customer, logs, today))
	}

	writeJSON(w, http.StatusOK, views)
}

// CreateCustomer registers a customer and seeds the initial dose log at
// the enrollment date.
func (s *Server) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Name is required")
		return
	}

	startDate, err := time.Parse(models.DateFormat, req.StartDate)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}

	existing, err := s.Storage.FindCustomerByName(r.Context(), req.Name)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to check for duplicates")
		return
	}
	if existing != nil {
		writeErrorResponse(w, http.StatusConflict, fmt.Sprintf("Customer %q already exists", req.Name))
		return
	}

	customer := &models.Customer{
		Name:      req.Name,
		Contact:   req.Contact,
		StartDate: startDate,
		Active:    true,
	}
	if err := s.Storage.CreateCustomer(r.Context(), customer); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	firstWeeks := req.FirstIntervalWeeks
	if firstWeeks <= 0 {
		firstWeeks = s.Config.DefaultIntervalWeeks
	}

	seed := &models.DoseLog{
		CustomerID:    customer.ID,
		TakenDate:     startDate,
		IntervalWeeks: firstWeeks,
		Note:          "initial dose",
	}
	if err := s.Storage.CreateDoseLog(r.Context(), seed); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create initial dose log")
		return
	}

	today := schedule.DateOnly(s.Now())
	writeJSON(w, http.StatusCreated, s.customerView(*customer, []models.DoseLog{*seed}, today))
}

// GetCustomer returns the detail view: dose history newest first, the
// computed due date, the alert date and the D-day.
func (s *Server) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, ok := s.lookupCustomer(w, r)
	if !ok {
		return
	}

	logs, err := s.Storage.ListDoseLogs(r.Context(), customer.ID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list dose logs")
		return
	}

	today := schedule.DateOnly(s.Now())
	view := s.customerView(*customer, logs, today)
	due := schedule.NextDueDate(*customer, logs, s.Config.DefaultIntervalWeeks)

	doseViews := make([]DoseLogView, 0, len(logs))
	for _, log := range logs {
		doseViews = append(doseViews, DoseLogView{
			ID:            log.ID,
			TakenDate:     log.TakenDate.Format(models.DateFormat),
			IntervalWeeks: log.IntervalWeeks,
			ExtraWeeks:    log.ExtraWeeks,
			Note:          log.Note,
		})
	}

	writeJSON(w, http.StatusOK, CustomerDetail{
		CustomerView: view,
		AlertDate:    schedule.AlertDate(due).Format(models.DateFormat),
		DoseLogs:     doseViews,
	})
}

// UpdateCustomer edits name and contact.
func (s *Server) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customer, ok := s.lookupCustomer(w, r)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Name is required")
		return
	}

	if req.Name != customer.Name {
		existing, err := s.Storage.FindCustomerByName(r.Context(), req.Name)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to check for duplicates")
			return
		}
		if existing != nil {
			writeErrorResponse(w, http.StatusConflict, fmt.Sprintf("Customer %q already exists", req.Name))
			return
		}
	}

	customer.Name = req.Name
	customer.Contact = req.Contact

	if err := s.Storage.UpdateCustomer(r.Context(), customer); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	logs, err := s.Storage.ListDoseLogs(r.Context(), customer.ID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to list dose logs")
		return
	}

	writeJSON(w, http.StatusOK, s.customerView(*customer, logs, schedule.DateOnly(s.Now())))
}

type StatusRequest struct {
	Active bool `json:"active"`
}

// SetCustomerStatus toggles the active flag; customers are never deleted.
func (s *Server) SetCustomerStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "customerID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := s.Storage.SetCustomerActive(r.Context(), id, req.Active); err != nil {
		if err == storage.ErrNotFound {
			writeErrorResponse(w, http.StatusNotFound, "Customer not found")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to update customer status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "active": req.Active})
}

func (s *Server) customerView(customer models.Customer, logs []models.DoseLog, today time.Time) CustomerView {
	due := schedule.NextDueDate(customer, logs, s.Config.DefaultIntervalWeeks)

	return CustomerView{
		ID:          customer.ID,
		Name:        customer.Name,
		Contact:     customer.Contact,
		StartDate:   customer.StartDate.Format(models.DateFormat),
		Active:      customer.Active,
		NextDueDate: due.Format(models.DateFormat),
		DDay:        schedule.DaysUntil(due, today),
	}
}

// lookupCustomer resolves the {customerID} route param, writing the error
// response itself when the id is malformed or unknown.
func (s *Server) lookupCustomer(w http.ResponseWriter, r *http.Request) (*models.Customer, bool) {
	id, err := parseID(chi.URLParam(r, "customerID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid customer id")
		return nil, false
	}

	customer, err := s.Storage.GetCustomer(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to load customer")
		return nil, false
	}
	if customer == nil {
		writeErrorResponse(w, http.StatusNotFound, "Customer not found")
		return nil, false
	}

	return customer, true
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
