package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medremind.app/cloud/models"
)

type DoseLogRequest struct {
	TakenDate     string `json:"taken_date"`
	IntervalWeeks int    `json:"interval_weeks"`
	ExtraWeeks    int    `json:"extra_weeks"`
	Note          string `json:"note"`
}

func (s *Server) CreateDoseLog(w http.ResponseWriter, r *http.Request) {
	customer, ok := s.lookupCustomer(w, r)
	if !ok {
		return
	}

	req, ok := decodeDoseLogRequest(w, r)
	if !ok {
		return
	}

	takenDate, _ := time.Parse(models.DateFormat, req.TakenDate)

	intervalWeeks := req.IntervalWeeks
	if intervalWeeks <= 0 {
		intervalWeeks = s.Config.DefaultIntervalWeeks
	}

	log := &models.DoseLog{
		CustomerID:    customer.ID,
		TakenDate:     takenDate,
		IntervalWeeks: intervalWeeks,
		ExtraWeeks:    req.ExtraWeeks,
		Note:          req.Note,
	}
	if err := s.Storage.CreateDoseLog(r.Context(), log); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create dose log")
		return
	}

	writeJSON(w, http.StatusCreated, doseLogView(log))
}

// UpdateDoseLog corrects a dose log's date, interval, adjustment or note.
func (s *Server) UpdateDoseLog(w http.ResponseWriter, r *http.Request) {
	log, ok := s.lookupDoseLog(w, r)
	if !ok {
		return
	}

	req, ok := decodeDoseLogRequest(w, r)
	if !ok {
		return
	}

	takenDate, _ := time.Parse(models.DateFormat, req.TakenDate)

	intervalWeeks := req.IntervalWeeks
	if intervalWeeks <= 0 {
		intervalWeeks = s.Config.DefaultIntervalWeeks
	}

	log.TakenDate = takenDate
	log.IntervalWeeks = intervalWeeks
	log.ExtraWeeks = req.ExtraWeeks
	log.Note = req.Note

	if err := s.Storage.UpdateDoseLog(r.Context(), log); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to update dose log")
		return
	}

	writeJSON(w, http.StatusOK, doseLogView(log))
}

func (s *Server) DeleteDoseLog(w http.ResponseWriter, r *http.Request) {
	log, ok := s.lookupDoseLog(w, r)
	if !ok {
		return
	}

	if err := s.Storage.DeleteDoseLog(r.Context(), log.ID); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to delete dose log")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func decodeDoseLogRequest(w http.ResponseWriter, r *http.Request) (*DoseLogRequest, bool) {
	var req DoseLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}

	if _, err := time.Parse(models.DateFormat, req.TakenDate); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "taken_date must be YYYY-MM-DD")
		return nil, false
	}

	return &req, true
}

// lookupDoseLog resolves {doseID} and verifies it belongs to the customer
// in the route.
func (s *Server) lookupDoseLog(w http.ResponseWriter, r *http.Request) (*models.DoseLog, bool) {
	customer, ok := s.lookupCustomer(w, r)
	if !ok {
		return nil, false
	}

	id, err := parseID(chi.URLParam(r, "doseID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid dose log id")
		return nil, false
	}

	log, err := s.Storage.GetDoseLog(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to load dose log")
		return nil, false
	}
	if log == nil || log.CustomerID != customer.ID {
		writeErrorResponse(w, http.StatusNotFound, "Dose log not found")
		return nil, false
	}

	return log, true
}

func doseLogView(log *models.DoseLog) DoseLogView {
	return DoseLogView{
		ID:            log.ID,
		TakenDate:     log.TakenDate.Format(models.DateFormat),
		IntervalWeeks: log.IntervalWeeks,
		ExtraWeeks:    log.ExtraWeeks,
		Note:          log.Note,
	}
}
