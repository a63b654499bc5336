package handlers

import (
	"net/http"

	"medremind.app/cloud/internal/logger"
)

// RunChecks triggers one reminder evaluation on demand and returns the
// run report. The run is serialized against the daily trigger inside the
// notifier.
func (s *Server) RunChecks(w http.ResponseWriter, r *http.Request) {
	report, err := s.Notifier.Run(r.Context())
	if err != nil {
		logger.Error("Manual reminder run failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeErrorResponse(w, http.StatusInternalServerError, "Reminder run failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
