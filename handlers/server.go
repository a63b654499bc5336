package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/internal/notify"
	"medremind.app/cloud/internal/ratelimit"
	"medremind.app/cloud/storage"
)

type Server struct {
	Router   chi.Router
	Storage  storage.Storage
	Notifier *notify.Notifier
	Config   *config.Config

	// Now is replaceable in tests; defaults to time.Now.
	Now func() time.Time

	runLimit ratelimit.RateLimit
}

func NewServer(store storage.Storage, notifier *notify.Notifier, cfg *config.Config) *Server {
	router := chi.NewRouter()

	s := &Server{
		Router:   router,
		Storage:  store,
		Notifier: notifier,
		Config:   cfg,
		Now:      time.Now,
		runLimit: ratelimit.New(10, 10*time.Minute),
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/health", s.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/customers", s.ListCustomers)
		r.Post("/customers", s.CreateCustomer)

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/", s.GetCustomer)
			r.Put("/", s.UpdateCustomer)
			r.Put("/status", s.SetCustomerStatus)

			r.Post("/doses", s.CreateDoseLog)
			r.Put("/doses/{doseID}", s.UpdateDoseLog)
			r.Delete("/doses/{doseID}", s.DeleteDoseLog)
		})

		r.With(s.limitRuns).Post("/checks/run", s.RunChecks)
	})

	return s
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limitRuns guards the manual trigger against being hammered.
func (s *Server) limitRuns(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.runLimit.Allow(r.RemoteAddr) {
			writeErrorResponse(w, http.StatusTooManyRequests, "Too many manual runs, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
