// Package web serves the daemon's health, status and metrics endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/scheduler"
)

// StatusSource is implemented by *scheduler.Daemon.
type StatusSource interface {
	Snapshot() scheduler.Status
}

// SlotSource is implemented by *catalog.Catalog.
type SlotSource interface {
	OpenSlots(ctx context.Context, day string) ([]booking.TimeSlot, error)
}

type Server struct {
	Status StatusSource
	Slots  SlotSource
	Log    *slog.Logger
	Now    func() time.Time
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if s.Slots != nil {
		r.HandleFunc("/slots/{offset:[0-9]+}", s.handleSlots).Methods(http.MethodGet)
	}

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status.Snapshot())
}

type slotView struct {
	ResourceID string `json:"resource_id"`
	HourID     int    `json:"hour_id"`
	Label      string `json:"label"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(mux.Vars(r)["offset"])
	if err != nil {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	day := booking.DayFor(now(), offset)

	slots, err := s.Slots.OpenSlots(r.Context(), day)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("slot lookup failed", "day", day, "error", err)
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	out := make([]slotView, 0, len(slots))
	for _, sl := range slots {
		out = append(out, slotView{ResourceID: sl.ResourceID, HourID: sl.HourID, Label: sl.Label})
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "slots": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start serves h on addr until ctx is done.
func Start(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if log != nil {
		log.Info("status server listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
