// Package api exposes the read-only HTTP surface: health, metrics, free
// slots and active bookings.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/service"
	"driverbook/storage"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc service.IServiceManager
	log logger.ILogger
}

func New(svc service.IServiceManager, log logger.ILogger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/drivers/{id}/slots", h.freeSlots)
		r.Get("/bookings/active", h.activeBookings)
	})
	return r
}

type slotView struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type slotsResponse struct {
	DriverID int64      `json:"driver_id"`
	Date     string     `json:"date"`
	Slots    []slotView `json:"slots"`
}

func (h *Handler) freeSlots(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid driver id")
		return
	}
	date, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), h.svc.Slot().Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	free, err := h.svc.Slot().FreeSlots(r.Context(), driverID, date)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "driver not found")
		return
	case err != nil:
		h.log.Error("free slots failed", logger.Int64("driver_id", driverID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := slotsResponse{DriverID: driverID, Date: date.Format(dateLayout), Slots: make([]slotView, 0, len(free))}
	for _, s := range free {
		resp.Slots = append(resp.Slots, slotView{Start: s.Start, End: s.End})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activeBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Booking().ListActive(r.Context())
	if err != nil {
		h.log.Error("active bookings failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Duration("took", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
