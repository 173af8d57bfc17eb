package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appointment-booking-api/internal/booking"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/notify"
)

type createAppointmentRequest struct {
	Title    string `json:"title"`
	SlotTime string `json:"slot_time"`
	UserID   string `json:"user_id"`
}

type appointmentResponse struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	SlotTime string       `json:"slot_time"`
	Status   model.Status `json:"status"`
	UserID   string       `json:"user_id"`
}

func toResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:       a.ID,
		Title:    a.Title,
		SlotTime: a.SlotTime.UTC().Format(time.RFC3339Nano),
		Status:   a.Status,
		UserID:   a.UserID,
	}
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	slot, err := booking.ParseSlot(req.SlotTime)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	a, err := h.svc.CreateAppointment(r.Context(), req.Title, slot, req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.hub.Broadcast(r.Context(), notify.Booked(a.ID, a.Title))
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) listByDate(w http.ResponseWriter, r *http.Request) {
	day, err := booking.ParseDay(r.URL.Query().Get("target_date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.ListByDate(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]appointmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	a, changed, err := h.svc.CancelAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// repeat cancels succeed quietly
	if changed {
		h.hub.Broadcast(r.Context(), notify.Cancelled(a.ID))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Appointment cancelled"})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": errCodeUnavailable, "subscribers": h.hub.Len(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "subscribers": h.hub.Len()})
}
