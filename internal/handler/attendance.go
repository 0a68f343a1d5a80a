package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/service"
)

// AttendanceHandler records credited days of DAILY leases.
type AttendanceHandler struct {
	Service  *service.LeaseService
	Location *time.Location
}

func (h AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leases/{id}/attendance", h.listMonth)
	r.Post("/leases/{id}/attendance", h.mark)
	r.Delete("/leases/{id}/attendance/{date}", h.unmark)
}

func (h AttendanceHandler) mark(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Date   string `json:"date" validate:"required,datetime=2006-01-02"`
		Status string `json:"status" validate:"omitempty,oneof=PAID UNPAID"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	day, _ := parseDateIn(req.Date, h.Location)
	a, err := h.Service.MarkAttendance(r.Context(), leaseID, day, domain.AttendanceStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attendancePayload(*a))
}

func (h AttendanceHandler) unmark(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	day, err := parseDateIn(chi.URLParam(r, "date"), h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := h.Service.UnmarkAttendance(r.Context(), leaseID, day); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h AttendanceHandler) listMonth(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := parseMonthQuery(r, time.Now().In(locationOrUTC(h.Location)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Service.ListAttendance(r.Context(), leaseID, m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, a := range items {
		resp = append(resp, attendancePayload(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month": m.String(),
		"count": len(items),
		"items": resp,
	})
}

func attendancePayload(a domain.Attendance) map[string]any {
	return map[string]any{
		"id":      formatID(a.ID),
		"leaseId": formatID(a.LeaseID),
		"stallId": a.StallID,
		"date":    a.Date.Format(dateLayout),
		"status":  string(a.Status),
		"amount":  a.Amount,
	}
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
