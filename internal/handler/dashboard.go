package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/service"
)

type DashboardHandler struct {
	Reports *service.ReportService
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.summary)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	top := make([]map[string]any, 0, len(d.TopOverdue))
	for _, debt := range d.TopOverdue {
		top = append(top, leaseDebtPayload(debt))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activeLeases": d.ActiveLeases,
		"month":        d.Month.String(),
		"expected":     d.Expected,
		"paid":         d.Paid,
		"statusCounts": statusCountsPayload(d.StatusCounts),
		"totalDebt":    d.TotalDebt,
		"debtorCount":  d.DebtorCount,
		"topOverdue":   top,
		"generatedAt":  d.GeneratedAt,
	})
}

func statusCountsPayload(counts map[domain.LeaseStatus]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	return out
}

func monthRowsPayload(rows []billing.LeaseMonth) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"leaseId":         formatID(r.Lease.ID),
			"ownerId":         formatID(r.Lease.OwnerID),
			"storeId":         r.Lease.StoreID,
			"stallId":         r.Lease.StallID,
			"paymentInterval": string(r.Lease.PaymentInterval),
			"expected":        r.Expected,
			"paid":            r.Paid,
			"attendanceCount": r.AttendanceCount,
			"status":          string(r.Status),
		})
	}
	return out
}
