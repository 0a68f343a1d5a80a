package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/report"
	"marketplace-backend/internal/service"
)

type ReportHandler struct {
	Reports  *service.ReportService
	Location *time.Location
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/monthly", h.monthly)
	r.Get("/reports/debtors", h.debtors)
}

// monthly serves ?format=json (default), xlsx or csv.
func (h ReportHandler) monthly(w http.ResponseWriter, r *http.Request) {
	m, err := parseMonthQuery(r, time.Now().In(locationOrUTC(h.Location)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := h.Reports.Monthly(r.Context(), m)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, map[string]any{
			"month":         rep.Month.String(),
			"rows":          monthRowsPayload(rep.Rows),
			"totalExpected": rep.TotalExpected,
			"totalPaid":     rep.TotalPaid,
			"statusCounts":  statusCountsPayload(rep.StatusCounts),
		})
	case "xlsx", "excel":
		data, err := report.MonthlyXLSX(rep)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAttachment(w, report.XLSXContentType, "leases_"+rep.Month.String()+".xlsx", data)
	case "csv":
		data, err := report.MonthlyCSV(rep)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAttachment(w, report.CSVContentType, "leases_"+rep.Month.String()+".csv", data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use json, csv or xlsx)")
	}
}

func (h ReportHandler) debtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.Reports.Debtors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		resp := make([]map[string]any, 0, len(debtors))
		for _, d := range debtors {
			resp = append(resp, leaseDebtPayload(d))
		}
		writeJSON(w, http.StatusOK, resp)
	case "xlsx", "excel":
		data, err := report.DebtorsXLSX(debtors)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeAttachment(w, report.XLSXContentType, "debtors_"+time.Now().In(locationOrUTC(h.Location)).Format(dateLayout)+".xlsx", data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use json or xlsx)")
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}
