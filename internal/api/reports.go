package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/report"
)

// ReportsHandler handles the inspection history endpoints.
type ReportsHandler struct {
	Service  *inspection.Service
	Renderer *report.Renderer
}

type signReportRequest struct {
	Signature string `json:"signature"`
}

// List handles GET /api/reports. Only signed, non-deleted reports are listed.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	from, to, err := parseDateRange(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := model.ReportFilter{From: from, To: to}
	if claims.IsAdmin() {
		if v := r.URL.Query().Get("inspector"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid inspector id")
				return
			}
			filter.AssignedTo = id
		}
	} else {
		filter.AssignedTo = claims.UserID
	}

	reports, err := h.Service.Docs.ListReports(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list reports", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Get handles GET /api/reports/{id}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// Document handles GET /api/reports/{id}/document.
func (h *ReportsHandler) Document(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, rep, time.Now()); err != nil {
		slog.Error("failed to render report", "report", rep.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("download") != "" {
		name := strings.ReplaceAll(rep.Name, `"`, "")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+` report.html"`)
	}
	w.Write(buf.Bytes())
}

// Sign handles POST /api/reports/{id}/signature.
func (h *ReportsHandler) Sign(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.load(w, r)
	if !ok {
		return
	}

	var req signReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Signature == "" {
		jsonError(w, http.StatusBadRequest, "signature required")
		return
	}

	signed, err := h.Service.Sign(r.Context(), rep.ID, req.Signature)
	if err != nil {
		serviceError(w, "sign report", err)
		return
	}
	jsonResponse(w, http.StatusOK, signed)
}

// Delete handles DELETE /api/reports/{id}. The report is hidden from the
// history but kept.
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.Service.Docs.DeleteReport(r.Context(), rep.ID); err != nil {
		slog.Error("failed to delete report", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("report deleted", "user", claims.Username, "report", rep.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "report deleted"})
}

// load fetches the report named in the path. Deleted reports and reports
// of other inspectors are reported as missing.
func (h *ReportsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Report, bool) {
	rep, err := h.Service.Docs.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get report", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get report")
		return nil, false
	}

	claims := GetClaims(r.Context())
	if rep == nil || rep.DeletedAt != nil || (!claims.IsAdmin() && rep.AssignTo != claims.UserID) {
		jsonError(w, http.StatusNotFound, "report not found")
		return nil, false
	}
	return rep, true
}
