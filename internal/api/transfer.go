package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casedesk/internal/caseservice"
	"github.com/starford/casedesk/internal/models"
)

// Stats handles GET /stats.
//
//	@Summary		Summarise the case load
//	@Tags			reports
//	@Produce		json
//	@Success		200	{object}	models.Statistics
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.cases.Statistics(r.Context())
	if err != nil {
		writeError(w, "statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Export handles GET /export: every case and officer as one JSON bundle.
//
//	@Summary		Export every case and officer as a JSON bundle
//	@Tags			transfer
//	@Produce		json
//	@Success		200	{object}	caseservice.Bundle
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	b, err := h.cases.Export(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="casedesk_export.json"`)
	writeJSON(w, http.StatusOK, b)
}

// Import handles POST /import with a bundle produced by Export.
//
//	@Summary		Import a bundle produced by export
//	@Tags			transfer
//	@Produce		json
//	@Accept			json
//	@Param			body	body		caseservice.Bundle	true	"Bundle"
//	@Success		200		{object}	caseservice.ImportSummary
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var b caseservice.Bundle
	if !decodeJSON(w, r, &b) {
		return
	}
	sum, err := h.cases.Import(r.Context(), b)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	slog.Info("import finished",
		slog.Int("cases_created", sum.CasesCreated),
		slog.Int("cases_updated", sum.CasesUpdated),
		slog.Int("officers_created", sum.OfficersCreated),
		slog.Int("officers_updated", sum.OfficersUpdated),
	)
	writeJSON(w, http.StatusOK, sum)
}

// ExportCSV handles GET /export.csv.
//
//	@Summary		Export cases as CSV
//	@Tags			transfer
//	@Produce		text/csv
//	@Param			territory	query	string	false	"Territory filter"
//	@Success		200			{file}	file
//	@Security		BearerAuth
//	@Router			/export.csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	territory := models.Territory(r.URL.Query().Get("territory"))
	var buf bytes.Buffer
	if err := h.cases.ExportCSV(r.Context(), &buf, territory); err != nil {
		writeError(w, "export csv", err)
		return
	}
	name := "cases"
	if territory != "" {
		name += "_" + strings.ReplaceAll(strings.ToLower(string(territory)), " ", "_")
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("csv write failed", slog.String("error", err.Error()))
	}
}

// TerritoryReport handles GET /reports/territory.
//
//	@Summary		Render the territory summary report
//	@Tags			reports
//	@Produce		html
//	@Param			territory	query	string	false	"Territory filter"
//	@Success		200			{string}	string
//	@Security		BearerAuth
//	@Router			/reports/territory [get]
func (h *Handler) TerritoryReport(w http.ResponseWriter, r *http.Request) {
	html, err := h.cases.TerritoryReport(r.Context(), models.Territory(r.URL.Query().Get("territory")))
	if err != nil {
		writeError(w, "territory report", err)
		return
	}
	writeHTML(w, html)
}

// Disclosure handles GET /cases/{id}/disclosure.
//
//	@Summary		Render the disclosure package for a case
//	@Tags			reports
//	@Produce		html
//	@Param			id	path		string	true	"Case ID"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id}/disclosure [get]
func (h *Handler) Disclosure(w http.ResponseWriter, r *http.Request) {
	html, err := h.cases.DisclosurePackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "disclosure package", err)
		return
	}
	writeHTML(w, html)
}
