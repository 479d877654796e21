package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casedesk/internal/caseservice"
	"github.com/starford/casedesk/internal/evidence"
	"github.com/starford/casedesk/internal/models"
)

// SearchDefaults fill in search parameters a request leaves out.
type SearchDefaults struct {
	MinRelevance     float64
	MaxResults       int
	SimilarThreshold float64
	SimilarLimit     int
	TagCount         int
}

// DefaultSearch mirrors the defaults of the investigator search screen.
var DefaultSearch = SearchDefaults{
	MinRelevance:     0.3,
	MaxResults:       10,
	SimilarThreshold: 0.4,
	SimilarLimit:     5,
	TagCount:         5,
}

// Handler holds API route handlers.
type Handler struct {
	cases    *caseservice.Service
	evidence *evidence.Service
	defaults SearchDefaults
}

// NewHandler creates a new Handler. Zero-valued defaults fall back to
// DefaultSearch field by field.
func NewHandler(cases *caseservice.Service, ev *evidence.Service, defaults SearchDefaults) *Handler {
	if defaults.MinRelevance <= 0 {
		defaults.MinRelevance = DefaultSearch.MinRelevance
	}
	if defaults.MaxResults <= 0 {
		defaults.MaxResults = DefaultSearch.MaxResults
	}
	if defaults.SimilarThreshold <= 0 {
		defaults.SimilarThreshold = DefaultSearch.SimilarThreshold
	}
	if defaults.SimilarLimit <= 0 {
		defaults.SimilarLimit = DefaultSearch.SimilarLimit
	}
	if defaults.TagCount <= 0 {
		defaults.TagCount = DefaultSearch.TagCount
	}
	return &Handler{cases: cases, evidence: ev, defaults: defaults}
}

func queryInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return def
}

// queryFloat parses a [0,1] fraction; values above 1 are read as percentages.
func queryFloat(r *http.Request, key string, def float64) float64 {
	f, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil || f < 0 {
		return def
	}
	if f > 1 {
		f /= 100
	}
	return min(f, 1)
}

// ListCases handles GET /cases.
//
//	@Summary		List cases, most recently updated first
//	@Tags			cases
//	@Produce		json
//	@Param			territory	query		string	false	"Territory filter"
//	@Param			status		query		string	false	"Status filter"
//	@Param			priority	query		string	false	"Priority filter"
//	@Success		200			{object}	CaseListResponse
//	@Security		BearerAuth
//	@Router			/cases [get]
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cases, err := h.cases.ListCases(r.Context(), models.CaseFilter{
		Territory: models.Territory(q.Get("territory")),
		Status:    models.Status(q.Get("status")),
		Priority:  models.Priority(q.Get("priority")),
	})
	if err != nil {
		writeError(w, "list cases", err)
		return
	}
	writeJSON(w, http.StatusOK, CaseListResponse{Cases: cases, Total: len(cases)})
}

// GetCase handles GET /cases/{id}. The response carries the case checksum
// as its ETag.
//
//	@Summary		Get a single case
//	@Tags			cases
//	@Produce		json
//	@Param			id	path		string	true	"Case ID"
//	@Success		200	{object}	models.Case
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id} [get]
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.cases.GetCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get case", err)
		return
	}
	w.Header().Set("ETag", `"`+caseservice.Checksum(c)+`"`)
	writeJSON(w, http.StatusOK, c)
}

// CreateCase handles POST /cases.
//
//	@Summary		Open a new case
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		caseservice.CaseInput	true	"Case to create"
//	@Success		201		{object}	models.Case
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases [post]
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var in caseservice.CaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.cases.CreateCase(r.Context(), in)
	if err != nil {
		writeError(w, "create case", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCase handles PUT /cases/{id} with optional If-Match.
//
//	@Summary		Update case fields with optimistic concurrency
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Case ID"
//	@Param			If-Match	header		string					false	"Case checksum"
//	@Param			body		body		caseservice.CasePatch	true	"Fields to change"
//	@Success		200			{object}	models.Case
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id} [put]
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var patch caseservice.CasePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	c, err := h.cases.UpdateCase(r.Context(), chi.URLParam(r, "id"), patch, ifMatch)
	if err != nil {
		writeError(w, "update case", err)
		return
	}
	w.Header().Set("ETag", `"`+caseservice.Checksum(c)+`"`)
	writeJSON(w, http.StatusOK, c)
}

// DeleteCase handles DELETE /cases/{id}.
//
//	@Summary		Delete a case with its exhibits
//	@Tags			cases
//	@Produce		json
//	@Param			id	path	string	true	"Case ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id} [delete]
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := h.cases.DeleteCase(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete case", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addTo decodes a nested collection item and hands it to add.
func addTo[T any](op string, add func(ctx context.Context, caseID string, item T) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item T
		if !decodeJSON(w, r, &item) {
			return
		}
		out, err := add(r.Context(), chi.URLParam(r, "id"), item)
		if err != nil {
			writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// setOn decodes a replacement value for part of the case and returns the
// updated case.
func setOn[T any](op string, set func(ctx context.Context, caseID string, v T) (models.Case, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if !decodeJSON(w, r, &v) {
			return
		}
		c, err := set(r.Context(), chi.URLParam(r, "id"), v)
		if err != nil {
			writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// CompleteTask handles POST /cases/{id}/tasks/{taskID}/complete.
//
//	@Summary		Mark a case task complete
//	@Tags			cases
//	@Produce		json
//	@Param			id		path		string	true	"Case ID"
//	@Param			taskID	path		string	true	"Task ID"
//	@Success		200		{object}	models.Task
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id}/tasks/{taskID}/complete [post]
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.cases.CompleteTask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, "complete task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetBriefing handles PUT /cases/{id}/briefing.
//
//	@Summary		Replace the case briefing note
//	@Tags			cases
//	@Produce		json
//	@Accept			json
//	@Param			id		path		string			true	"Case ID"
//	@Param			body	body		BriefingRequest	true	"Briefing note"
//	@Success		200		{object}	models.Case
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id}/briefing [put]
func (h *Handler) SetBriefing(w http.ResponseWriter, r *http.Request) {
	var req BriefingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.cases.SetBriefingNote(r.Context(), chi.URLParam(r, "id"), req.Note)
	if err != nil {
		writeError(w, "set briefing note", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// AssignOfficers handles PUT /cases/{id}/officers.
//
//	@Summary		Replace the officers assigned to a case
//	@Tags			cases
//	@Produce		json
//	@Accept			json
//	@Param			id		path		string					true	"Case ID"
//	@Param			body	body		AssignOfficersRequest	true	"Officer IDs"
//	@Success		200		{object}	models.Case
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id}/officers [put]
func (h *Handler) AssignOfficers(w http.ResponseWriter, r *http.Request) {
	var req AssignOfficersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.cases.AssignOfficers(r.Context(), chi.URLParam(r, "id"), req.OfficerIDs)
	if err != nil {
		writeError(w, "assign officers", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
