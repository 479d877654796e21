package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/search"
)

// Search handles GET /search.
//
//	@Summary		Rank cases by TF-IDF similarity to a query
//	@Tags			search
//	@Produce		json
//	@Param			q				query		string	true	"Search query"
//	@Param			scope			query		string	false	"Fields to search"	Enums(all, description, reports, timeline, evidence)
//	@Param			min_relevance	query		number	false	"Minimum score, 0-1 or percent"
//	@Param			limit			query		int		false	"Max results"
//	@Success		200				{object}	SearchResponse
//	@Failure		400				{object}	errResponse
//	@Failure		422				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	scope, err := search.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	results, err := h.cases.Search(r.Context(), q, search.Options{
		Scope:        scope,
		MinRelevance: queryFloat(r, "min_relevance", h.defaults.MinRelevance),
		MaxResults:   queryInt(r, "limit", h.defaults.MaxResults),
	})
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Scope: scope, Results: results})
}

// SimilarCases handles GET /cases/{id}/similar.
//
//	@Summary		List cases whose descriptions resemble a case
//	@Tags			search
//	@Produce		json
//	@Param			id			path		string	true	"Case ID"
//	@Param			threshold	query		number	false	"Minimum similarity, 0-1"
//	@Param			limit		query		int		false	"Max results"
//	@Success		200			{object}	SearchResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{id}/similar [get]
func (h *Handler) SimilarCases(w http.ResponseWriter, r *http.Request) {
	results, err := h.cases.FindSimilar(r.Context(), chi.URLParam(r, "id"),
		queryFloat(r, "threshold", h.defaults.SimilarThreshold),
		queryInt(r, "limit", h.defaults.SimilarLimit))
	if err != nil {
		writeError(w, "find similar", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Tags handles GET /tags: suggested tags per case, optionally for one status.
//
//	@Summary		Suggest tags for case descriptions
//	@Tags			search
//	@Produce		json
//	@Param			status	query		string	false	"Only cases with this status"
//	@Param			n		query		int		false	"Tags per case"
//	@Success		200		{object}	TagsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.cases.AutoTags(r.Context(), models.Status(r.URL.Query().Get("status")),
		queryInt(r, "n", h.defaults.TagCount))
	if err != nil {
		writeError(w, "auto tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}
