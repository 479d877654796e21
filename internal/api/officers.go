package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casedesk/internal/models"
)

// ListOfficers handles GET /officers. ?active=true hides deactivated officers.
//
//	@Summary		List officers
//	@Tags			officers
//	@Produce		json
//	@Param			active	query		bool	false	"Only active officers"
//	@Success		200		{object}	OfficerListResponse
//	@Security		BearerAuth
//	@Router			/officers [get]
func (h *Handler) ListOfficers(w http.ResponseWriter, r *http.Request) {
	officers, err := h.cases.ListOfficers(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeError(w, "list officers", err)
		return
	}
	writeJSON(w, http.StatusOK, OfficerListResponse{Officers: officers})
}

// GetOfficer handles GET /officers/{id}.
//
//	@Summary		Get an officer
//	@Tags			officers
//	@Produce		json
//	@Param			id	path		string	true	"Officer ID"
//	@Success		200	{object}	models.Officer
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/officers/{id} [get]
func (h *Handler) GetOfficer(w http.ResponseWriter, r *http.Request) {
	o, err := h.cases.GetOfficer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get officer", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateOfficer handles POST /officers.
//
//	@Summary		Add an officer
//	@Tags			officers
//	@Produce		json
//	@Accept			json
//	@Param			body	body		models.Officer	true	"Officer"
//	@Success		201		{object}	models.Officer
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/officers [post]
func (h *Handler) CreateOfficer(w http.ResponseWriter, r *http.Request) {
	var in models.Officer
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := h.cases.CreateOfficer(r.Context(), in)
	if err != nil {
		writeError(w, "create officer", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// UpdateOfficer handles PUT /officers/{id}.
//
//	@Summary		Update an officer
//	@Tags			officers
//	@Produce		json
//	@Accept			json
//	@Param			id		path		string			true	"Officer ID"
//	@Param			body	body		models.Officer	true	"Officer"
//	@Success		200		{object}	models.Officer
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/officers/{id} [put]
func (h *Handler) UpdateOfficer(w http.ResponseWriter, r *http.Request) {
	var in models.Officer
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := h.cases.UpdateOfficer(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, "update officer", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeactivateOfficer handles DELETE /officers/{id}. The officer is kept
// and marked inactive.
//
//	@Summary		Deactivate an officer
//	@Tags			officers
//	@Produce		json
//	@Param			id	path	string	true	"Officer ID"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/officers/{id} [delete]
func (h *Handler) DeactivateOfficer(w http.ResponseWriter, r *http.Request) {
	if err := h.cases.DeactivateOfficer(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "deactivate officer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
