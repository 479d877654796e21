package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casedesk/internal/evidence"
	"github.com/starford/casedesk/internal/models"
)

// ListExhibits handles GET /exhibits?case_id=&status=&type=&q=.
//
//	@Summary		List exhibits
//	@Tags			evidence
//	@Produce		json
//	@Param			case_id	query		string	false	"Case filter"
//	@Param			status	query		string	false	"Custody status filter"
//	@Param			type	query		string	false	"Exhibit type filter"
//	@Param			q		query		string	false	"Text in number or description"
//	@Success		200		{object}	ExhibitListResponse
//	@Security		BearerAuth
//	@Router			/exhibits [get]
func (h *Handler) ListExhibits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exhibits, err := h.evidence.ListExhibits(r.Context(), models.ExhibitFilter{
		CaseID: q.Get("case_id"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Query:  q.Get("q"),
	})
	if err != nil {
		writeError(w, "list exhibits", err)
		return
	}
	writeJSON(w, http.StatusOK, ExhibitListResponse{Exhibits: exhibits})
}

// GetExhibit handles GET /exhibits/{id}.
//
//	@Summary		Get an exhibit
//	@Tags			evidence
//	@Produce		json
//	@Param			id	path		string	true	"Exhibit ID"
//	@Success		200	{object}	models.Exhibit
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits/{id} [get]
func (h *Handler) GetExhibit(w http.ResponseWriter, r *http.Request) {
	e, err := h.evidence.GetExhibit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get exhibit", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateExhibit handles POST /exhibits.
//
//	@Summary		Register an exhibit and open its chain of custody
//	@Tags			evidence
//	@Accept			json
//	@Produce		json
//	@Param			body	body		evidence.ExhibitInput	true	"Exhibit"
//	@Success		201		{object}	models.Exhibit
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits [post]
func (h *Handler) CreateExhibit(w http.ResponseWriter, r *http.Request) {
	var in evidence.ExhibitInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.evidence.AddExhibit(r.Context(), in)
	if err != nil {
		writeError(w, "add exhibit", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// CustodyChain handles GET /exhibits/{id}/custody.
//
//	@Summary		Get the chain of custody of an exhibit
//	@Tags			evidence
//	@Produce		json
//	@Param			id	path		string	true	"Exhibit ID"
//	@Success		200	{object}	CustodyChainResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits/{id}/custody [get]
func (h *Handler) CustodyChain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chain, err := h.evidence.CustodyChain(r.Context(), id)
	if err != nil {
		writeError(w, "custody chain", err)
		return
	}
	writeJSON(w, http.StatusOK, CustodyChainResponse{ExhibitID: id, Chain: chain})
}

// LogCustody handles POST /exhibits/{id}/custody.
//
//	@Summary		Record a custody transfer
//	@Tags			evidence
//	@Produce		json
//	@Accept			json
//	@Param			id		path		string				true	"Exhibit ID"
//	@Param			body	body		models.CustodyEntry	true	"Custody entry"
//	@Success		201		{object}	models.CustodyEntry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits/{id}/custody [post]
func (h *Handler) LogCustody(w http.ResponseWriter, r *http.Request) {
	var entry models.CustodyEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	out, err := h.evidence.LogCustody(r.Context(), chi.URLParam(r, "id"), entry)
	if err != nil {
		writeError(w, "log custody", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// UploadAttachment handles POST /exhibits/{id}/attachments
// (multipart/form-data, field "file").
//
//	@Summary		Attach a digital file to an exhibit
//	@Tags			evidence
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Exhibit ID"
//	@Param			file	formData	file	true	"Attachment"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits/{id}/attachments [post]
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, evidence.MaxAttachmentBytes+1<<20)
	if err := r.ParseMultipartForm(evidence.MaxAttachmentBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	id := chi.URLParam(r, "id")
	if _, err := h.evidence.AttachFile(r.Context(), id, header.Filename, file); err != nil {
		writeError(w, "attach file", err)
		return
	}
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Filename: evidence.SanitizeFilename(header.Filename),
		Size:     header.Size,
		URL:      "/exhibits/" + id + "/attachment",
	})
}

// ServeAttachment handles GET /exhibits/{id}/attachment.
//
//	@Summary		Download the file attached to an exhibit
//	@Tags			evidence
//	@Produce		octet-stream
//	@Param			id	path	string	true	"Exhibit ID"
//	@Success		200	{file}	file
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibits/{id}/attachment [get]
func (h *Handler) ServeAttachment(w http.ResponseWriter, r *http.Request) {
	abs, err := h.evidence.AttachmentPath(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "serve attachment", err)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}

// ListStorageLocations handles GET /storage-locations.
//
//	@Summary		List evidence storage locations
//	@Tags			evidence
//	@Produce		json
//	@Success		200	{object}	map[string][]models.StorageLocation
//	@Security		BearerAuth
//	@Router			/storage-locations [get]
func (h *Handler) ListStorageLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.evidence.ListStorageLocations(r.Context())
	if err != nil {
		writeError(w, "list storage locations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locs})
}

// CreateStorageLocation handles POST /storage-locations.
//
//	@Summary		Add an evidence storage location
//	@Tags			evidence
//	@Produce		json
//	@Accept			json
//	@Param			body	body		models.StorageLocation	true	"Location"
//	@Success		201		{object}	models.StorageLocation
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/storage-locations [post]
func (h *Handler) CreateStorageLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.StorageLocation
	if !decodeJSON(w, r, &loc) {
		return
	}
	out, err := h.evidence.CreateStorageLocation(r.Context(), loc)
	if err != nil {
		writeError(w, "create storage location", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// EvidenceStats handles GET /evidence/stats.
//
//	@Summary		Summarise exhibits by status and type
//	@Tags			evidence
//	@Produce		json
//	@Success		200	{object}	models.EvidenceStatistics
//	@Security		BearerAuth
//	@Router			/evidence/stats [get]
func (h *Handler) EvidenceStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.evidence.Statistics(r.Context())
	if err != nil {
		writeError(w, "evidence statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
