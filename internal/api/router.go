package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/cases", func(r chi.Router) {
		r.Get("/", h.ListCases)
		r.Post("/", h.CreateCase)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCase)
			r.Put("/", h.UpdateCase)
			r.Delete("/", h.DeleteCase)

			r.Post("/timeline", addTo("add timeline event", h.cases.AddTimelineEvent))
			r.Post("/reports", addTo("add report", h.cases.AddReport))
			r.Post("/tasks", addTo("add task", h.cases.AddTask))
			r.Post("/tasks/{taskID}/complete", h.CompleteTask)
			r.Post("/evidence", addTo("add evidence", h.cases.AddEvidence))
			r.Post("/photos", addTo("add photo", h.cases.AddPhoto))
			r.Post("/charges", addTo("add charge", h.cases.AddCharge))

			r.Put("/court", setOn("set court", h.cases.SetCourt))
			r.Put("/conclusion", setOn("set conclusion", h.cases.SetConclusion))
			r.Put("/briefing", h.SetBriefing)
			r.Put("/officers", h.AssignOfficers)

			r.Get("/similar", h.SimilarCases)
			r.Get("/disclosure", h.Disclosure)
		})
	})

	r.Route("/officers", func(r chi.Router) {
		r.Get("/", h.ListOfficers)
		r.Post("/", h.CreateOfficer)
		r.Get("/{id}", h.GetOfficer)
		r.Put("/{id}", h.UpdateOfficer)
		r.Delete("/{id}", h.DeactivateOfficer)
	})

	r.Route("/exhibits", func(r chi.Router) {
		r.Get("/", h.ListExhibits)
		r.Post("/", h.CreateExhibit)
		r.Get("/{id}", h.GetExhibit)
		r.Get("/{id}/custody", h.CustodyChain)
		r.Post("/{id}/custody", h.LogCustody)
		r.Post("/{id}/attachments", h.UploadAttachment)
		r.Get("/{id}/attachment", h.ServeAttachment)
	})
	r.Get("/storage-locations", h.ListStorageLocations)
	r.Post("/storage-locations", h.CreateStorageLocation)
	r.Get("/evidence/stats", h.EvidenceStats)

	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)

	r.Get("/stats", h.Stats)
	r.Get("/export", h.Export)
	r.Get("/export.csv", h.ExportCSV)
	r.Post("/import", h.Import)
	r.Get("/reports/territory", h.TerritoryReport)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
