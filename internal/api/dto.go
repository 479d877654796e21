package api

import (
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/search"
)

// CaseListResponse wraps case listings.
type CaseListResponse struct {
	Cases []models.Case `json:"cases" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// OfficerListResponse wraps officer listings.
type OfficerListResponse struct {
	Officers []models.Officer `json:"officers" validate:"required"`
}

// BriefingRequest replaces a case briefing note. The note may itself be a
// JSON document.
type BriefingRequest struct {
	Note string `json:"briefing_note" validate:"required"`
}

// AssignOfficersRequest replaces the officers assigned to a case.
type AssignOfficersRequest struct {
	OfficerIDs []string `json:"officer_ids" validate:"required"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Query   string          `json:"query,omitempty" example:"scaffold fall"`
	Scope   search.Scope    `json:"scope,omitempty" example:"all"`
	Results []search.Result `json:"results" validate:"required"`
}

// TagsResponse maps case IDs to suggested tags.
type TagsResponse struct {
	Tags map[string][]string `json:"tags" validate:"required"`
}

// ExhibitListResponse wraps exhibit listings.
type ExhibitListResponse struct {
	Exhibits []models.Exhibit `json:"exhibits" validate:"required"`
}

// CustodyChainResponse is an exhibit with its custody log.
type CustodyChainResponse struct {
	ExhibitID string                `json:"exhibit_id" validate:"required"`
	Chain     []models.CustodyEntry `json:"chain" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"cctv.mp4" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/exhibits/exhibit-1a2b3c4d/attachment" validate:"required"`
}
