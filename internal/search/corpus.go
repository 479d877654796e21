// Package search ranks cases by TF-IDF cosine similarity and suggests tags.
// Nothing is cached: every call fits a fresh vector space over the cases it
// is given.
package search

import (
	"fmt"
	"strings"

	"github.com/starford/casedesk/internal/models"
)

// Scope selects which case fields make up a case's document.
type Scope string

const (
	AllFields       Scope = "all"
	DescriptionOnly Scope = "description"
	ReportsOnly     Scope = "reports"
	TimelineEvents  Scope = "timeline"
	EvidenceOnly    Scope = "evidence"
)

// Scopes lists every scope in display order.
var Scopes = []Scope{AllFields, DescriptionOnly, ReportsOnly, TimelineEvents, EvidenceOnly}

// ParseScope maps a scope name to a Scope. The empty string means AllFields.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return AllFields, nil
	}
	for _, sc := range Scopes {
		if strings.EqualFold(s, string(sc)) {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown search scope %q", s)
}

// Document builds the text of c searched under scope.
func Document(c models.Case, scope Scope) string {
	var parts []string
	switch scope {
	case DescriptionOnly:
		return c.Description
	case ReportsOnly:
		parts = reportTexts(c)
	case TimelineEvents:
		parts = timelineTexts(c)
	case EvidenceOnly:
		parts = evidenceTexts(c)
	default:
		parts = append(parts, c.Description, c.Employer, c.Worker)
		parts = append(parts, timelineTexts(c)...)
		parts = append(parts, reportTexts(c)...)
		parts = append(parts, evidenceTexts(c)...)
		parts = append(parts, c.BriefingNote)
	}
	return joinNonEmpty(parts)
}

// similarityDocument is the fixed composition used when comparing cases to
// each other.
func similarityDocument(c models.Case) string {
	parts := []string{c.Description, c.Employer, c.Worker}
	parts = append(parts, timelineTexts(c)...)
	return joinNonEmpty(parts)
}

func timelineTexts(c models.Case) []string {
	out := make([]string, 0, len(c.Timelines))
	for _, t := range c.Timelines {
		out = append(out, t.Description)
	}
	return out
}

func reportTexts(c models.Case) []string {
	out := make([]string, 0, len(c.Reports))
	for _, r := range c.Reports {
		out = append(out, r.Content)
	}
	return out
}

func evidenceTexts(c models.Case) []string {
	out := make([]string, 0, len(c.Evidence))
	for _, e := range c.Evidence {
		out = append(out, e.Description)
	}
	return out
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// entry is one searchable document and the case it came from.
type entry struct {
	c   models.Case
	doc string
}

// buildCorpus pairs each case with its document, dropping blank documents.
func buildCorpus(cases []models.Case, doc func(models.Case) string) []entry {
	out := make([]entry, 0, len(cases))
	for _, c := range cases {
		d := doc(c)
		if strings.TrimSpace(d) == "" {
			continue
		}
		out = append(out, entry{c: c, doc: d})
	}
	return out
}
