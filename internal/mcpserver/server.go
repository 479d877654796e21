// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes casedesk search and lookup tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/caseservice"
	"github.com/starford/casedesk/internal/evidence"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/search"
)

const guideURI = "casedesk://search-guide"

// Server wraps the MCP server with casedesk tools.
type Server struct {
	mcp      *server.MCPServer
	cases    *caseservice.Service
	evidence *evidence.Service
}

// New creates a new MCP server with all tools registered.
func New(cases *caseservice.Service, ev *evidence.Service) *Server {
	s := &Server{cases: cases, evidence: ev}

	s.mcp = server.NewMCPServer(
		"casedesk",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_cases",
		mcp.WithDescription("Rank cases by TF-IDF similarity to a free-text query. "+
			"Read casedesk://search-guide for scopes and sensible thresholds."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
		mcp.WithString("scope", mcp.Description("all, description, reports, timeline or evidence (default all)")),
		mcp.WithNumber("min_relevance", mcp.Description("Minimum cosine score between 0 and 1 (default 0.3)")),
		mcp.WithNumber("max_results", mcp.Description("Maximum results (default 10)")),
	), s.searchCases)

	s.mcp.AddTool(mcp.NewTool("find_similar_cases",
		mcp.WithDescription("Find cases similar to a reference case. The reference case is never returned."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("ID of the reference case")),
		mcp.WithNumber("threshold", mcp.Description("Minimum similarity between 0 and 1 (default 0.4)")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 5)")),
	), s.findSimilar)

	s.mcp.AddTool(mcp.NewTool("get_case",
		mcp.WithDescription("Read a full case record by ID or by case number."),
		mcp.WithString("case_id", mcp.Description("Case ID")),
		mcp.WithString("case_number", mcp.Description("Case number, used when case_id is empty")),
	), s.getCase)

	s.mcp.AddTool(mcp.NewTool("list_cases",
		mcp.WithDescription("List case summaries, most recently updated first."),
		mcp.WithString("territory", mcp.Description("Northwest Territories or Nunavut")),
		mcp.WithString("status", mcp.Description("Open, Under Investigation or Closed")),
		mcp.WithString("priority", mcp.Description("Low, Medium or High")),
	), s.listCases)

	s.mcp.AddTool(mcp.NewTool("suggest_tags",
		mcp.WithDescription("Suggest keyword and hazard tags for each case from its description."),
		mcp.WithString("status", mcp.Description("Only tag cases with this status")),
		mcp.WithNumber("n", mcp.Description("Tags per case (default 5)")),
	), s.suggestTags)

	s.mcp.AddTool(mcp.NewTool("get_custody_chain",
		mcp.WithDescription("Read an exhibit and its chain of custody, oldest entry first."),
		mcp.WithString("exhibit_id", mcp.Required(), mcp.Description("Exhibit ID")),
	), s.getCustodyChain)

	s.mcp.AddTool(mcp.NewTool("case_statistics",
		mcp.WithDescription("Case counts by status, territory and priority, active officers and exhibit inventory."),
	), s.caseStatistics)

	s.mcp.AddTool(mcp.NewTool("attach_exhibit_file",
		mcp.WithDescription("Attach a digital file to an exhibit from a base64 data URI or an http(s) URL."),
		mcp.WithString("exhibit_id", mcp.Required(), mcp.Description("Exhibit ID")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:<mime>;base64,<data> URI or http(s) URL")),
		mcp.WithString("filename", mcp.Description("File name to store; derived from the URL when empty")),
	), s.attachExhibitFile)

	s.mcp.AddTool(mcp.NewTool("get_search_guide",
		mcp.WithDescription("Returns the search guide: scopes, thresholds and tagging rules."),
	), s.getSearchGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Search Guide",
			mcp.WithResourceDescription("How casedesk ranks cases and how to pick thresholds."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSearchGuide,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrInvalid) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

// fraction reads a [0,1] score argument; values above 1 are percentages.
func fraction(req mcp.CallToolRequest, key string, def float64) float64 {
	f := req.GetFloat(key, def)
	if f < 0 {
		return def
	}
	if f > 1 {
		f /= 100
	}
	return min(f, 1)
}

func count(req mcp.CallToolRequest, key string, def int) int {
	if n := req.GetInt(key, def); n > 0 {
		return n
	}
	return def
}

func (s *Server) searchCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope, err := search.ParseScope(req.GetString("scope", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.cases.Search(ctx, query, search.Options{
		Scope:        scope,
		MinRelevance: fraction(req, "min_relevance", 0.3),
		MaxResults:   count(req, "max_results", 10),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summarize(results))
}

func (s *Server) findSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("case_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.cases.FindSimilar(ctx, id, fraction(req, "threshold", 0.4), count(req, "limit", 5))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(summarize(results))
}

func (s *Server) getCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		c   models.Case
		err error
	)
	if id := req.GetString("case_id", ""); id != "" {
		c, err = s.cases.GetCase(ctx, id)
	} else if num := req.GetString("case_number", ""); num != "" {
		c, err = s.cases.GetCaseByNumber(ctx, num)
	} else {
		return mcp.NewToolResultError("case_id or case_number is required"), nil
	}
	if err != nil {
		return errorResult(err), nil
	}
	// Strip inline photo data.
	for i := range c.Photos {
		c.Photos[i].Data = ""
	}
	return jsonResult(c)
}

type caseSummary struct {
	ID           string  `json:"id"`
	CaseNumber   string  `json:"case_number"`
	Territory    string  `json:"territory"`
	Employer     string  `json:"employer"`
	Worker       string  `json:"worker"`
	IncidentDate string  `json:"incident_date,omitempty"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	Score        float64 `json:"score,omitempty"`
	Excerpt      string  `json:"excerpt,omitempty"`
}

func summary(c models.Case) caseSummary {
	return caseSummary{
		ID:           c.ID,
		CaseNumber:   c.CaseNumber,
		Territory:    string(c.Territory),
		Employer:     c.Employer,
		Worker:       c.Worker,
		IncidentDate: c.IncidentDate,
		Status:       string(c.Status),
		Priority:     string(c.Priority),
	}
}

func summarize(results []search.Result) []caseSummary {
	out := make([]caseSummary, 0, len(results))
	for _, r := range results {
		cs := summary(r.Case)
		cs.Score, cs.Excerpt = r.Score, r.MatchedText
		out = append(out, cs)
	}
	return out
}

func (s *Server) listCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cases, err := s.cases.ListCases(ctx, models.CaseFilter{
		Territory: models.Territory(req.GetString("territory", "")),
		Status:    models.Status(req.GetString("status", "")),
		Priority:  models.Priority(req.GetString("priority", "")),
	})
	if err != nil {
		return errorResult(err), nil
	}
	out := make([]caseSummary, 0, len(cases))
	for _, c := range cases {
		out = append(out, summary(c))
	}
	return jsonResult(out)
}

func (s *Server) suggestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.cases.AutoTags(ctx, models.Status(req.GetString("status", "")), count(req, "n", 5))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(tags)
}

func (s *Server) getCustodyChain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exhibit_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.evidence.GetExhibit(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	chain, err := s.evidence.CustodyChain(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"exhibit": e, "chain": chain})
}

func (s *Server) caseStatistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.cases.Statistics(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	ev, err := s.evidence.Statistics(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"cases": st, "evidence": ev})
}

func (s *Server) getSearchGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SearchGuide), nil
}

func (s *Server) readSearchGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     SearchGuide,
		},
	}, nil
}
