package report

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"math"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/casedesk/internal/models"
)

// LimitationDays is the prosecution window measured from the incident date.
const LimitationDays = 365

// Statute describes how much of the limitation period remains.
type Statute struct {
	Start     string
	Deadline  string
	Elapsed   int
	Remaining int
	Status    string // OK, WARNING, CRITICAL, EXPIRED or N/A
	Class     string
}

// StatuteOfLimitations evaluates the limitation period for an incident date
// in YYYY-MM-DD form.
func StatuteOfLimitations(incidentDate string, now time.Time) Statute {
	start, err := time.ParseInLocation(models.DateLayout, incidentDate, now.Location())
	if err != nil {
		return Statute{Start: "N/A", Deadline: "N/A", Remaining: LimitationDays, Status: "N/A", Class: "ok"}
	}
	elapsed := int(math.Floor(now.Sub(start).Hours() / 24))
	st := Statute{
		Start:     start.Format("January 02, 2006"),
		Deadline:  start.AddDate(0, 0, LimitationDays).Format("January 02, 2006"),
		Elapsed:   elapsed,
		Remaining: LimitationDays - elapsed,
	}
	switch {
	case st.Remaining < 0:
		st.Status, st.Class = "EXPIRED", "expired"
	case st.Remaining < 30:
		st.Status, st.Class = "CRITICAL", "danger"
	case st.Remaining < 90:
		st.Status, st.Class = "WARNING", "warning"
	default:
		st.Status, st.Class = "OK", "ok"
	}
	return st
}

// DisclosureID returns DISC-<case number>-YYYYMMDDHHMM.
func DisclosureID(caseNumber string, now time.Time) string {
	return "DISC-" + caseNumber + "-" + now.Format("200601021504")
}

// briefingNote is the structured form a briefing note may be stored in.
type briefingNote struct {
	Title         string   `json:"title"`
	Issue         string   `json:"issue"`
	KeyMessages   []string `json:"key_messages"`
	CurrentStatus string   `json:"current_status"`
	Background    string   `json:"background"`
	GeneratedBy   string   `json:"generated_by"`
	Date          string   `json:"date"`
}

type photoView struct {
	models.Photo
	Src template.URL
}

type disclosureSummary struct {
	Parties, Timeline, Reports, Exhibits, Evidence, Photos, Charges, Tasks, OpenTasks int
	TotalFines                                                                      float64
}

type disclosureData struct {
	PackageID   string
	GeneratedAt time.Time
	Case        models.Case
	Officers    string
	Statute     Statute
	Timeline    []models.TimelineEvent
	Briefing    *briefingNote
	BriefingRaw string
	Exhibits    []models.Exhibit
	Photos      []photoView
	Summary     disclosureSummary
}

// DisclosurePackage renders the court-disclosure document for one case.
// Officers resolve assigned officer IDs to names; exhibits are the case's
// tracked evidence.
func DisclosurePackage(c models.Case, officers []models.Officer, exhibits []models.Exhibit, now time.Time) ([]byte, error) {
	c.EnsureCollections()
	names := officerNames(officers)
	var assigned []string
	for _, id := range c.AssignedOfficers {
		if name, ok := names[id]; ok {
			assigned = append(assigned, name)
		}
	}
	officersCol := strings.Join(assigned, ", ")
	if officersCol == "" {
		officersCol = "Not assigned"
	}

	timeline := append([]models.TimelineEvent(nil), c.Timelines...)
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Date < timeline[j].Date })

	d := disclosureData{
		PackageID:   DisclosureID(c.CaseNumber, now),
		GeneratedAt: now,
		Case:        c,
		Officers:    officersCol,
		Statute:     StatuteOfLimitations(c.IncidentDate, now),
		Timeline:    timeline,
		Exhibits:    exhibits,
	}
	if note := strings.TrimSpace(c.BriefingNote); note != "" {
		var b briefingNote
		if err := json.Unmarshal([]byte(note), &b); err == nil {
			if b.Title == "" {
				b.Title = "BRIEFING NOTE"
			}
			d.Briefing = &b
		} else {
			d.BriefingRaw = c.BriefingNote
		}
	}
	for _, p := range c.Photos {
		d.Photos = append(d.Photos, photoView{Photo: p, Src: photoSrc(p)})
	}

	s := disclosureSummary{
		Parties:  len(c.InvolvedParties),
		Timeline: len(c.Timelines),
		Reports:  len(c.Reports),
		Exhibits: len(exhibits),
		Evidence: len(c.Evidence),
		Photos:   len(c.Photos),
		Charges:  len(c.Charges),
		Tasks:    len(c.Tasks),
	}
	for _, ch := range c.Charges {
		s.TotalFines += ch.Fine
	}
	for _, t := range c.Tasks {
		if t.Status != models.TaskCompleted {
			s.OpenTasks++
		}
	}
	d.Summary = s

	return render("disclosure", d)
}

// photoSrc builds a data URI for an inline photo. Data that is not valid
// base64 yields an empty source and the photo renders without an image.
func photoSrc(p models.Photo) template.URL {
	data := p.Data
	if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i > 0 {
		data = data[i+1:]
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil || data == "" {
		return ""
	}
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(p.Filename)))
	if !strings.HasPrefix(typ, "image/") {
		typ = "image/jpeg"
	}
	return template.URL("data:" + typ + ";base64," + data) //nolint:gosec // payload verified as base64 above
}
