package report

import (
	"strings"
	"time"

	"github.com/starford/casedesk/internal/models"
)

// AllTerritories labels a report that spans every territory.
const AllTerritories = "All Territories"

// TerritoryReportID returns WSCC-<TERRITORY>-YYYYMM for the report period.
func TerritoryReportID(label string, now time.Time) string {
	return "WSCC-" + strings.ReplaceAll(strings.ToUpper(label), " ", "") + "-" + now.Format("200601")
}

type territoryCase struct {
	Number       string
	Employer     string
	Worker       string
	IncidentDate string
	Status       string
	Priority     string
	Officers     string
}

type territoryData struct {
	ReportID      string
	Territory     string
	Period        string
	GeneratedAt   time.Time
	Total         int
	Active        int
	Closed        int
	StatusBars    []Bar
	PriorityBars  []Bar
	WorkloadBars  []Bar
	Cases         []territoryCase
	HighPriority  int
	OfficersCount int
}

// TerritoryReport renders the monthly territory report. An empty territory
// covers every case.
func TerritoryReport(territory models.Territory, cases []models.Case, officers []models.Officer, now time.Time) ([]byte, error) {
	label := string(territory)
	if label == "" {
		label = AllTerritories
	}
	names := officerNames(officers)

	d := territoryData{
		ReportID:    TerritoryReportID(label, now),
		Territory:   label,
		Period:      now.Format("January 2006"),
		GeneratedAt: now,
	}
	status := map[string]int{}
	priority := map[string]int{}
	workload := map[string]int{}
	involved := map[string]bool{}

	for _, c := range cases {
		if territory != "" && c.Territory != territory {
			continue
		}
		d.Total++
		priority[string(c.Priority)]++
		if c.Priority == models.PriorityHigh {
			d.HighPriority++
		}
		if c.Status == models.StatusClosed {
			d.Closed++
		}

		var assigned []string
		for _, id := range c.AssignedOfficers {
			if name, ok := names[id]; ok {
				assigned = append(assigned, name)
			}
		}
		if c.Status.Active() {
			d.Active++
			status[string(c.Status)]++
			if len(c.AssignedOfficers) == 0 {
				workload["Unassigned"]++
			}
			for _, name := range assigned {
				workload[name]++
				involved[name] = true
			}
		}

		officersCol := strings.Join(assigned, ", ")
		if officersCol == "" {
			officersCol = "Unassigned"
		}
		d.Cases = append(d.Cases, territoryCase{
			Number:       c.CaseNumber,
			Employer:     c.Employer,
			Worker:       c.Worker,
			IncidentDate: c.IncidentDate,
			Status:       string(c.Status),
			Priority:     string(c.Priority),
			Officers:     officersCol,
		})
	}
	d.StatusBars = bars(status)
	d.PriorityBars = bars(priority)
	d.WorkloadBars = bars(workload)
	d.OfficersCount = len(involved)

	return render("territory", d)
}
