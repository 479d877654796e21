package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/starford/casedesk/internal/models"
)

// CSVHeader is the column order of the case export.
var CSVHeader = []string{"Case Number", "Territory", "Employer", "Worker", "Incident Date", "Status", "Priority", "Description"}

// WriteCasesCSV writes one row per case.
func WriteCasesCSV(w io.Writer, cases []models.Case) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("report: write csv header: %w", err)
	}
	for _, c := range cases {
		rec := []string{
			c.CaseNumber,
			string(c.Territory),
			c.Employer,
			c.Worker,
			c.IncidentDate,
			string(c.Status),
			string(c.Priority),
			c.Description,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: write csv row %s: %w", c.CaseNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
