// Package report serializes filtered issue sets as delimited text exports.
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"datacenter-audit-backend/internal/store"
)

// Header is the fixed, ordered column set of the issue report.
var Header = []string{
	"Datacenter",
	"Data Hall",
	"Walkthrough ID",
	"Rack Location",
	"Device Type",
	"PSU ID",
	"U-Height",
	"Severity",
	"Status",
	"Comments",
	"Technician",
	"Created Date",
	"Resolved Date",
}

const dateLayout = "2006-01-02 15:04:05"

// WriteCSV writes the report header followed by one row per issue record.
func WriteCSV(w io.Writer, rows []store.IssueRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, row := range rows {
		var uHeight string
		if row.UHeight > 0 {
			uHeight = strconv.Itoa(row.UHeight)
		}
		if err := cw.Write([]string{
			row.Datacenter,
			row.DataHall,
			row.WalkthroughID,
			row.RackLocation,
			string(row.DeviceType),
			row.PSUID,
			uHeight,
			string(row.Severity),
			string(row.Status),
			row.Comments,
			row.TechnicianName,
			formatDate(&row.CreatedAt),
			formatDate(row.ResolvedAt),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
