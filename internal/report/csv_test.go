package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/store"
)

func TestWriteCSV(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	resolved := created.Add(2 * time.Hour)

	rows := []store.IssueRecord{
		{
			Issue: model.Issue{
				RackLocation: "A01",
				DeviceType:   model.DevicePowerSupplyUnit,
				Status:       model.IssueStatusResolved,
				PSUID:        "PSU-2",
				UHeight:      42,
				Severity:     model.SeverityCritical,
				Comments:     "fan, rattling",
				CreatedAt:    created,
				ResolvedAt:   &resolved,
			},
			Datacenter:     "Dallas",
			DataHall:       "East Wing",
			WalkthroughID:  "WT-7",
			TechnicianName: "Ada Lovelace",
		},
		{
			Issue: model.Issue{
				RackLocation: "B12",
				DeviceType:   model.DeviceRearDoorHeatExchanger,
				Status:       model.IssueStatusOpen,
				Severity:     model.SeverityWarning,
				CreatedAt:    created,
			},
			Datacenter:     "Dallas",
			DataHall:       "West Wing",
			TechnicianName: "Ada Lovelace",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	assert.Equal(t, Header, parsed[0])
	assert.Equal(t, []string{
		"Dallas", "East Wing", "WT-7", "A01", "power_supply_unit", "PSU-2",
		"42", "critical", "resolved", "fan, rattling", "Ada Lovelace",
		"2026-03-14 09:30:00", "2026-03-14 11:30:00",
	}, parsed[1])

	// unresolved issue has empty resolved date and psu/u-height columns
	assert.Equal(t, "", parsed[2][5])
	assert.Equal(t, "", parsed[2][6])
	assert.Equal(t, "", parsed[2][12])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, Header, parsed[0])
}
