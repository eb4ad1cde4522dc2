// Package render turns dashboard state into chart data, table rows and HTML.
// Everything here is a pure function of the current reading and history.
package render

import (
	"strconv"
	"strings"

	"github.com/ttracx/deepboreai/internal/models"
)

// Time-of-day portion of an ISO-8601 timestamp ("2025-03-01T08:15:42...").
const (
	labelStart = 11
	labelEnd   = 19
)

// Row is one rendered history table row.
type Row struct {
	Timestamp string
	BitDepth  string
	ROP       string
	Alerts    string
}

// Panel is the rendered live reading.
type Panel struct {
	Priority     string
	BitDepth     string
	ROP          string
	MechSticking string
	DiffSticking string
	HoleCleaning string
	MudLoss      string
	Timestamp    string
}

// ChartLabel returns characters [11,19) of ts, or whatever part of that
// window the string reaches. Offsets count characters, not bytes.
func ChartLabel(ts string) string {
	chars := []rune(ts)
	if len(chars) <= labelStart {
		return ""
	}
	end := labelEnd
	if len(chars) < end {
		end = len(chars)
	}
	return string(chars[labelStart:end])
}

// ChartLabels maps every history entry to its x-axis label.
func ChartLabels(history []models.HistoryEntry) []string {
	labels := make([]string, len(history))
	for i, h := range history {
		labels[i] = ChartLabel(h.Timestamp)
	}
	return labels
}

// ChartValues maps every history entry to its predicted ROP.
func ChartValues(history []models.HistoryEntry) []float64 {
	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = h.PredictedROP
	}
	return values
}

// FormatROP always shows two decimals: 12.5 -> "12.50".
func FormatROP(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatNumber prints a number the shortest way that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AlertLabels concatenates the short labels of the raised flags in the fixed
// order mechanical, differential, hole cleaning, mud loss. Every label but
// "Mud" carries a trailing space.
func AlertLabels(r models.Reading) string {
	var b strings.Builder
	if r.MechanicalSticking {
		b.WriteString("Mech ")
	}
	if r.DifferentialSticking {
		b.WriteString("Diff ")
	}
	if r.HoleCleaning {
		b.WriteString("Hole ")
	}
	if r.MudLoss {
		b.WriteString("Mud")
	}
	return b.String()
}

// TableRows renders one row per history entry, in the given order.
func TableRows(history []models.HistoryEntry) []Row {
	rows := make([]Row, len(history))
	for i, h := range history {
		rows[i] = Row{
			Timestamp: h.Timestamp,
			BitDepth:  FormatNumber(h.BitDepth),
			ROP:       FormatROP(h.PredictedROP),
			Alerts:    AlertLabels(h),
		}
	}
	return rows
}

// LivePanel renders the current reading, or nil when there is none yet.
func LivePanel(r *models.Reading) *Panel {
	if r == nil {
		return nil
	}
	return &Panel{
		Priority:     string(r.Priority),
		BitDepth:     FormatNumber(r.BitDepth),
		ROP:          FormatNumber(r.PredictedROP),
		MechSticking: yesNo(r.MechanicalSticking),
		DiffSticking: yesNo(r.DifferentialSticking),
		HoleCleaning: yesNo(r.HoleCleaning),
		MudLoss:      yesNo(r.MudLoss),
		Timestamp:    r.Timestamp,
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
