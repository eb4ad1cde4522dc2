// Package models contains domain types for the DeepBore drilling dashboard.
package models

// Priority is the upstream's severity grade for a live reading.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Reading is one drilling telemetry snapshot as published by the upstream
// ingestion service. Live messages and history rows share this shape.
type Reading struct {
	Timestamp    string  `json:"timestamp"`
	BitDepth     float64 `json:"bit_depth"`
	PredictedROP float64 `json:"predicted_rop"`

	MechanicalSticking   bool `json:"mechanical_sticking_alert"`
	DifferentialSticking bool `json:"differential_sticking_alert"`
	HoleCleaning         bool `json:"hole_cleaning_alert"`
	MudLoss              bool `json:"mud_loss_alert"`

	// Only set on live messages.
	Priority Priority `json:"priority,omitempty"`

	// Raw sensor channels, present on history rows.
	WOB             *float64 `json:"wobs,omitempty"`
	RPM             *float64 `json:"rpm,omitempty"`
	Torque          *float64 `json:"torque,omitempty"`
	FlowRate        *float64 `json:"flow_rate,omitempty"`
	MudDensity      *float64 `json:"mud_density,omitempty"`
	AnnularPressure *float64 `json:"annular_pressure,omitempty"`
}

// HistoryEntry is one historical record returned by the history endpoint.
type HistoryEntry = Reading

// ActiveAlerts reports how many of the four alert flags are raised.
func (r Reading) ActiveAlerts() int {
	n := 0
	for _, on := range []bool{r.MechanicalSticking, r.DifferentialSticking, r.HoleCleaning, r.MudLoss} {
		if on {
			n++
		}
	}
	return n
}
