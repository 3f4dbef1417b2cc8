package domain

// Machine is the telemetry document of one recycling machine.
type Machine struct {
	ID          string  `json:"id"`
	BottleCount int64   `json:"bottle_count"`
	CupCount    int64   `json:"cup_count"`
	WasteWeight float64 `json:"waste_weight_kg"`
}

type MachineStats struct {
	Machines int     `json:"machines"`
	Bottles  int64   `json:"bottles"`
	Cups     int64   `json:"cups"`
	WasteKg  float64 `json:"waste_kg"`
}

func SumMachines(machines []Machine) MachineStats {
	stats := MachineStats{Machines: len(machines)}
	for _, m := range machines {
		stats.Bottles += m.BottleCount
		stats.Cups += m.CupCount
		stats.WasteKg += m.WasteWeight
	}
	return stats
}
