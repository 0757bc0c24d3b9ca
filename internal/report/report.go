// Package report renders analytics series as PNG charts. Callers treat the
// returned bytes as opaque and embed them in the analytics page.
package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// VolumeBar renders a bar chart of total serviced volume per ship. The two
// slices must be aligned.
func VolumeBar(ships []string, volumes []float64) ([]byte, error) {
	if len(ships) == 0 {
		return nil, fmt.Errorf("empty bar series")
	}
	if len(ships) != len(volumes) {
		return nil, fmt.Errorf("mismatched bar series: %d ships, %d volumes", len(ships), len(volumes))
	}

	bars := make([]chart.Value, 0, len(ships))
	for i, name := range ships {
		bars = append(bars, chart.Value{Label: name, Value: volumes[i]})
	}

	bc := chart.BarChart{
		Title:    "Serviced volume by ship",
		Width:    960,
		Height:   420,
		BarWidth: 40,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render volume bar chart: %w", err)
	}

	return buf.Bytes(), nil
}

// CostPie renders a cost-share pie for one ship. Slice labels carry the
// substance name and its percentage of the ship's total cost. The pie needs
// a positive cost total to be drawable.
func CostPie(substances []string, costs []float64) ([]byte, error) {
	if len(substances) == 0 {
		return nil, fmt.Errorf("empty pie series")
	}
	if len(substances) != len(costs) {
		return nil, fmt.Errorf("mismatched pie series: %d substances, %d costs", len(substances), len(costs))
	}

	total := 0.0
	for _, cost := range costs {
		total += cost
	}
	if total <= 0 {
		return nil, fmt.Errorf("cost pie needs a positive total")
	}

	values := make([]chart.Value, 0, len(substances))
	for i, name := range substances {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", name, costs[i]/total*100),
			Value: costs[i],
		})
	}

	pc := chart.PieChart{
		Width:  420,
		Height: 420,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render cost pie chart: %w", err)
	}

	return buf.Bytes(), nil
}
