package main

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Simplici0/portcall/internal/fleet"
	"github.com/Simplici0/portcall/internal/report"
)

type shipChart struct {
	Ship  string
	Chart template.URL
}

type analyticsViewData struct {
	Cutoff      string
	Summary     []fleet.ShipSummary
	Breakdown   []fleet.BreakdownRow
	VolumeChart template.URL // empty when the chart could not be rendered
	CostCharts  []shipChart
}

// handleAnalytics aggregates the fleet as of a cutoff date and renders the
// charts. The cutoff defaults to today and can be overridden with a
// ?cutoff=YYYY-MM-DD parameter; a malformed value falls back to today.
func (s *server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	cutoff := strings.TrimSpace(r.URL.Query().Get("cutoff"))
	if _, err := time.Parse(fleet.DateLayout, cutoff); err != nil {
		cutoff = time.Now().Format(fleet.DateLayout)
	}

	data, err := s.analyticsData(cutoff)
	if err != nil {
		http.Error(w, "failed to aggregate fleet analytics", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "analytics.html", data)
}

// analyticsData assembles the analytics page: summary and breakdown as of
// the cutoff, the volume bar chart, and one cost pie per ship present in
// the breakdown. A chart that cannot be rendered (nothing to draw, zero
// cost total) is logged and left out; the page itself still builds.
func (s *server) analyticsData(cutoff string) (analyticsViewData, error) {
	summary, err := s.store.Summary(cutoff)
	if err != nil {
		return analyticsViewData{}, fmt.Errorf("aggregate fleet summary: %w", err)
	}
	breakdown, err := s.store.Breakdown(cutoff)
	if err != nil {
		return analyticsViewData{}, fmt.Errorf("aggregate breakdown: %w", err)
	}

	data := analyticsViewData{
		Cutoff:    cutoff,
		Summary:   summary,
		Breakdown: breakdown,
	}

	names := make([]string, 0, len(summary))
	volumes := make([]float64, 0, len(summary))
	for _, row := range summary {
		names = append(names, row.Ship)
		volumes = append(volumes, row.TotalVolume)
	}
	if png, err := report.VolumeBar(names, volumes); err != nil {
		log.Printf("volume chart not rendered: %v", err)
	} else {
		data.VolumeChart = chartURI(png)
	}

	// Breakdown rows arrive ordered by ship, so each contiguous run is one
	// ship's pie. Ships absent from the breakdown get no chart.
	for i := 0; i < len(breakdown); {
		j := i
		for j < len(breakdown) && breakdown[j].Ship == breakdown[i].Ship {
			j++
		}

		substances := make([]string, 0, j-i)
		costs := make([]float64, 0, j-i)
		for _, row := range breakdown[i:j] {
			substances = append(substances, row.Substance)
			costs = append(costs, row.Cost)
		}

		if png, err := report.CostPie(substances, costs); err != nil {
			log.Printf("cost chart for %s not rendered: %v", breakdown[i].Ship, err)
		} else {
			data.CostCharts = append(data.CostCharts, shipChart{Ship: breakdown[i].Ship, Chart: chartURI(png)})
		}

		i = j
	}

	return data, nil
}

func chartURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
