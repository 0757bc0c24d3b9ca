package fleet

import (
	"fmt"
	"strings"
)

// ShipSummary is one per-ship analytics row. A ship with no operations on or
// before the cutoff keeps zero aggregates and empty dates; it is never
// omitted from the summary.
type ShipSummary struct {
	ShipID      int64
	Ship        string
	Operations  int64
	TotalVolume float64
	TotalCost   float64
	Substances  []string
	FirstDate   string
	LastDate    string
}

// SubstanceList renders the distinct substance names for display.
func (s ShipSummary) SubstanceList() string {
	return strings.Join(s.Substances, ", ")
}

// BreakdownRow is one (ship, substance) cell of the cost/volume breakdown.
type BreakdownRow struct {
	Ship      string
	Substance string
	Volume    float64
	Cost      float64
}

// Summary aggregates every ship as of the cutoff date (inclusive): operation
// count, total serviced volume and cost, distinct substances, first and last
// operation date.
func (s *Store) Summary(cutoff string) ([]ShipSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			s.id,
			s.name,
			COUNT(DISTINCT o.id),
			COALESCE(SUM(li.volume), 0),
			COALESCE(SUM(li.cost), 0),
			COALESCE(MIN(o.date), ''),
			COALESCE(MAX(o.date), '')
		FROM ships s
		LEFT JOIN operations o ON o.ship_id = s.id AND o.date <= ?
		LEFT JOIN operation_pollutants li ON li.operation_id = o.id
		GROUP BY s.id, s.name
		ORDER BY s.name
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query ship summary: %w", err)
	}
	defer rows.Close()

	summaries := make([]ShipSummary, 0)
	for rows.Next() {
		var row ShipSummary
		if err := rows.Scan(
			&row.ShipID,
			&row.Ship,
			&row.Operations,
			&row.TotalVolume,
			&row.TotalCost,
			&row.FirstDate,
			&row.LastDate,
		); err != nil {
			return nil, fmt.Errorf("scan ship summary: %w", err)
		}
		summaries = append(summaries, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ship summary: %w", err)
	}

	if err := s.loadSummarySubstances(cutoff, summaries); err != nil {
		return nil, err
	}

	return summaries, nil
}

// loadSummarySubstances fills the distinct substance names per ship with a
// dedicated query. Names come back whole, so a substance an operator names
// with a comma in it stays one entry.
func (s *Store) loadSummarySubstances(cutoff string, summaries []ShipSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	index := make(map[int64]*ShipSummary, len(summaries))
	for i := range summaries {
		index[summaries[i].ShipID] = &summaries[i]
	}

	rows, err := s.db.Query(`
		SELECT DISTINCT o.ship_id, p.name
		FROM operations o
		JOIN operation_pollutants li ON li.operation_id = o.id
		JOIN pollutants p ON p.id = li.pollutant_id
		WHERE o.date <= ?
		ORDER BY p.name
	`, cutoff)
	if err != nil {
		return fmt.Errorf("query summary substances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var shipID int64
		var name string
		if err := rows.Scan(&shipID, &name); err != nil {
			return fmt.Errorf("scan summary substance: %w", err)
		}
		if row, ok := index[shipID]; ok {
			row.Substances = append(row.Substances, name)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate summary substances: %w", err)
	}

	return nil
}

// Breakdown aggregates volume and cost per (ship, substance) pair as of the
// cutoff date, restricted to line items with a positive volume or cost.
// Pairs with no qualifying item are omitted. Rows come back ordered by ship
// name, then substance name.
func (s *Store) Breakdown(cutoff string) ([]BreakdownRow, error) {
	rows, err := s.db.Query(`
		SELECT sh.name, p.name, SUM(li.volume), SUM(li.cost)
		FROM operation_pollutants li
		JOIN operations o ON o.id = li.operation_id
		JOIN ships sh ON sh.id = o.ship_id
		JOIN pollutants p ON p.id = li.pollutant_id
		WHERE o.date <= ? AND (li.volume > 0 OR li.cost > 0)
		GROUP BY sh.id, p.id
		ORDER BY sh.name, p.name
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make([]BreakdownRow, 0)
	for rows.Next() {
		var row BreakdownRow
		if err := rows.Scan(&row.Ship, &row.Substance, &row.Volume, &row.Cost); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		breakdown = append(breakdown, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breakdown: %w", err)
	}

	return breakdown, nil
}
