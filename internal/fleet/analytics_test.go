package fleet

import (
	"math"
	"testing"
)

func TestSummaryIncludesEveryShip(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)
	idle := insertLookup(t, s, "ships", "MV Svir")

	if _, err := s.CreateOperation(Operation{
		ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-02-01",
		Items: []LineItem{{PollutantID: refs.Water, Volume: 30, Cost: 600}},
	}); err != nil {
		t.Fatalf("create operation: %v", err)
	}

	summary, err := s.Summary("2025-12-31")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected 3 ships in summary, got %d", len(summary))
	}

	byShip := make(map[int64]ShipSummary, len(summary))
	for _, row := range summary {
		byShip[row.ShipID] = row
	}

	active := byShip[refs.ShipA]
	if active.Operations != 1 || active.TotalVolume != 30 || active.TotalCost != 600 {
		t.Fatalf("unexpected active ship stats: %+v", active)
	}
	if active.FirstDate != "2025-02-01" || active.LastDate != "2025-02-01" {
		t.Fatalf("unexpected active ship dates: %+v", active)
	}

	for _, shipID := range []int64{refs.ShipB, idle} {
		row := byShip[shipID]
		if row.Operations != 0 || row.TotalVolume != 0 || row.TotalCost != 0 {
			t.Fatalf("expected zero stats for idle ship %d: %+v", shipID, row)
		}
		if row.FirstDate != "" || row.LastDate != "" || len(row.Substances) != 0 {
			t.Fatalf("expected empty aggregates for idle ship %d: %+v", shipID, row)
		}
	}
}

func TestSummaryEmptyStoreStillListsShips(t *testing.T) {
	s := newTestStore(t)
	seedRefs(t, s)

	summary, err := s.Summary("2025-12-31")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected both ships with zero stats, got %d rows", len(summary))
	}

	breakdown, err := s.Breakdown("2025-12-31")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", breakdown)
	}
}

func TestSummaryCutoffExcludesLaterOperations(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)

	for _, op := range []Operation{
		{ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-03-01",
			Items: []LineItem{{PollutantID: refs.Water, Volume: 10, Cost: 100}}},
		{ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-06-01",
			Items: []LineItem{{PollutantID: refs.Water, Volume: 50, Cost: 500}}},
	} {
		if _, err := s.CreateOperation(op); err != nil {
			t.Fatalf("create operation: %v", err)
		}
	}

	summary, err := s.Summary("2025-03-01")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	var row ShipSummary
	for _, candidate := range summary {
		if candidate.ShipID == refs.ShipA {
			row = candidate
		}
	}
	if row.Operations != 1 || row.TotalVolume != 10 || row.TotalCost != 100 {
		t.Fatalf("cutoff is inclusive of its own date and nothing later: %+v", row)
	}
	if row.LastDate != "2025-03-01" {
		t.Fatalf("expected last date at the cutoff, got %q", row.LastDate)
	}
}

func TestSummaryCollapsesDuplicateSubstances(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)

	for _, date := range []string{"2025-01-10", "2025-02-10"} {
		if _, err := s.CreateOperation(Operation{
			ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: date,
			Items: []LineItem{
				{PollutantID: refs.Water, Volume: 10, Cost: 100},
				{PollutantID: refs.Sludge, Volume: 2, Cost: 80},
			},
		}); err != nil {
			t.Fatalf("create operation: %v", err)
		}
	}

	summary, err := s.Summary("2025-12-31")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	for _, row := range summary {
		if row.ShipID != refs.ShipA {
			continue
		}
		if len(row.Substances) != 2 {
			t.Fatalf("expected 2 distinct substances, got %v", row.Substances)
		}
		if row.Substances[0] != "Fresh water" || row.Substances[1] != "Sludge" {
			t.Fatalf("unexpected substance set: %v", row.Substances)
		}
	}
}

func TestSummarySubstanceNameWithCommaStaysOneEntry(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)
	bilge := insertLookup(t, s, "pollutants", "Oily water, bilge")

	if _, err := s.CreateOperation(Operation{
		ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-01-10",
		Items: []LineItem{
			{PollutantID: bilge, Volume: 3, Cost: 90},
			{PollutantID: refs.Sludge, Volume: 2, Cost: 80},
		},
	}); err != nil {
		t.Fatalf("create operation: %v", err)
	}

	summary, err := s.Summary("2025-12-31")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	for _, row := range summary {
		if row.ShipID != refs.ShipA {
			continue
		}
		if len(row.Substances) != 2 {
			t.Fatalf("expected 2 substances, got %v", row.Substances)
		}
		if row.Substances[0] != "Oily water, bilge" || row.Substances[1] != "Sludge" {
			t.Fatalf("comma-bearing name was split or reordered: %v", row.Substances)
		}
	}
}

func TestBreakdownAgreesWithSummaryCosts(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)

	for _, op := range []Operation{
		{ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-01-10",
			Items: []LineItem{
				{PollutantID: refs.Water, Volume: 10, Cost: 100.50},
				{PollutantID: refs.Sludge, Volume: 2, Cost: 80.25},
			}},
		{ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-02-10",
			Items: []LineItem{{PollutantID: refs.Water, Volume: 15, Cost: 160}}},
		{ShipID: refs.ShipB, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-02-20",
			Items: []LineItem{{PollutantID: refs.Sludge, Volume: 4, Cost: 210}}},
	} {
		if _, err := s.CreateOperation(op); err != nil {
			t.Fatalf("create operation: %v", err)
		}
	}

	cutoff := "2025-12-31"
	summary, err := s.Summary(cutoff)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	breakdown, err := s.Breakdown(cutoff)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}

	breakdownCost := make(map[string]float64)
	for _, row := range breakdown {
		breakdownCost[row.Ship] += row.Cost
	}

	for _, row := range summary {
		if math.Abs(breakdownCost[row.Ship]-row.TotalCost) > 1e-9 {
			t.Fatalf("ship %s: breakdown cost %v != summary cost %v", row.Ship, breakdownCost[row.Ship], row.TotalCost)
		}
	}
}

func TestBreakdownOmitsZeroRowsAndOrders(t *testing.T) {
	s := newTestStore(t)
	refs := seedRefs(t, s)

	opA, err := s.CreateOperation(Operation{
		ShipID: refs.ShipA, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-01-10",
		Items: []LineItem{{PollutantID: refs.Sludge, Volume: 2, Cost: 80}},
	})
	if err != nil {
		t.Fatalf("create operation: %v", err)
	}
	if _, err := s.CreateOperation(Operation{
		ShipID: refs.ShipB, PortID: refs.Port, ContractorID: refs.Contractor, Date: "2025-01-12",
		Items: []LineItem{{PollutantID: refs.Water, Volume: 30, Cost: 600}},
	}); err != nil {
		t.Fatalf("create operation: %v", err)
	}

	// The write path refuses all-zero rows, so plant one directly to prove
	// the aggregation itself excludes it.
	if _, err := s.db.Exec(`
		INSERT INTO operation_pollutants (operation_id, pollutant_id, volume, cost)
		VALUES (?, ?, 0, 0)
	`, opA, refs.Water); err != nil {
		t.Fatalf("insert zero line item: %v", err)
	}

	breakdown, err := s.Breakdown("2025-12-31")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}

	if len(breakdown) != 2 {
		t.Fatalf("expected the zero row to be excluded, got %+v", breakdown)
	}
	// Ordered by ship name, then substance name.
	if breakdown[0].Ship != "MV Ladoga" || breakdown[0].Substance != "Sludge" {
		t.Fatalf("unexpected first row: %+v", breakdown[0])
	}
	if breakdown[1].Ship != "MV Onega" || breakdown[1].Substance != "Fresh water" {
		t.Fatalf("unexpected second row: %+v", breakdown[1])
	}
}
