// Package fleet holds the port-call servicing domain: operations, their
// per-substance line items, the operation list filter, and the fleet
// analytics aggregation.
package fleet

// Lookup is a reference row. Ships, ports, contractors and pollutants all
// share the id+name shape and are seeded once at first startup.
type Lookup struct {
	ID   int64
	Name string
}

// LineItem records one substance serviced during an operation: the volume
// delivered or removed and what it cost. Only items with a positive volume
// or cost are ever persisted.
type LineItem struct {
	PollutantID   int64
	PollutantName string
	Volume        float64
	Cost          float64
}

// Operation is one recorded port-call servicing event. Ship, Port and
// Contractor carry the display names and are filled by read queries.
type Operation struct {
	ID           int64
	ShipID       int64
	PortID       int64
	ContractorID int64
	Ship         string
	Port         string
	Contractor   string
	Date         string // YYYY-MM-DD
	HasDocuments bool
	Items        []LineItem
}

// TotalCost sums line-item costs. An operation with no recorded substances
// totals 0. List and detail views both go through here so the two never
// disagree.
func (o Operation) TotalCost() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Cost
	}
	return total
}
