package fleet

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for all calendar dates in the app.
const DateLayout = "2006-01-02"

// Filter narrows and orders the operation list. The zero value matches
// every operation, newest first.
type Filter struct {
	ShipIDs   []int64
	StartDate string
	EndDate   string
	PortID    int64
	SortAsc   bool
}

// ParseFilter builds a Filter from raw query parameters. Malformed input
// never fails the request: one bad token drops the whole ship filter, a bad
// date bound drops only that bound, a non-positive or non-numeric port id
// drops the port filter. Date bounds are inclusive.
func ParseFilter(values url.Values) Filter {
	var f Filter

	if raw := strings.TrimSpace(values.Get("ship_ids")); raw != "" {
		ids := make([]int64, 0)
		valid := true
		for _, token := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
			if err != nil {
				valid = false
				break
			}
			ids = append(ids, id)
		}
		if valid {
			f.ShipIDs = ids
		}
	}

	f.StartDate = parseFilterDate(values.Get("start_date"))
	f.EndDate = parseFilterDate(values.Get("end_date"))

	if id, err := strconv.ParseInt(values.Get("port_id"), 10, 64); err == nil && id > 0 {
		f.PortID = id
	}

	f.SortAsc = strings.EqualFold(values.Get("sort_order"), "asc")

	return f
}

func parseFilterDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return ""
	}
	return raw
}

// clauses returns the WHERE fragments and their bind arguments, aliased
// against "operations o".
func (f Filter) clauses() ([]string, []any) {
	var where []string
	var args []any

	if len(f.ShipIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.ShipIDs)), ",")
		where = append(where, fmt.Sprintf("o.ship_id IN (%s)", placeholders))
		for _, id := range f.ShipIDs {
			args = append(args, id)
		}
	}
	if f.StartDate != "" {
		where = append(where, "o.date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "o.date <= ?")
		args = append(args, f.EndDate)
	}
	if f.PortID > 0 {
		where = append(where, "o.port_id = ?")
		args = append(args, f.PortID)
	}

	return where, args
}

func (f Filter) orderBy() string {
	if f.SortAsc {
		return "ORDER BY o.date ASC, o.id ASC"
	}
	return "ORDER BY o.date DESC, o.id DESC"
}
