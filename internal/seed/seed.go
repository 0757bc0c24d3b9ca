// Package seed inserts the fixed reference data the tracker needs on a
// fresh database: the fleet, the ports it calls at, the servicing
// contractors, and the substances an operation can record.
package seed

import (
	"database/sql"
	"fmt"
)

// A table is only seeded while it is empty; operators rename and extend the
// rows afterwards and the app never reseeds over their data.
var (
	ships = []string{
		"MV Ladoga", "MV Onega", "MV Svir", "MV Neva",
		"MV Volkhov", "MV Vuoksa", "MV Karelia", "MV Valaam",
		"MV Sortavala", "MV Priozersk", "MV Kizhi", "MV Belomorsk",
	}
	ports       = []string{"Port of Vyborg", "Port of Vysotsk", "Port of Primorsk"}
	contractors = []string{"Baltic Marine Services", "NW Port Ecology", "Ladoga Bunkering Co"}
	pollutants  = []string{"Fresh water", "Sewage", "Sludge", "Garbage"}
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way. It is called once
// before the server starts accepting traffic.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	tables := []struct {
		name string
		rows []string
	}{
		{"ships", ships},
		{"ports", ports},
		{"contractors", contractors},
		{"pollutants", pollutants},
	}
	for _, table := range tables {
		if err := ensureLookup(tx, table.name, table.rows, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureLookup(tx *sql.Tx, table string, names []string, stats *Stats) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range names {
		if _, err := tx.Exec(`INSERT INTO `+table+` (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("insert %s %q: %w", table, name, err)
		}
		stats.Inserts++
	}

	return nil
}
