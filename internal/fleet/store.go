package fleet

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a reference to an operation id that does not exist.
var ErrNotFound = errors.New("operation not found")

// Store wraps a sql.DB with the fleet queries. It is constructed once in
// main and passed to the handlers; there is no package-level handle.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ships lists the ship reference rows.
func (s *Store) Ships() ([]Lookup, error) { return s.lookups("ships") }

// Ports lists the port reference rows.
func (s *Store) Ports() ([]Lookup, error) { return s.lookups("ports") }

// Contractors lists the contractor reference rows.
func (s *Store) Contractors() ([]Lookup, error) { return s.lookups("contractors") }

// Pollutants lists the substance reference rows.
func (s *Store) Pollutants() ([]Lookup, error) { return s.lookups("pollutants") }

func (s *Store) lookups(table string) ([]Lookup, error) {
	rows, err := s.db.Query(`SELECT id, name FROM ` + table + ` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]Lookup, 0)
	for rows.Next() {
		var item Lookup
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	return items, nil
}

// ListOperations returns the operations matching f, with lookup names and
// line items populated.
func (s *Store) ListOperations(f Filter) ([]Operation, error) {
	query := `
		SELECT o.id, o.ship_id, s.name, o.port_id, p.name, o.contractor_id, c.name, o.date, o.has_documents
		FROM operations o
		JOIN ships s ON s.id = o.ship_id
		JOIN ports p ON p.id = o.port_id
		JOIN contractors c ON c.id = o.contractor_id
	`
	where, args := f.clauses()
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " " + f.orderBy()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := make([]Operation, 0)
	for rows.Next() {
		var op Operation
		if err := rows.Scan(
			&op.ID,
			&op.ShipID, &op.Ship,
			&op.PortID, &op.Port,
			&op.ContractorID, &op.Contractor,
			&op.Date, &op.HasDocuments,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	if err := s.loadLineItems(ops); err != nil {
		return nil, err
	}

	return ops, nil
}

// GetOperation returns one operation with its line items, or ErrNotFound.
func (s *Store) GetOperation(id int64) (Operation, error) {
	var op Operation
	err := s.db.QueryRow(`
		SELECT o.id, o.ship_id, s.name, o.port_id, p.name, o.contractor_id, c.name, o.date, o.has_documents
		FROM operations o
		JOIN ships s ON s.id = o.ship_id
		JOIN ports p ON p.id = o.port_id
		JOIN contractors c ON c.id = o.contractor_id
		WHERE o.id = ?
	`, id).Scan(
		&op.ID,
		&op.ShipID, &op.Ship,
		&op.PortID, &op.Port,
		&op.ContractorID, &op.Contractor,
		&op.Date, &op.HasDocuments,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Operation{}, ErrNotFound
	}
	if err != nil {
		return Operation{}, fmt.Errorf("query operation %d: %w", id, err)
	}

	ops := []Operation{op}
	if err := s.loadLineItems(ops); err != nil {
		return Operation{}, err
	}

	return ops[0], nil
}

func (s *Store) loadLineItems(ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}

	index := make(map[int64]*Operation, len(ops))
	args := make([]any, 0, len(ops))
	for i := range ops {
		index[ops[i].ID] = &ops[i]
		args = append(args, ops[i].ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ops)), ",")

	rows, err := s.db.Query(`
		SELECT li.operation_id, li.pollutant_id, p.name, li.volume, li.cost
		FROM operation_pollutants li
		JOIN pollutants p ON p.id = li.pollutant_id
		WHERE li.operation_id IN (`+placeholders+`)
		ORDER BY p.name
	`, args...)
	if err != nil {
		return fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opID int64
		var item LineItem
		if err := rows.Scan(&opID, &item.PollutantID, &item.PollutantName, &item.Volume, &item.Cost); err != nil {
			return fmt.Errorf("scan line item: %w", err)
		}
		if op, ok := index[opID]; ok {
			op.Items = append(op.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate line items: %w", err)
	}

	return nil
}

// CreateOperation inserts op and its line items in one transaction and
// returns the new id. All-zero line items are not persisted.
func (s *Store) CreateOperation(op Operation) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create transaction: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO operations (ship_id, port_id, contractor_id, date, has_documents)
		VALUES (?, ?, ?, ?, ?)
	`, op.ShipID, op.PortID, op.ContractorID, op.Date, op.HasDocuments)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read operation id: %w", err)
	}

	if err := insertLineItems(tx, id, op.Items); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create transaction: %w", err)
	}

	return id, nil
}

// UpdateOperation overwrites the operation's main fields and replaces its
// full line-item set, atomically. Returns ErrNotFound for an unknown id.
func (s *Store) UpdateOperation(op Operation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin update transaction: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE operations
		SET ship_id = ?, port_id = ?, contractor_id = ?, date = ?, has_documents = ?
		WHERE id = ?
	`, op.ShipID, op.PortID, op.ContractorID, op.Date, op.HasDocuments, op.ID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update operation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read update result: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM operation_pollutants WHERE operation_id = ?`, op.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear line items: %w", err)
	}

	if err := insertLineItems(tx, op.ID, op.Items); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update transaction: %w", err)
	}

	return nil
}

// DeleteOperation removes the operation; its line items go with it via the
// foreign-key cascade. Returns ErrNotFound for an unknown id.
func (s *Store) DeleteOperation(id int64) error {
	result, err := s.db.Exec(`DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func insertLineItems(tx *sql.Tx, operationID int64, items []LineItem) error {
	for _, item := range items {
		if item.Volume <= 0 && item.Cost <= 0 {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO operation_pollutants (operation_id, pollutant_id, volume, cost)
			VALUES (?, ?, ?, ?)
		`, operationID, item.PollutantID, item.Volume, item.Cost); err != nil {
			return fmt.Errorf("insert line item (pollutant %d): %w", item.PollutantID, err)
		}
	}
	return nil
}
