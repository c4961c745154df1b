package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/feecc/internal/ports/secondary"
)

// EmployeeRepository implements secondary.EmployeeRepository with SQLite.
type EmployeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new SQLite employee repository.
func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create persists a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *secondary.EmployeeRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO employees (rfid_card_id, name, position) VALUES (?, ?, ?)`,
		employee.RFIDCardID, employee.Name, employee.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// GetByRFID retrieves an employee by rfid card id.
func (r *EmployeeRepository) GetByRFID(ctx context.Context, rfidCardID string) (*secondary.EmployeeRecord, error) {
	employee := &secondary.EmployeeRecord{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT rfid_card_id, name, position FROM employees WHERE rfid_card_id = ?`, rfidCardID,
	).Scan(&employee.RFIDCardID, &employee.Name, &employee.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// List retrieves every employee in registration order.
func (r *EmployeeRepository) List(ctx context.Context) ([]*secondary.EmployeeRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT rfid_card_id, name, position FROM employees ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*secondary.EmployeeRecord
	for rows.Next() {
		e := &secondary.EmployeeRecord{}
		if err := rows.Scan(&e.RFIDCardID, &e.Name, &e.Position); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// Update overwrites name and position of an employee.
func (r *EmployeeRepository) Update(ctx context.Context, employee *secondary.EmployeeRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE employees SET name = ?, position = ? WHERE rfid_card_id = ?`,
		employee.Name, employee.Position, employee.RFIDCardID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return requireAffected(result, "employee", employee.RFIDCardID)
}

// Delete removes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, rfidCardID string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM employees WHERE rfid_card_id = ?`, rfidCardID)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return requireAffected(result, "employee", rfidCardID)
}

// Ensure EmployeeRepository implements the interface
var _ secondary.EmployeeRepository = (*EmployeeRepository)(nil)
