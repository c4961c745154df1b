package primary

import "context"

// EmployeeService defines the primary port for employee operations.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, req Employee) (*Employee, error)
	GetEmployee(ctx context.Context, rfidCardID string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, rfidCardID string, req UpdateEmployeeRequest) (*Employee, error)
	DeleteEmployee(ctx context.Context, rfidCardID string) error

	// Decode resolves an employee fingerprint back to the employee.
	Decode(ctx context.Context, fingerprint string) (*Employee, error)
}

// Employee represents an RFID badge holder.
type Employee struct {
	RFIDCardID string `json:"rfid_card_id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
}

// UpdateEmployeeRequest contains the editable employee fields. Empty means unchanged.
type UpdateEmployeeRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}
