package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/employee"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// employeeCacheNamespace keys decoded employees in the lookaside cache.
const employeeCacheNamespace = "employees"

// EmployeeServiceImpl implements the EmployeeService interface.
type EmployeeServiceImpl struct {
	employeeRepo secondary.EmployeeRepository
	cache        secondary.EmployeeCache
	logger       *slog.Logger
}

// NewEmployeeService creates a new EmployeeService with injected dependencies.
func NewEmployeeService(employeeRepo secondary.EmployeeRepository, cache secondary.EmployeeCache, logger *slog.Logger) *EmployeeServiceImpl {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		cache:        cache,
		logger:       loggerOrDiscard(logger),
	}
}

// CreateEmployee registers a new badge holder.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req primary.Employee) (*primary.Employee, error) {
	req.RFIDCardID = strings.TrimSpace(req.RFIDCardID)
	if err := employee.ValidateFields(req.RFIDCardID, req.Name, req.Position); err != nil {
		return nil, err
	}

	_, err := s.employeeRepo.GetByRFID(ctx, req.RFIDCardID)
	if err == nil {
		return nil, apperr.Validation("employee with rfid_card_id %s already exists", req.RFIDCardID)
	}
	if !isNotFound(err) {
		return nil, storeFailure(ctx, s.logger, "employee.create", req.RFIDCardID, err)
	}

	record := &secondary.EmployeeRecord{RFIDCardID: req.RFIDCardID, Name: req.Name, Position: req.Position}
	if err := s.employeeRepo.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "employee.create", req.RFIDCardID, err)
	}
	return recordToEmployee(record), nil
}

// GetEmployee retrieves an employee by rfid card id.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, rfidCardID string) (*primary.Employee, error) {
	record, err := s.get(ctx, "employee.get", rfidCardID)
	if err != nil {
		return nil, err
	}
	return recordToEmployee(record), nil
}

// ListEmployees retrieves every employee.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context) ([]*primary.Employee, error) {
	records, err := s.employeeRepo.List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "employee.list", "", err)
	}
	out := make([]*primary.Employee, len(records))
	for i, r := range records {
		out[i] = recordToEmployee(r)
	}
	return out, nil
}

// UpdateEmployee changes an employee's name or position.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, rfidCardID string, req primary.UpdateEmployeeRequest) (*primary.Employee, error) {
	record, err := s.get(ctx, "employee.update", rfidCardID)
	if err != nil {
		return nil, err
	}
	previous := *record
	if req.Name != "" {
		record.Name = req.Name
	}
	if req.Position != "" {
		record.Position = req.Position
	}
	if err := s.employeeRepo.Update(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "employee.update", rfidCardID, err)
	}
	s.forget(&previous)
	return recordToEmployee(record), nil
}

// DeleteEmployee removes an employee and drops its cached fingerprint.
func (s *EmployeeServiceImpl) DeleteEmployee(ctx context.Context, rfidCardID string) error {
	record, err := s.get(ctx, "employee.delete", rfidCardID)
	if err != nil {
		return err
	}
	err = s.employeeRepo.Delete(ctx, rfidCardID)
	if isNotFound(err) {
		return apperr.NotFound("employee %s not found", rfidCardID)
	}
	if err != nil {
		return storeFailure(ctx, s.logger, "employee.delete", rfidCardID, err)
	}
	s.forget(record)
	return nil
}

// Decode resolves a fingerprint to the employee it was computed from.
// A cache miss falls back to hashing every registered employee.
func (s *EmployeeServiceImpl) Decode(ctx context.Context, fingerprint string) (*primary.Employee, error) {
	fingerprint = strings.ToLower(strings.TrimSpace(fingerprint))
	if !employee.LooksLikeFingerprint(fingerprint) {
		return nil, apperr.Validation("%q is not an employee fingerprint", fingerprint)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(employeeCacheNamespace, fingerprint); ok {
			return recordToEmployee(cached), nil
		}
	}

	records, err := s.employeeRepo.List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "employee.decode", fingerprint, err)
	}
	for _, r := range records {
		if employee.Fingerprint(r.RFIDCardID, r.Name, r.Position) != fingerprint {
			continue
		}
		if s.cache != nil {
			s.cache.Put(employeeCacheNamespace, fingerprint, r)
		}
		return recordToEmployee(r), nil
	}

	s.logger.DebugContext(ctx, "fingerprint matches no employee", "fingerprint", fingerprint, "scanned", len(records))
	return nil, apperr.NotFound("no employee matches fingerprint %s", fingerprint)
}

// Helper methods

func (s *EmployeeServiceImpl) get(ctx context.Context, op, rfidCardID string) (*secondary.EmployeeRecord, error) {
	record, err := s.employeeRepo.GetByRFID(ctx, rfidCardID)
	if isNotFound(err) {
		return nil, apperr.NotFound("employee %s not found", rfidCardID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, rfidCardID, err)
	}
	return record, nil
}

// forget evicts the cached decode of the employee's fingerprint.
func (s *EmployeeServiceImpl) forget(r *secondary.EmployeeRecord) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(employeeCacheNamespace, employee.Fingerprint(r.RFIDCardID, r.Name, r.Position))
}

func recordToEmployee(r *secondary.EmployeeRecord) *primary.Employee {
	return &primary.Employee{RFIDCardID: r.RFIDCardID, Name: r.Name, Position: r.Position}
}

// Ensure EmployeeServiceImpl implements the interface.
var _ primary.EmployeeService = (*EmployeeServiceImpl)(nil)
