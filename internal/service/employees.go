package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var employeeTracer = otel.Tracer("service/employees")

const bcryptCost = 12

// EmployeeDirectory manages branch staff. It mirrors the store into
// memory at startup and writes through on every change.
type EmployeeDirectory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee

	store  port.EmployeeStore
	logger *zap.Logger
}

func NewEmployeeDirectory(store port.EmployeeStore, logger *zap.Logger) *EmployeeDirectory {
	return &EmployeeDirectory{
		employees: make(map[string]domain.Employee),
		store:     store,
		logger:    logger,
	}
}

// Load populates the directory from the store.
func (d *EmployeeDirectory) Load(ctx context.Context) error {
	ctx, span := employeeTracer.Start(ctx, "EmployeeDirectory.Load")
	defer span.End()

	emps, err := d.store.LoadEmployees(ctx)
	if err != nil {
		return fmt.Errorf("load employees: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, emp := range emps {
		if _, dup := d.employees[emp.ID]; dup {
			return fmt.Errorf("duplicate employee id %q in store", emp.ID)
		}
		d.employees[emp.ID] = emp
	}
	d.logger.Info("employee directory loaded", zap.Int("employees", len(d.employees)))
	return nil
}

// AddEmployee hires a new staff member. The password is stored only as
// a bcrypt hash.
func (d *EmployeeDirectory) AddEmployee(ctx context.Context, name string, role domain.Role, contactInfo, email, location, password string) (domain.Employee, error) {
	ctx, span := employeeTracer.Start(ctx, "EmployeeDirectory.AddEmployee")
	defer span.End()

	if name == "" {
		return domain.Employee{}, &domain.ErrValidation{Field: "name", Message: "cannot be empty"}
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return domain.Employee{}, &domain.ErrValidation{Field: "role", Message: err.Error()}
	}
	if len(password) < 8 {
		return domain.Employee{}, &domain.ErrValidation{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("hash password: %w", err)
	}

	emp := domain.Employee{
		ID:           uuid.New().String(),
		Name:         name,
		Role:         role,
		ContactInfo:  contactInfo,
		Email:        email,
		Location:     location,
		PasswordHash: string(hash),
	}

	if err := d.store.UpsertEmployee(ctx, emp); err != nil {
		return domain.Employee{}, &domain.ErrPersistence{Op: "add_employee", Err: err}
	}

	d.mu.Lock()
	d.employees[emp.ID] = emp
	d.mu.Unlock()

	d.logger.Info("employee added",
		zap.String("employee_id", emp.ID),
		zap.String("role", string(emp.Role)),
	)
	return emp, nil
}

// GetEmployee returns one employee by ID.
func (d *EmployeeDirectory) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	_, span := employeeTracer.Start(ctx, "EmployeeDirectory.GetEmployee")
	defer span.End()

	d.mu.RLock()
	defer d.mu.RUnlock()
	emp, ok := d.employees[id]
	if !ok {
		return domain.Employee{}, &domain.ErrAccountNotFound{Number: id}
	}
	return emp, nil
}

// ListEmployees returns all staff ordered by name.
func (d *EmployeeDirectory) ListEmployees(ctx context.Context) []domain.Employee {
	_, span := employeeTracer.Start(ctx, "EmployeeDirectory.ListEmployees")
	defer span.End()

	d.mu.RLock()
	out := make([]domain.Employee, 0, len(d.employees))
	for _, emp := range d.employees {
		out = append(out, emp)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateEmployee changes an employee's role or location.
func (d *EmployeeDirectory) UpdateEmployee(ctx context.Context, id string, role *domain.Role, location *string) (domain.Employee, error) {
	ctx, span := employeeTracer.Start(ctx, "EmployeeDirectory.UpdateEmployee")
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	emp, ok := d.employees[id]
	if !ok {
		return domain.Employee{}, &domain.ErrAccountNotFound{Number: id}
	}

	updated := emp
	if role != nil {
		if _, err := domain.ParseRole(string(*role)); err != nil {
			return domain.Employee{}, &domain.ErrValidation{Field: "role", Message: err.Error()}
		}
		updated.Role = *role
	}
	if location != nil {
		updated.Location = *location
	}

	if err := d.store.UpsertEmployee(ctx, updated); err != nil {
		return domain.Employee{}, &domain.ErrPersistence{Op: "update_employee", Err: err}
	}

	d.employees[id] = updated
	d.logger.Info("employee updated", zap.String("employee_id", id))
	return updated, nil
}

// RemoveEmployee deletes a staff member from the directory and store.
func (d *EmployeeDirectory) RemoveEmployee(ctx context.Context, id string) error {
	ctx, span := employeeTracer.Start(ctx, "EmployeeDirectory.RemoveEmployee")
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.employees[id]; !ok {
		return &domain.ErrAccountNotFound{Number: id}
	}
	if err := d.store.RemoveEmployee(ctx, id); err != nil {
		return &domain.ErrPersistence{Op: "remove_employee", Err: err}
	}
	delete(d.employees, id)
	d.logger.Info("employee removed", zap.String("employee_id", id))
	return nil
}
