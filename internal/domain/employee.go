package domain

import "fmt"

// ============================================================
// Employees
// ============================================================

// Role is an explicit employee role. The presentation layer dispatches
// on it; the ledger core never looks at roles.
type Role string

const (
	RoleTeller        Role = "teller"
	RoleLoanOfficer   Role = "loan_officer"
	RoleCreditAnalyst Role = "credit_analyst"
	RoleAccountant    Role = "accountant"
	RoleBranchManager Role = "branch_manager"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTeller, RoleLoanOfficer, RoleCreditAnalyst, RoleAccountant, RoleBranchManager:
		return Role(s), nil
	}
	return "", &ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", s)}
}

// Employee is a branch staff record.
type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	ContactInfo  string `json:"contact_info,omitempty"`
	Email        string `json:"email,omitempty"`
	Location     string `json:"location,omitempty"`
	PasswordHash string `json:"-"`
}
