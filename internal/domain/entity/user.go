package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleVendedor   = "vendedor"
)

// User representa un usuario del sistema, asignado a una sucursal.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	BranchID     string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
