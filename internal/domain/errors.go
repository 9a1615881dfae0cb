package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")

	ErrUnknownProduct    = errors.New("producto no registrado")
	ErrUnknownBranch     = errors.New("sucursal no registrada")
	ErrInvalidCause      = errors.New("tipo de movimiento inválido")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrLineResolved      = errors.New("la línea ya fue recibida")
	ErrConcurrentUpdate  = errors.New("conflicto de actualización concurrente")
)

// InsufficientStockError detalla qué posición quedó corta: el operador necesita
// saber producto, sucursal, cantidad pedida y disponible para poder actuar.
type InsufficientStockError struct {
	ProductID string
	BranchID  string
	Requested int64
	Available int64
	LineID    string // vacío si no proviene de una línea de transferencia
}

func (e *InsufficientStockError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("stock insuficiente en sucursal %s para producto %s (línea %s): solicitado %d, disponible %d",
			e.BranchID, e.ProductID, e.LineID, e.Requested, e.Available)
	}
	return fmt.Sprintf("stock insuficiente en sucursal %s para producto %s: solicitado %d, disponible %d",
		e.BranchID, e.ProductID, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError indica un cambio de estado de transferencia no enumerado.
type InvalidTransitionError struct {
	TransferID string
	From       string
	To         string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transferencia %s: no se puede pasar de %s a %s", e.TransferID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
