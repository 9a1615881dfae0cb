package entity

import "time"

// Branch representa una sucursal física de venta y almacenamiento.
type Branch struct {
	ID        string
	Name      string
	Address   string
	City      string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
