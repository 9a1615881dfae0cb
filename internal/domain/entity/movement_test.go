package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

func TestValidateCauseSign_CausasPositivas(t *testing.T) {
	// PURCHASE y RETURN solo admiten deltas positivos.
	assert.NoError(t, entity.ValidateCauseSign(entity.CausePurchase, 10))
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseReturn, 1))

	assert.ErrorIs(t, entity.ValidateCauseSign(entity.CausePurchase, -1), domain.ErrInvalidCause)
	assert.ErrorIs(t, entity.ValidateCauseSign(entity.CauseReturn, -5), domain.ErrInvalidCause)
}

func TestValidateCauseSign_CausasConAmbosSignos(t *testing.T) {
	// SALE: negativo al vender, positivo al anular la factura.
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseSale, -3))
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseSale, 3))

	// TRANSFER: negativo en el tramo de salida, positivo en el de entrada.
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseTransfer, -7))
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseTransfer, 7))

	// ADJUSTMENT admite cualquier signo.
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseAdjustment, -2))
	assert.NoError(t, entity.ValidateCauseSign(entity.CauseAdjustment, 2))
}

func TestValidateCauseSign_CeroYCausaDesconocida(t *testing.T) {
	assert.ErrorIs(t, entity.ValidateCauseSign(entity.CauseSale, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, entity.ValidateCauseSign("ROBO", 1), domain.ErrInvalidCause)
	assert.ErrorIs(t, entity.ValidateCauseSign("", 1), domain.ErrInvalidCause)
}

func TestValidateRef(t *testing.T) {
	assert.NoError(t, entity.ValidateRef(nil))
	assert.NoError(t, entity.ValidateRef(&entity.MovementRef{Type: entity.RefInvoice, ID: "F-001"}))

	// Una referencia a medias no es válida: o viene completa o no viene.
	assert.ErrorIs(t, entity.ValidateRef(&entity.MovementRef{Type: entity.RefInvoice}), domain.ErrInvalidInput)
	assert.ErrorIs(t, entity.ValidateRef(&entity.MovementRef{ID: "F-001"}), domain.ErrInvalidInput)
}
