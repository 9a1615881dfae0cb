package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Sucursales-api/internal/application/inventory"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/testsupport"
)

const (
	branchID = "00000000-0000-0000-0000-0000000000f1"
	productA = "00000000-0000-0000-0000-0000000000f2"
	productB = "00000000-0000-0000-0000-0000000000f3"
)

func newUseCase(t *testing.T) (*inventory.StockQueryUseCase, *testsupport.Store) {
	t.Helper()
	store := testsupport.NewStore()
	store.SeedBranch(branchID, "Sucursal Centro")
	store.SeedProduct(productA, "SKU-A", "Leche 1L")
	store.SeedProduct(productB, "SKU-B", "Pan lactal")
	return inventory.NewStockQueryUseCase(store.StockRepo(), store.BranchRepo()), store
}

func TestUpdateThresholds_Valida(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	assert.ErrorIs(t, uc.UpdateThresholds(ctx, productA, branchID, -1, 10, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.UpdateThresholds(ctx, productA, branchID, 10, 5, ""), domain.ErrInvalidInput)
	assert.NoError(t, uc.UpdateThresholds(ctx, productA, branchID, 5, 20, "Góndola 3"))
}

func TestLowStock_OrdenaPorDeficit(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	store.SeedPosition(productA, branchID, 2, 10) // déficit 8
	store.SeedPosition(productB, branchID, 4, 5)  // déficit 1

	items, err := uc.LowStock(ctx, branchID, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, productA, items[0].ProductID, "mayor déficit primero")
	assert.Equal(t, "SKU-A", items[0].SKU)
}

func TestLowStock_IgnoraPosicionesCubiertas(t *testing.T) {
	uc, store := newUseCase(t)

	store.SeedPosition(productA, branchID, 50, 10)
	store.SeedPosition(productB, branchID, 5, 5) // en el mínimo exacto cuenta

	items, err := uc.LowStock(context.Background(), branchID, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, productB, items[0].ProductID)
}
