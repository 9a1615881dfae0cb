package documents_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Sucursales-api/internal/application/documents"
	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
	"github.com/jhoicas/Sucursales-api/internal/testsupport"
)

const (
	branchID = "00000000-0000-0000-0000-0000000000d1"
	productA = "00000000-0000-0000-0000-0000000000d2"
	productB = "00000000-0000-0000-0000-0000000000d3"
	userID   = "00000000-0000-0000-0000-0000000000d4"
)

func newService(t *testing.T) (*documents.Service, *ledger.Service, *testsupport.Store) {
	t.Helper()
	store := testsupport.NewStore()
	store.SeedBranch(branchID, "Sucursal Centro")
	store.SeedProduct(productA, "SKU-A", "Harina 1kg")
	store.SeedProduct(productB, "SKU-B", "Aceite 1L")

	runner := testsupport.NewTxRunner(store)
	ledgerSvc := ledger.NewService(runner, store.ProductRepo(), store.BranchRepo(), store.StockRepo(), store.MovementRepo())
	return documents.NewService(runner, ledgerSvc), ledgerSvc, store
}

func cost(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestReceivePurchase_IngresaStockConCosto(t *testing.T) {
	svc, ledgerSvc, _ := newService(t)
	ctx := context.Background()

	err := svc.ReceivePurchase(ctx, branchID, "OC-100", userID, []documents.Line{
		{ProductID: productA, Quantity: 12, UnitCost: cost("850.50")},
		{ProductID: productB, Quantity: 6, UnitCost: cost("2300")},
	})
	require.NoError(t, err)

	position, err := ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), position.Quantity)

	// El asiento conserva el costo y la referencia a la orden.
	entries, err := ledgerSvc.ListMovements(ctx, repository.MovementFilter{ProductID: productA, BranchID: branchID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.CausePurchase, entries[0].Cause)
	require.NotNil(t, entries[0].UnitCost)
	assert.True(t, entries[0].UnitCost.Equal(decimal.RequireFromString("850.50")))
	require.NotNil(t, entries[0].Ref)
	assert.Equal(t, entity.RefPurchaseOrder, entries[0].Ref.Type)
	assert.Equal(t, "OC-100", entries[0].Ref.ID)
}

func TestReceivePurchase_SinCostoFalla(t *testing.T) {
	svc, _, _ := newService(t)
	err := svc.ReceivePurchase(context.Background(), branchID, "OC-101", userID, []documents.Line{
		{ProductID: productA, Quantity: 3},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssueSale_DescuentaTodoONada(t *testing.T) {
	svc, ledgerSvc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.ReceivePurchase(ctx, branchID, "OC-1", userID, []documents.Line{
		{ProductID: productA, Quantity: 10, UnitCost: cost("100")},
		{ProductID: productB, Quantity: 2, UnitCost: cost("100")},
	}))

	// La línea B excede el stock: la factura completa debe rechazarse.
	err := svc.IssueSale(ctx, branchID, "F-001", userID, []documents.Line{
		{ProductID: productA, Quantity: 4},
		{ProductID: productB, Quantity: 3},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	position, err := ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), position.Quantity, "la línea A no debe haberse descontado")

	// Con cantidades cubiertas, la factura entra y descuenta ambos renglones.
	require.NoError(t, svc.IssueSale(ctx, branchID, "F-001", userID, []documents.Line{
		{ProductID: productA, Quantity: 4},
		{ProductID: productB, Quantity: 2},
	}))
	position, err = ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), position.Quantity)
}

func TestVoidSale_ReintegraConSALEPositivo(t *testing.T) {
	svc, ledgerSvc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.ReceivePurchase(ctx, branchID, "OC-1", userID, []documents.Line{
		{ProductID: productA, Quantity: 10, UnitCost: cost("100")},
	}))
	require.NoError(t, svc.IssueSale(ctx, branchID, "F-002", userID, []documents.Line{
		{ProductID: productA, Quantity: 4},
	}))

	require.NoError(t, svc.VoidSale(ctx, branchID, "F-002", userID, []documents.Line{
		{ProductID: productA, Quantity: 4},
	}))

	position, err := ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), position.Quantity)

	// La anulación es un SALE positivo referenciando la factura, no un borrado.
	entries, err := ledgerSvc.ListMovements(ctx, repository.MovementFilter{
		ProductID: productA, BranchID: branchID, Cause: entity.CauseSale,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].Quantity)
	assert.Equal(t, int64(-4), entries[1].Quantity)
	require.NotNil(t, entries[0].Ref)
	assert.Equal(t, "F-002", entries[0].Ref.ID)
}

func TestApproveReturn_ReingresaStock(t *testing.T) {
	svc, ledgerSvc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.ApproveReturn(ctx, branchID, "DEV-9", userID, []documents.Line{
		{ProductID: productA, Quantity: 2},
	}))

	position, err := ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), position.Quantity)

	entries, err := ledgerSvc.ListMovements(ctx, repository.MovementFilter{ProductID: productA, BranchID: branchID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.CauseReturn, entries[0].Cause)
}

func TestAdjust_ExigeNota(t *testing.T) {
	svc, ledgerSvc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.ReceivePurchase(ctx, branchID, "OC-1", userID, []documents.Line{
		{ProductID: productA, Quantity: 10, UnitCost: cost("100")},
	}))

	_, err := svc.Adjust(ctx, branchID, productA, -3, "", userID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	entry, err := svc.Adjust(ctx, branchID, productA, -3, "rotura en depósito", userID)
	require.NoError(t, err)
	assert.Equal(t, entity.CauseAdjustment, entry.Cause)

	position, err := ledgerSvc.GetStock(ctx, productA, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), position.Quantity)
}
