package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/application/transfer"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
	"github.com/jhoicas/Sucursales-api/internal/testsupport"
)

const (
	originID      = "00000000-0000-0000-0000-0000000000a1"
	destinationID = "00000000-0000-0000-0000-0000000000a2"
	productA      = "00000000-0000-0000-0000-0000000000b1"
	productB      = "00000000-0000-0000-0000-0000000000b2"
	requesterID   = "00000000-0000-0000-0000-0000000000c1"
	approverID    = "00000000-0000-0000-0000-0000000000c2"
)

type fixture struct {
	engine *transfer.Engine
	ledger *ledger.Service
	store  *testsupport.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testsupport.NewStore()
	store.SeedBranch(originID, "Sucursal Centro")
	store.SeedBranch(destinationID, "Sucursal Norte")
	store.SeedProduct(productA, "SKU-A", "Yerba 1kg")
	store.SeedProduct(productB, "SKU-B", "Azúcar 1kg")
	store.SeedPosition(productA, originID, 50, 0)
	store.SeedPosition(productB, originID, 30, 0)

	runner := testsupport.NewTxRunner(store)
	ledgerSvc := ledger.NewService(runner, store.ProductRepo(), store.BranchRepo(), store.StockRepo(), store.MovementRepo())
	engine := transfer.NewEngine(runner, ledgerSvc, store.TransferRepo(), store.BranchRepo(), store.ProductRepo(), store.StockRepo())
	return &fixture{engine: engine, ledger: ledgerSvc, store: store}
}

func (f *fixture) create(t *testing.T, lines ...transfer.LineInput) (*entity.Transfer, []*entity.TransferLine) {
	t.Helper()
	tr, ls, err := f.engine.Create(context.Background(), transfer.CreateInput{
		OriginID:      originID,
		DestinationID: destinationID,
		RequestedBy:   requesterID,
		Lines:         lines,
	})
	require.NoError(t, err)
	return tr, ls
}

func (f *fixture) quantity(t *testing.T, productID, branchID string) int64 {
	t.Helper()
	position, err := f.ledger.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	return position.Quantity
}

func TestCreate_Valida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Mismo origen y destino.
	_, _, err := f.engine.Create(ctx, transfer.CreateInput{
		OriginID: originID, DestinationID: originID, RequestedBy: requesterID,
		Lines: []transfer.LineInput{{ProductID: productA, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Sin líneas.
	_, _, err = f.engine.Create(ctx, transfer.CreateInput{
		OriginID: originID, DestinationID: destinationID, RequestedBy: requesterID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Cantidad no positiva.
	_, _, err = f.engine.Create(ctx, transfer.CreateInput{
		OriginID: originID, DestinationID: destinationID, RequestedBy: requesterID,
		Lines: []transfer.LineInput{{ProductID: productA, Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Cobertura insuficiente en origen.
	_, _, err = f.engine.Create(ctx, transfer.CreateInput{
		OriginID: originID, DestinationID: destinationID, RequestedBy: requesterID,
		Lines: []transfer.LineInput{{ProductID: productA, Quantity: 51}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreate_NoMueveStock(t *testing.T) {
	f := newFixture(t)
	tr, lines := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 10})

	assert.Equal(t, entity.TransferRequested, tr.Status)
	assert.NotEmpty(t, tr.Number)
	require.Len(t, lines, 1)

	// Crear es solo una promesa: el stock de origen queda intacto.
	assert.Equal(t, int64(50), f.quantity(t, productA, originID))
	assert.Equal(t, int64(0), f.quantity(t, productA, destinationID))
}

func TestLifecycle_CompletoConRecepcionParcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, lines := f.create(t,
		transfer.LineInput{ProductID: productA, Quantity: 10},
		transfer.LineInput{ProductID: productB, Quantity: 5},
	)

	// Aprobar: fija autorizador, sigue sin mover stock.
	approved, err := f.engine.Approve(ctx, tr.ID, approverID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approverID, *approved.ApprovedBy)
	assert.Equal(t, int64(50), f.quantity(t, productA, originID))

	// Despachar: debita el origen por lo solicitado en ambas líneas.
	dispatched, err := f.engine.Dispatch(ctx, tr.ID, approverID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, dispatched.Status)
	assert.Equal(t, int64(40), f.quantity(t, productA, originID))
	assert.Equal(t, int64(25), f.quantity(t, productB, originID))
	assert.Equal(t, int64(0), f.quantity(t, productA, destinationID))

	// Recibir la primera línea completa.
	after, err := f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 10, requesterID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, after.Status, "queda una línea pendiente")
	assert.Equal(t, int64(10), f.quantity(t, productA, destinationID))

	// Recibir la segunda con merma de 1 unidad: resuelve y completa.
	after, err = f.engine.ReceiveLine(ctx, tr.ID, lines[1].ID, 4, requesterID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, after.Status)
	assert.Equal(t, int64(4), f.quantity(t, productB, destinationID))

	// La unidad perdida queda visible como faltante de la línea, no en stock.
	_, finalLines, err := f.engine.Get(ctx, tr.ID)
	require.NoError(t, err)
	var shortfall int64
	for _, l := range finalLines {
		shortfall += l.Shortfall()
	}
	assert.Equal(t, int64(1), shortfall)

	// Ley de recomputación en ambos extremos.
	sumOrigin, err := f.ledger.RecomputeQuantity(ctx, productB, originID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), sumOrigin)
	sumDest, err := f.ledger.RecomputeQuantity(ctx, productB, destinationID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sumDest)
}

func TestDispatch_RequiereAprobacion(t *testing.T) {
	f := newFixture(t)
	tr, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 10})

	_, err := f.engine.Dispatch(context.Background(), tr.ID, approverID)
	require.Error(t, err)

	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.TransferRequested, invalid.From)
	assert.Equal(t, entity.TransferInTransit, invalid.To)
}

// Si una línea no puede debitarse, el despacho entero se revierte: no existen
// despachos a medias.
func TestDispatch_FallaUnaLineaRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, _ := f.create(t,
		transfer.LineInput{ProductID: productA, Quantity: 10},
		transfer.LineInput{ProductID: productB, Quantity: 30},
	)
	_, err := f.engine.Approve(ctx, tr.ID, approverID)
	require.NoError(t, err)

	// Entre la aprobación y el despacho, una venta agota el producto B.
	_, err = f.ledger.PostMovement(ctx, ledger.MovementInput{
		ProductID: productB, BranchID: originID,
		Cause: entity.CauseSale, Quantity: -25, UserID: requesterID,
	})
	require.NoError(t, err)

	_, err = f.engine.Dispatch(ctx, tr.ID, approverID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Ni siquiera la línea A (que sí tenía cobertura) debe haberse debitado.
	assert.Equal(t, int64(50), f.quantity(t, productA, originID))
	got, _, err := f.engine.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status, "la transferencia sigue aprobada, lista para reintentar")
}

func TestApprove_RevalidaCobertura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 40})

	// El stock se vendió después de la solicitud.
	_, err := f.ledger.PostMovement(ctx, ledger.MovementInput{
		ProductID: productA, BranchID: originID,
		Cause: entity.CauseSale, Quantity: -20, UserID: requesterID,
	})
	require.NoError(t, err)

	_, err = f.engine.Approve(ctx, tr.ID, approverID)
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(40), insufficient.Requested)
	assert.Equal(t, int64(30), insufficient.Available)
	assert.NotEmpty(t, insufficient.LineID, "el error debe nombrar la línea descubierta")
}

func TestReceiveLine_Reglas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, lines := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 10})

	// Antes del despacho no hay nada que recibir.
	_, err := f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 10, requesterID)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	_, err = f.engine.Approve(ctx, tr.ID, approverID)
	require.NoError(t, err)
	_, err = f.engine.Dispatch(ctx, tr.ID, approverID)
	require.NoError(t, err)

	// Recibir de más no está permitido.
	_, err = f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 11, requesterID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Primera confirmación vale; la línea queda inmutable.
	_, err = f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 7, requesterID)
	require.NoError(t, err)
	_, err = f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 3, requesterID)
	assert.ErrorIs(t, err, domain.ErrLineResolved)

	// Solo entraron las 7 unidades de la primera confirmación.
	assert.Equal(t, int64(7), f.quantity(t, productA, destinationID))
}

// Recibir 0 resuelve la línea sin acreditar stock: pérdida total en tránsito.
func TestReceiveLine_CeroResuelveYCompleta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, lines := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 5})
	_, err := f.engine.Approve(ctx, tr.ID, approverID)
	require.NoError(t, err)
	_, err = f.engine.Dispatch(ctx, tr.ID, approverID)
	require.NoError(t, err)

	after, err := f.engine.ReceiveLine(ctx, tr.ID, lines[0].ID, 0, requesterID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, after.Status)
	assert.Equal(t, int64(0), f.quantity(t, productA, destinationID))
	assert.Equal(t, int64(45), f.quantity(t, productA, originID), "lo debitado en origen no vuelve solo")
}

func TestCancel_SoloAntesDelDespacho(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Cancelar en REQUESTED.
	tr, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 5})
	cancelled, err := f.engine.Cancel(ctx, tr.ID, "pedido duplicado", requesterID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "Cancelada: pedido duplicado")

	// Cancelar en APPROVED.
	tr2, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 5})
	_, err = f.engine.Approve(ctx, tr2.ID, approverID)
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, tr2.ID, "", requesterID)
	require.NoError(t, err)

	// En IN_TRANSIT ya no: el origen fue debitado.
	tr3, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 5})
	_, err = f.engine.Approve(ctx, tr3.ID, approverID)
	require.NoError(t, err)
	_, err = f.engine.Dispatch(ctx, tr3.ID, approverID)
	require.NoError(t, err)

	_, err = f.engine.Cancel(ctx, tr3.ID, "me arrepentí", requesterID)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.TransferInTransit, invalid.From)

	// La cancelación nunca movió stock.
	assert.Equal(t, int64(45), f.quantity(t, productA, originID))
}

func TestList_Filtros(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr1, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 1})
	tr2, _ := f.create(t, transfer.LineInput{ProductID: productA, Quantity: 2})
	_, err := f.engine.Approve(ctx, tr2.ID, approverID)
	require.NoError(t, err)

	requested, err := f.engine.List(ctx, repositoryFilter(entity.TransferRequested))
	require.NoError(t, err)
	require.Len(t, requested, 1)
	assert.Equal(t, tr1.ID, requested[0].ID)

	approved, err := f.engine.List(ctx, repositoryFilter(entity.TransferApproved))
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, tr2.ID, approved[0].ID)
}

func repositoryFilter(status string) repository.TransferFilter {
	return repository.TransferFilter{Status: status}
}
