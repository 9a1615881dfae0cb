package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
	"github.com/jhoicas/Sucursales-api/internal/testsupport"
)

const (
	productID = "00000000-0000-0000-0000-0000000000aa"
	branchID  = "00000000-0000-0000-0000-0000000000bb"
	userID    = "00000000-0000-0000-0000-0000000000cc"
)

func newService(t *testing.T) (*ledger.Service, *testsupport.Store, *testsupport.TxRunner) {
	t.Helper()
	store := testsupport.NewStore()
	store.SeedBranch(branchID, "Sucursal Centro")
	store.SeedProduct(productID, "SKU-001", "Café molido 500g")
	runner := testsupport.NewTxRunner(store)
	svc := ledger.NewService(runner, store.ProductRepo(), store.BranchRepo(), store.StockRepo(), store.MovementRepo())
	return svc, store, runner
}

func post(t *testing.T, svc *ledger.Service, cause string, qty int64) *entity.MovementEntry {
	t.Helper()
	note := ""
	if cause == entity.CauseAdjustment {
		note = "conteo físico"
	}
	entry, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     cause,
		Quantity:  qty,
		UserID:    userID,
		Note:      note,
	})
	require.NoError(t, err)
	return entry
}

func TestPostMovement_ActualizaPosicionYLog(t *testing.T) {
	svc, _, _ := newService(t)

	entry := post(t, svc, entity.CausePurchase, 10)
	assert.NotZero(t, entry.ID, "el asiento debe recibir id al persistirse")

	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), position.Quantity)
	assert.NotNil(t, position.LastMovementAt)

	post(t, svc, entity.CauseSale, -4)
	position, err = svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), position.Quantity)
}

// Ley de recomputación: la cantidad de la posición siempre debe coincidir con
// la suma de los deltas del log.
func TestPostMovement_LeyDeRecomputacion(t *testing.T) {
	svc, _, _ := newService(t)

	post(t, svc, entity.CausePurchase, 20)
	post(t, svc, entity.CauseSale, -5)
	post(t, svc, entity.CauseAdjustment, -2)
	post(t, svc, entity.CauseReturn, 1)
	post(t, svc, entity.CauseSale, 5) // anulación de venta

	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)

	sum, err := svc.RecomputeQuantity(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, sum, position.Quantity)
	assert.Equal(t, int64(19), position.Quantity)
}

func TestPostMovement_RechazaStockNegativo(t *testing.T) {
	svc, _, _ := newService(t)
	post(t, svc, entity.CausePurchase, 3)

	_, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CauseSale,
		Quantity:  -4,
		UserID:    userID,
	})
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(4), insufficient.Requested)
	assert.Equal(t, int64(3), insufficient.Available)

	// El movimiento rechazado no deja rastro: ni en la posición ni en el log.
	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), position.Quantity)

	sum, err := svc.RecomputeQuantity(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)
}

func TestPostMovement_ParNuncaVistoArrancaEnCero(t *testing.T) {
	svc, _, _ := newService(t)

	// Vender sobre un par sin movimientos es vender sobre cantidad 0.
	_, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CauseSale,
		Quantity:  -1,
		UserID:    userID,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPostMovement_Validaciones(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ledger.MovementInput
		want  error
	}{
		{
			name:  "producto desconocido",
			input: ledger.MovementInput{ProductID: "otro", BranchID: branchID, Cause: entity.CausePurchase, Quantity: 1, UserID: userID},
			want:  domain.ErrUnknownProduct,
		},
		{
			name:  "sucursal desconocida",
			input: ledger.MovementInput{ProductID: productID, BranchID: "otra", Cause: entity.CausePurchase, Quantity: 1, UserID: userID},
			want:  domain.ErrUnknownBranch,
		},
		{
			name:  "delta cero",
			input: ledger.MovementInput{ProductID: productID, BranchID: branchID, Cause: entity.CauseSale, Quantity: 0, UserID: userID},
			want:  domain.ErrInvalidInput,
		},
		{
			name:  "compra negativa",
			input: ledger.MovementInput{ProductID: productID, BranchID: branchID, Cause: entity.CausePurchase, Quantity: -1, UserID: userID},
			want:  domain.ErrInvalidCause,
		},
		{
			name:  "ajuste sin nota",
			input: ledger.MovementInput{ProductID: productID, BranchID: branchID, Cause: entity.CauseAdjustment, Quantity: 1, UserID: userID},
			want:  domain.ErrInvalidInput,
		},
		{
			name: "referencia incompleta",
			input: ledger.MovementInput{ProductID: productID, BranchID: branchID, Cause: entity.CausePurchase, Quantity: 1, UserID: userID,
				Ref: &entity.MovementRef{Type: entity.RefPurchaseOrder}},
			want: domain.ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PostMovement(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// Nada de lo anterior debe haber tocado el log.
	sum, err := store.MovementRepo().SumDeltas(productID, branchID)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

// Dos ventas concurrentes sobre la misma posición no pueden sobrevender: el
// bloqueo por par serializa los posteos y exactamente una debe fallar.
func TestPostMovement_VentasConcurrentesNoSobrevenden(t *testing.T) {
	svc, _, _ := newService(t)
	post(t, svc, entity.CausePurchase, 10)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PostMovement(context.Background(), ledger.MovementInput{
				ProductID: productID,
				BranchID:  branchID,
				Cause:     entity.CauseSale,
				Quantity:  -6,
				UserID:    userID,
			})
		}(i)
	}
	wg.Wait()

	okCount, failCount := 0, 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failCount++
		}
	}
	assert.Equal(t, 1, okCount, "exactamente una venta debe pasar")
	assert.Equal(t, 1, failCount, "la otra debe rechazarse por stock insuficiente")

	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), position.Quantity)
}

// Los conflictos de serialización se reintentan de forma transparente.
func TestPostMovement_ReintentaAnteConflicto(t *testing.T) {
	svc, _, runner := newService(t)
	runner.ConflictsLeft = 2 // los dos primeros intentos fallan, el tercero entra

	entry, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CausePurchase,
		Quantity:  5,
		UserID:    userID,
	})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), position.Quantity)

	sum, err := svc.RecomputeQuantity(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum, "los intentos revertidos no deben dejar asientos")
}

func TestPostMovement_AgotadosLosReintentosDevuelveElConflicto(t *testing.T) {
	svc, _, runner := newService(t)
	runner.ConflictsLeft = 10 // más que el máximo de reintentos

	_, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CausePurchase,
		Quantity:  5,
		UserID:    userID,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
}

func TestGetStock_MaterializaPosicionVacia(t *testing.T) {
	svc, store, _ := newService(t)

	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), position.Quantity)
	assert.True(t, position.Active)
	assert.Nil(t, position.LastMovementAt)

	// La materialización no genera movimiento alguno.
	sum, err := store.MovementRepo().SumDeltas(productID, branchID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	// Par con producto inexistente: error, no posición fantasma.
	_, err = svc.GetStock(context.Background(), "inexistente", branchID)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

// staleStockRepo devuelve nil en las primeras lecturas de Get, simulando una
// lectura que vio la tabla antes de que otro movimiento confirmara la fila.
type staleStockRepo struct {
	repository.StockPositionRepository
	staleReads int
}

func (r *staleStockRepo) Get(productID, branchID string) (*entity.StockPosition, error) {
	if r.staleReads > 0 {
		r.staleReads--
		return nil, nil
	}
	return r.StockPositionRepository.Get(productID, branchID)
}

// Un GetStock que leyó el par como inexistente justo antes de que un primer
// movimiento confirmara no debe pisar con cero la cantidad recién escrita.
func TestGetStock_NoPisaMovimientoConcurrente(t *testing.T) {
	store := testsupport.NewStore()
	store.SeedBranch(branchID, "Sucursal Centro")
	store.SeedProduct(productID, "SKU-001", "Café molido 500g")
	runner := testsupport.NewTxRunner(store)
	stale := &staleStockRepo{StockPositionRepository: store.StockRepo()}
	svc := ledger.NewService(runner, store.ProductRepo(), store.BranchRepo(), stale, store.MovementRepo())

	_, err := svc.PostMovement(context.Background(), ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CausePurchase,
		Quantity:  5,
		UserID:    userID,
	})
	require.NoError(t, err)

	// La lectura inicial de GetStock ve el estado previo a ese movimiento.
	stale.staleReads = 1
	position, err := svc.GetStock(context.Background(), productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), position.Quantity, "la materialización no debe pisar la fila existente")

	// La ley de recomputación sigue en pie: posición == suma de deltas.
	persisted, err := store.StockRepo().Get(productID, branchID)
	require.NoError(t, err)
	sum, err := store.MovementRepo().SumDeltas(productID, branchID)
	require.NoError(t, err)
	assert.Equal(t, sum, persisted.Quantity)
}

func TestListMovements_FiltraYOrdena(t *testing.T) {
	svc, _, _ := newService(t)

	post(t, svc, entity.CausePurchase, 10)
	post(t, svc, entity.CauseSale, -2)
	post(t, svc, entity.CauseSale, -3)

	all, err := svc.ListMovements(context.Background(), repository.MovementFilter{
		ProductID: productID,
		BranchID:  branchID,
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(-3), all[0].Quantity, "más reciente primero")

	sales, err := svc.ListMovements(context.Background(), repository.MovementFilter{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CauseSale,
	})
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	_, err = svc.ListMovements(context.Background(), repository.MovementFilter{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     "ROBO",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCause)
}
