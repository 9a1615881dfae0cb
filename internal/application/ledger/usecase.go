package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// maxRetries reintentos internos ante conflicto de concurrencia antes de
// devolver el error al caller.
const maxRetries = 3

// Service es el único componente autorizado a mutar posiciones de stock.
// Cada PostMovement bloquea la fila del par (producto, sucursal), valida la
// regla de negocio y persiste posición + asiento como una unidad transaccional.
type Service struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	stockRepo   repository.StockPositionRepository
	movRepo     repository.MovementRepository
}

// NewService construye el servicio de ledger.
func NewService(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	stockRepo repository.StockPositionRepository,
	movRepo repository.MovementRepository,
) *Service {
	return &Service{
		txRunner:    txRunner,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		stockRepo:   stockRepo,
		movRepo:     movRepo,
	}
}

// MovementInput entrada para registrar un movimiento.
type MovementInput struct {
	ProductID string
	BranchID  string
	Cause     string
	Quantity  int64 // delta con signo
	UserID    string
	UnitCost  *decimal.Decimal
	Ref       *entity.MovementRef
	Note      string
}

// validate aplica las reglas de entrada que no requieren transacción:
// signo/causa, referencia completa y existencia de producto y sucursal.
func (s *Service) validate(input MovementInput) error {
	if input.ProductID == "" || input.BranchID == "" || input.UserID == "" {
		return domain.ErrInvalidInput
	}
	if err := entity.ValidateCauseSign(input.Cause, input.Quantity); err != nil {
		return err
	}
	if err := entity.ValidateRef(input.Ref); err != nil {
		return err
	}
	if input.Cause == entity.CauseAdjustment && input.Note == "" {
		return domain.ErrInvalidInput
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.Active {
		return domain.ErrUnknownProduct
	}
	branch, err := s.branchRepo.GetByID(input.BranchID)
	if err != nil {
		return err
	}
	if branch == nil || !branch.Active {
		return domain.ErrUnknownBranch
	}
	return nil
}

// PostMovement valida y aplica un movimiento en su propia transacción.
// Ante conflicto de concurrencia (serialización/deadlock) reintenta de forma
// transparente un número acotado de veces; el resto de los errores se devuelven
// tal cual al caller.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (*entity.MovementEntry, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var entry *entity.MovementEntry
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.txRunner.Run(ctx, func(
			movRepo repository.MovementRepository,
			stockRepo repository.StockPositionRepository,
		) error {
			var txErr error
			entry, txErr = s.PostMovementInTx(movRepo, stockRepo, input)
			return txErr
		})
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PostMovementInTx aplica el movimiento usando repositorios ya atados a una
// transacción del caller. Lo usa el motor de transferencias para que los
// asientos de todas las líneas de una transición sean una sola unidad atómica.
// El caller es responsable de haber validado la entrada (validate) y del commit.
func (s *Service) PostMovementInTx(
	movRepo repository.MovementRepository,
	stockRepo repository.StockPositionRepository,
	input MovementInput,
) (*entity.MovementEntry, error) {
	// Bloquea la fila de la posición (SELECT FOR UPDATE): dos posteos
	// concurrentes sobre el mismo par no pueden leer la misma cantidad inicial.
	position, err := stockRepo.GetForUpdate(input.ProductID, input.BranchID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = entity.NewStockPosition(input.ProductID, input.BranchID)
	}

	newQty := position.Quantity + input.Quantity
	if newQty < 0 {
		return nil, &domain.InsufficientStockError{
			ProductID: input.ProductID,
			BranchID:  input.BranchID,
			Requested: -input.Quantity,
			Available: position.Quantity,
		}
	}

	now := time.Now()
	position.Quantity = newQty
	position.LastMovementAt = &now
	position.UpdatedAt = now
	if err := stockRepo.Upsert(position); err != nil {
		return nil, err
	}

	entry := &entity.MovementEntry{
		ProductID:  input.ProductID,
		BranchID:   input.BranchID,
		OccurredAt: now,
		Cause:      input.Cause,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		UserID:     input.UserID,
		Ref:        input.Ref,
		Note:       input.Note,
		CreatedAt:  now,
	}
	if err := movRepo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ValidateInput expone la validación de entrada para callers que postean dentro
// de su propia transacción (motor de transferencias, integradores de documentos).
func (s *Service) ValidateInput(input MovementInput) error {
	return s.validate(input)
}

// GetStock devuelve la posición actual del par. Si el par nunca se vio,
// materializa la posición vacía (cantidad 0) sin registrar movimiento alguno.
func (s *Service) GetStock(ctx context.Context, productID, branchID string) (*entity.StockPosition, error) {
	if productID == "" || branchID == "" {
		return nil, domain.ErrInvalidInput
	}
	position, err := s.stockRepo.Get(productID, branchID)
	if err != nil {
		return nil, err
	}
	if position != nil {
		return position, nil
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownProduct
	}
	branch, err := s.branchRepo.GetByID(branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrUnknownBranch
	}
	position = entity.NewStockPosition(productID, branchID)
	position.UpdatedAt = time.Now()
	// Inserción condicional + relectura: si un movimiento concurrente creó la
	// fila entre la lectura inicial y aquí, su cantidad no se pisa con cero.
	if err := s.stockRepo.InsertIfAbsent(position); err != nil {
		return nil, err
	}
	current, err := s.stockRepo.Get(productID, branchID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	return position, nil
}

// ListMovements lista los asientos del par, más recientes primero, reanudable
// por offset. cause vacío lista todas las causas.
func (s *Service) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementEntry, error) {
	if filter.ProductID == "" || filter.BranchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Cause != "" && !entity.ValidCause(filter.Cause) {
		return nil, domain.ErrInvalidCause
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.movRepo.List(filter)
}

// RecomputeQuantity suma todos los deltas del log para el par. Por la ley de
// recomputación el resultado debe coincidir con GetStock; se expone para
// auditoría y tests.
func (s *Service) RecomputeQuantity(ctx context.Context, productID, branchID string) (int64, error) {
	return s.movRepo.SumDeltas(productID, branchID)
}
