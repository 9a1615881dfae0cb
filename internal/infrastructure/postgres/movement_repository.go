package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del log de movimientos sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, branch_id, occurred_at, cause, quantity, unit_cost, user_id, ref_type, ref_id, note, created_at`

// Create persiste el asiento y completa movement.ID con el id autoincremental.
func (r *MovementRepo) Create(movement *entity.MovementEntry) error {
	query := `
		INSERT INTO movements (product_id, branch_id, occurred_at, cause, quantity, unit_cost, user_id, ref_type, ref_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var refType, refID *string
	if movement.Ref != nil {
		refType = &movement.Ref.Type
		refID = &movement.Ref.ID
	}
	err := r.q.QueryRow(context.Background(), query,
		movement.ProductID, movement.BranchID, movement.OccurredAt, movement.Cause,
		movement.Quantity, movement.UnitCost, movement.UserID, refType, refID,
		movement.Note, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por id.
func (r *MovementRepo) GetByID(id int64) (*entity.MovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List lista asientos del par (producto, sucursal), más recientes primero.
func (r *MovementRepo) List(filter repository.MovementFilter) ([]*entity.MovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE product_id = $1 AND branch_id = $2`
	args := []any{filter.ProductID, filter.BranchID}
	pos := 3
	if filter.From != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	if filter.Cause != "" {
		query += fmt.Sprintf(" AND cause = $%d", pos)
		args = append(args, filter.Cause)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.MovementEntry
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SumDeltas suma todos los deltas del par (ley de recomputación).
func (r *MovementRepo) SumDeltas(productID, branchID string) (int64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM movements WHERE product_id = $1 AND branch_id = $2`
	var sum int64
	if err := r.q.QueryRow(context.Background(), query, productID, branchID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var m entity.MovementEntry
	var refType, refID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.BranchID, &m.OccurredAt, &m.Cause,
		&m.Quantity, &m.UnitCost, &m.UserID, &refType, &refID,
		&m.Note, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refType != nil && refID != nil {
		m.Ref = &entity.MovementRef{Type: *refType, ID: *refID}
	}
	return &m, nil
}
