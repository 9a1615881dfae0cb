package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

var _ repository.StockPositionRepository = (*StockPositionRepo)(nil)

// StockPositionRepo implementación de StockPositionRepository sobre PostgreSQL
// (usable con pool o tx).
type StockPositionRepo struct {
	q Querier
}

// NewStockPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockPositionRepository(q Querier) *StockPositionRepo {
	return &StockPositionRepo{q: q}
}

const positionColumns = `product_id, branch_id, quantity, min_stock, max_stock, location, last_movement_at, active, updated_at`

// Get obtiene la posición; devuelve nil si el par nunca se vio.
func (r *StockPositionRepo) Get(productID, branchID string) (*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE product_id = $1 AND branch_id = $2`
	p, err := scanPosition(r.q.QueryRow(context.Background(), query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock position: %w", err)
	}
	return p, nil
}

// GetForUpdate obtiene la posición bloqueando la fila (SELECT FOR UPDATE).
// Pares distintos usan filas distintas y no se bloquean entre sí.
func (r *StockPositionRepo) GetForUpdate(productID, branchID string) (*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + ` FROM stock_positions WHERE product_id = $1 AND branch_id = $2 FOR UPDATE`
	p, err := scanPosition(r.q.QueryRow(context.Background(), query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock position for update: %w", err)
	}
	return p, nil
}

// Upsert inserta o actualiza la posición por (producto, sucursal).
func (r *StockPositionRepo) Upsert(position *entity.StockPosition) error {
	query := `
		INSERT INTO stock_positions (product_id, branch_id, quantity, min_stock, max_stock, location, last_movement_at, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_movement_at = EXCLUDED.last_movement_at, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		position.ProductID, position.BranchID, position.Quantity,
		position.MinStock, position.MaxStock, position.Location,
		position.LastMovementAt, position.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert stock position: %w", err)
	}
	return nil
}

// InsertIfAbsent materializa la posición solo si no existe fila para el par.
// ON CONFLICT DO NOTHING: si un movimiento concurrente ya creó la fila, la
// cantidad que dejó queda intacta.
func (r *StockPositionRepo) InsertIfAbsent(position *entity.StockPosition) error {
	query := `
		INSERT INTO stock_positions (product_id, branch_id, quantity, min_stock, max_stock, location, last_movement_at, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (product_id, branch_id) DO NOTHING`
	_, err := r.q.Exec(context.Background(), query,
		position.ProductID, position.BranchID, position.Quantity,
		position.MinStock, position.MaxStock, position.Location,
		position.LastMovementAt, position.Active,
	)
	if err != nil {
		return fmt.Errorf("insert stock position: %w", err)
	}
	return nil
}

// UpdateThresholds cambia mínimos/máximos/ubicación sin tocar la cantidad.
func (r *StockPositionRepo) UpdateThresholds(productID, branchID string, minStock, maxStock int64, location string) error {
	query := `
		UPDATE stock_positions
		SET min_stock = $3, max_stock = $4, location = $5, updated_at = now()
		WHERE product_id = $1 AND branch_id = $2`
	tag, err := r.q.Exec(context.Background(), query, productID, branchID, minStock, maxStock, location)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Par nunca visto: materializar la posición vacía con sus umbrales.
		query = `
			INSERT INTO stock_positions (product_id, branch_id, quantity, min_stock, max_stock, location, active, updated_at)
			VALUES ($1, $2, 0, $3, $4, $5, true, now())
			ON CONFLICT (product_id, branch_id) DO NOTHING`
		if _, err := r.q.Exec(context.Background(), query, productID, branchID, minStock, maxStock, location); err != nil {
			return fmt.Errorf("insert thresholds: %w", err)
		}
	}
	return nil
}

// Deactivate baja lógica de la posición.
func (r *StockPositionRepo) Deactivate(productID, branchID string) error {
	query := `UPDATE stock_positions SET active = false, updated_at = now() WHERE product_id = $1 AND branch_id = $2`
	_, err := r.q.Exec(context.Background(), query, productID, branchID)
	if err != nil {
		return fmt.Errorf("deactivate stock position: %w", err)
	}
	return nil
}

// ListByBranch lista posiciones de una sucursal.
func (r *StockPositionRepo) ListByBranch(branchID string, limit, offset int) ([]*entity.StockPosition, error) {
	query := `SELECT ` + positionColumns + `
		FROM stock_positions WHERE branch_id = $1
		ORDER BY product_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by branch: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock position: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListBelowMinimum devuelve posiciones activas en o bajo stock mínimo,
// mayor déficit primero (índice secundario de reposición). branchID vacío
// consulta todas las sucursales.
func (r *StockPositionRepo) ListBelowMinimum(branchID string, limit, offset int) ([]repository.LowStockItem, error) {
	query := `
		SELECT s.product_id, p.sku, p.name, s.branch_id, s.quantity, s.min_stock, s.max_stock
		FROM stock_positions s
		JOIN products p ON p.id = s.product_id
		WHERE s.active AND s.quantity <= s.min_stock`
	args := []any{}
	pos := 1
	if branchID != "" {
		query += fmt.Sprintf(" AND s.branch_id = $%d", pos)
		args = append(args, branchID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY (s.min_stock - s.quantity) DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list below minimum: %w", err)
	}
	defer rows.Close()

	var list []repository.LowStockItem
	for rows.Next() {
		var item repository.LowStockItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.ProductName, &item.BranchID,
			&item.Quantity, &item.MinStock, &item.MaxStock); err != nil {
			return nil, fmt.Errorf("scan low stock item: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func scanPosition(row pgx.Row) (*entity.StockPosition, error) {
	var p entity.StockPosition
	err := row.Scan(
		&p.ProductID, &p.BranchID, &p.Quantity, &p.MinStock, &p.MaxStock,
		&p.Location, &p.LastMovementAt, &p.Active, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
