package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de TransferRepository sobre PostgreSQL
// (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, number, origin_branch_id, destination_branch_id, requested_at, executed_at, status, requested_by, approved_by, notes`

// Create persiste la transferencia con sus líneas. El número legible sale de la
// secuencia transfer_number_seq ("TR-000042").
func (r *TransferRepo) Create(transfer *entity.Transfer, lines []*entity.TransferLine) error {
	query := `
		INSERT INTO transfers (id, number, origin_branch_id, destination_branch_id, requested_at, status, requested_by, notes)
		VALUES ($1, 'TR-' || lpad(nextval('transfer_number_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7)
		RETURNING number`
	err := r.q.QueryRow(context.Background(), query,
		transfer.ID, transfer.OriginID, transfer.DestinationID,
		transfer.RequestedAt, transfer.Status, transfer.RequestedBy, transfer.Notes,
	).Scan(&transfer.Number)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	for _, line := range lines {
		query := `
			INSERT INTO transfer_lines (id, transfer_id, product_id, requested_qty)
			VALUES ($1, $2, $3, $4)`
		if _, err := r.q.Exec(context.Background(), query,
			line.ID, transfer.ID, line.ProductID, line.RequestedQty); err != nil {
			return fmt.Errorf("create transfer line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una transferencia por id, sin líneas.
func (r *TransferRepo) GetByID(id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	t, err := scanTransfer(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// GetForUpdate obtiene la transferencia bloqueando la fila, para serializar
// transiciones concurrentes sobre la misma transferencia.
func (r *TransferRepo) GetForUpdate(id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 FOR UPDATE`
	t, err := scanTransfer(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer for update: %w", err)
	}
	return t, nil
}

// GetLines obtiene las líneas de la transferencia.
func (r *TransferRepo) GetLines(transferID string) ([]*entity.TransferLine, error) {
	query := `
		SELECT id, transfer_id, product_id, requested_qty, received_qty
		FROM transfer_lines WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, transferID)
	if err != nil {
		return nil, fmt.Errorf("get transfer lines: %w", err)
	}
	defer rows.Close()

	var list []*entity.TransferLine
	for rows.Next() {
		var l entity.TransferLine
		if err := rows.Scan(&l.ID, &l.TransferID, &l.ProductID, &l.RequestedQty, &l.ReceivedQty); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetLineForUpdate obtiene una línea bloqueando la fila.
func (r *TransferRepo) GetLineForUpdate(transferID, lineID string) (*entity.TransferLine, error) {
	query := `
		SELECT id, transfer_id, product_id, requested_qty, received_qty
		FROM transfer_lines WHERE transfer_id = $1 AND id = $2 FOR UPDATE`
	var l entity.TransferLine
	err := r.q.QueryRow(context.Background(), query, transferID, lineID).Scan(
		&l.ID, &l.TransferID, &l.ProductID, &l.RequestedQty, &l.ReceivedQty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer line for update: %w", err)
	}
	return &l, nil
}

// UpdateStatus persiste estado, autorizador, fecha de ejecución y notas.
func (r *TransferRepo) UpdateStatus(transfer *entity.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $2, approved_by = $3, executed_at = $4, notes = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		transfer.ID, transfer.Status, transfer.ApprovedBy, transfer.ExecutedAt, transfer.Notes)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	return nil
}

// SetLineReceived fija la cantidad recibida de una línea aún no resuelta.
// La cláusula received_qty IS NULL hace la inmutabilidad efectiva también a
// nivel de SQL, no solo en el caso de uso.
func (r *TransferRepo) SetLineReceived(transferID, lineID string, receivedQty int64) error {
	query := `
		UPDATE transfer_lines SET received_qty = $3
		WHERE transfer_id = $1 AND id = $2 AND received_qty IS NULL`
	tag, err := r.q.Exec(context.Background(), query, transferID, lineID, receivedQty)
	if err != nil {
		return fmt.Errorf("set line received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set line received: línea no encontrada o ya resuelta")
	}
	return nil
}

// CountUnresolvedLines cuenta líneas sin cantidad recibida.
func (r *TransferRepo) CountUnresolvedLines(transferID string) (int, error) {
	query := `SELECT count(*) FROM transfer_lines WHERE transfer_id = $1 AND received_qty IS NULL`
	var n int
	if err := r.q.QueryRow(context.Background(), query, transferID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unresolved lines: %w", err)
	}
	return n, nil
}

// List lista transferencias con filtros, más recientes primero.
func (r *TransferRepo) List(filter repository.TransferFilter) ([]*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.OriginID != "" {
		query += fmt.Sprintf(" AND origin_branch_id = $%d", pos)
		args = append(args, filter.OriginID)
		pos++
	}
	if filter.DestinationID != "" {
		query += fmt.Sprintf(" AND destination_branch_id = $%d", pos)
		args = append(args, filter.DestinationID)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND requested_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND requested_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var list []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	err := row.Scan(
		&t.ID, &t.Number, &t.OriginID, &t.DestinationID, &t.RequestedAt,
		&t.ExecutedAt, &t.Status, &t.RequestedBy, &t.ApprovedBy, &t.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
