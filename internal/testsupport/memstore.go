// Package testsupport provee repositorios en memoria y un TxRunner con
// semántica de transacción (snapshot + rollback) para probar los casos de uso
// sin PostgreSQL.
package testsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/application/transfer"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// Store guarda todo el estado en memoria. Las entidades se copian al entrar y
// al salir: lo que un caso de uso mute fuera de un write explícito no se persiste.
type Store struct {
	mu sync.Mutex

	branches  map[string]*entity.Branch
	products  map[string]*entity.Product
	users     map[string]*entity.User
	positions map[string]*entity.StockPosition // clave productID|branchID
	movements []entity.MovementEntry
	nextMovID int64

	transfers   map[string]*entity.Transfer
	lines       map[string][]entity.TransferLine // por transferID, en orden de alta
	transferSeq int
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		branches:  map[string]*entity.Branch{},
		products:  map[string]*entity.Product{},
		users:     map[string]*entity.User{},
		positions: map[string]*entity.StockPosition{},
		transfers: map[string]*entity.Transfer{},
		lines:     map[string][]entity.TransferLine{},
	}
}

func posKey(productID, branchID string) string { return productID + "|" + branchID }

// SeedBranch registra una sucursal activa.
func (s *Store) SeedBranch(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[id] = &entity.Branch{ID: id, Name: name, Active: true}
}

// SeedProduct registra un producto activo.
func (s *Store) SeedProduct(id, sku, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &entity.Product{ID: id, SKU: sku, Name: name, Active: true}
}

// SeedPosition fija directamente una posición de stock (sin pasar por el ledger).
func (s *Store) SeedPosition(productID, branchID string, quantity, minStock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[posKey(productID, branchID)] = &entity.StockPosition{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  quantity,
		MinStock:  minStock,
		Active:    true,
	}
}

// snapshot copia el estado mutable para poder revertir una transacción fallida.
type snapshot struct {
	positions   map[string]*entity.StockPosition
	movCount    int
	nextMovID   int64
	transfers   map[string]*entity.Transfer
	lines       map[string][]entity.TransferLine
	transferSeq int
}

func (s *Store) take() snapshot {
	snap := snapshot{
		positions:   make(map[string]*entity.StockPosition, len(s.positions)),
		movCount:    len(s.movements),
		nextMovID:   s.nextMovID,
		transfers:   make(map[string]*entity.Transfer, len(s.transfers)),
		lines:       make(map[string][]entity.TransferLine, len(s.lines)),
		transferSeq: s.transferSeq,
	}
	for k, v := range s.positions {
		cp := *v
		snap.positions[k] = &cp
	}
	for k, v := range s.transfers {
		cp := *v
		snap.transfers[k] = &cp
	}
	for k, v := range s.lines {
		snap.lines[k] = append([]entity.TransferLine(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.positions = snap.positions
	s.movements = s.movements[:snap.movCount]
	s.nextMovID = snap.nextMovID
	s.transfers = snap.transfers
	s.lines = snap.lines
	s.transferSeq = snap.transferSeq
}

// ─────────────────────────────────────────────────────────────────────────────
// Repositorios
// ─────────────────────────────────────────────────────────────────────────────

// BranchRepo devuelve el repositorio de sucursales sobre el Store.
func (s *Store) BranchRepo() repository.BranchRepository { return &branchRepo{s} }

type branchRepo struct{ s *Store }

func (r *branchRepo) Create(b *entity.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.branches[b.ID] = &cp
	return nil
}

func (r *branchRepo) GetByID(id string) (*entity.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *branchRepo) Update(b *entity.Branch) error { return r.Create(b) }

func (r *branchRepo) List(limit, offset int) ([]*entity.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Branch, 0, len(r.s.branches))
	for _, b := range r.s.branches {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// ProductRepo devuelve el repositorio de productos sobre el Store.
func (s *Store) ProductRepo() repository.ProductRepository { return &productRepo{s} }

type productRepo struct{ s *Store }

func (r *productRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *productRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetBySKU(sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *productRepo) Update(p *entity.Product) error { return r.Create(p) }

func (r *productRepo) List(search string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if search != "" && !strings.Contains(p.SKU, search) && !strings.Contains(p.Name, search) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, limit, offset), nil
}

// UserRepo devuelve el repositorio de usuarios sobre el Store.
func (s *Store) UserRepo() repository.UserRepository { return &userRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) FindByEmail(email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// StockRepo devuelve el repositorio de posiciones sobre el Store.
func (s *Store) StockRepo() repository.StockPositionRepository { return &stockRepo{s} }

type stockRepo struct{ s *Store }

func (r *stockRepo) Get(productID, branchID string) (*entity.StockPosition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.positions[posKey(productID, branchID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// GetForUpdate en memoria equivale a Get: la serialización la da el TxRunner.
func (r *stockRepo) GetForUpdate(productID, branchID string) (*entity.StockPosition, error) {
	return r.Get(productID, branchID)
}

func (r *stockRepo) Upsert(position *entity.StockPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := posKey(position.ProductID, position.BranchID)
	cp := *position
	if existing, ok := r.s.positions[key]; ok {
		cp.MinStock = existing.MinStock
		cp.MaxStock = existing.MaxStock
		cp.Location = existing.Location
	}
	r.s.positions[key] = &cp
	return nil
}

func (r *stockRepo) InsertIfAbsent(position *entity.StockPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := posKey(position.ProductID, position.BranchID)
	if _, ok := r.s.positions[key]; ok {
		return nil
	}
	cp := *position
	r.s.positions[key] = &cp
	return nil
}

func (r *stockRepo) UpdateThresholds(productID, branchID string, minStock, maxStock int64, location string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := posKey(productID, branchID)
	p, ok := r.s.positions[key]
	if !ok {
		p = entity.NewStockPosition(productID, branchID)
		r.s.positions[key] = p
	}
	p.MinStock = minStock
	p.MaxStock = maxStock
	if location != "" {
		p.Location = location
	}
	return nil
}

func (r *stockRepo) Deactivate(productID, branchID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.positions[posKey(productID, branchID)]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	return nil
}

func (r *stockRepo) ListByBranch(branchID string, limit, offset int) ([]*entity.StockPosition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.StockPosition{}
	for _, p := range r.s.positions {
		if p.BranchID == branchID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return page(out, limit, offset), nil
}

func (r *stockRepo) ListBelowMinimum(branchID string, limit, offset int) ([]repository.LowStockItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []repository.LowStockItem{}
	for _, p := range r.s.positions {
		if !p.Active || p.Quantity > p.MinStock {
			continue
		}
		if branchID != "" && p.BranchID != branchID {
			continue
		}
		item := repository.LowStockItem{
			ProductID: p.ProductID,
			BranchID:  p.BranchID,
			Quantity:  p.Quantity,
			MinStock:  p.MinStock,
			MaxStock:  p.MaxStock,
		}
		if prod, ok := r.s.products[p.ProductID]; ok {
			item.SKU = prod.SKU
			item.ProductName = prod.Name
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MinStock-out[i].Quantity > out[j].MinStock-out[j].Quantity
	})
	return page(out, limit, offset), nil
}

// MovementRepo devuelve el repositorio del log de movimientos sobre el Store.
func (s *Store) MovementRepo() repository.MovementRepository { return &movementRepo{s} }

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(m *entity.MovementEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMovID++
	m.ID = r.s.nextMovID
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *movementRepo) GetByID(id int64) (*entity.MovementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.movements {
		if r.s.movements[i].ID == id {
			cp := r.s.movements[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) List(filter repository.MovementFilter) ([]*entity.MovementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.MovementEntry{}
	// Más recientes primero: el log en memoria está en orden de inserción.
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.ProductID != filter.ProductID || m.BranchID != filter.BranchID {
			continue
		}
		if filter.Cause != "" && m.Cause != filter.Cause {
			continue
		}
		if filter.From != nil && m.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.OccurredAt.After(*filter.To) {
			continue
		}
		cp := m
		out = append(out, &cp)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *movementRepo) SumDeltas(productID, branchID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.BranchID == branchID {
			sum += m.Quantity
		}
	}
	return sum, nil
}

// TransferRepo devuelve el repositorio de transferencias sobre el Store.
func (s *Store) TransferRepo() repository.TransferRepository { return &transferRepo{s} }

type transferRepo struct{ s *Store }

func (r *transferRepo) Create(t *entity.Transfer, lines []*entity.TransferLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transferSeq++
	t.Number = fmt.Sprintf("TR-%06d", r.s.transferSeq)
	cp := *t
	r.s.transfers[t.ID] = &cp
	stored := make([]entity.TransferLine, 0, len(lines))
	for _, l := range lines {
		stored = append(stored, *l)
	}
	r.s.lines[t.ID] = stored
	return nil
}

func (r *transferRepo) GetByID(id string) (*entity.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *transferRepo) GetForUpdate(id string) (*entity.Transfer, error) {
	return r.GetByID(id)
}

func (r *transferRepo) GetLines(transferID string) ([]*entity.TransferLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.lines[transferID]
	out := make([]*entity.TransferLine, 0, len(stored))
	for i := range stored {
		cp := stored[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *transferRepo) GetLineForUpdate(transferID, lineID string) (*entity.TransferLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines[transferID] {
		if l.ID == lineID {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *transferRepo) UpdateStatus(t *entity.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.transfers[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = t.Status
	existing.ApprovedBy = t.ApprovedBy
	existing.ExecutedAt = t.ExecutedAt
	existing.Notes = t.Notes
	return nil
}

func (r *transferRepo) SetLineReceived(transferID, lineID string, receivedQty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.lines[transferID]
	for i := range stored {
		if stored[i].ID == lineID {
			if stored[i].ReceivedQty != nil {
				return fmt.Errorf("set line received: línea no encontrada o ya resuelta")
			}
			qty := receivedQty
			stored[i].ReceivedQty = &qty
			return nil
		}
	}
	return fmt.Errorf("set line received: línea no encontrada o ya resuelta")
}

func (r *transferRepo) CountUnresolvedLines(transferID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, l := range r.s.lines[transferID] {
		if l.ReceivedQty == nil {
			n++
		}
	}
	return n, nil
}

func (r *transferRepo) List(filter repository.TransferFilter) ([]*entity.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Transfer{}
	for _, t := range r.s.transfers {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.OriginID != "" && t.OriginID != filter.OriginID {
			continue
		}
		if filter.DestinationID != "" && t.DestinationID != filter.DestinationID {
			continue
		}
		if filter.From != nil && t.RequestedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.RequestedAt.After(*filter.To) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ─────────────────────────────────────────────────────────────────────────────
// TxRunner
// ─────────────────────────────────────────────────────────────────────────────

// TxRunner serializa transacciones sobre el Store (equivalente funcional del
// FOR UPDATE de fila: dos transacciones sobre el mismo Store nunca se solapan)
// y revierte el estado si el callback falla. ConflictsLeft permite inyectar
// conflictos de concurrencia para probar la política de reintentos.
type TxRunner struct {
	Store *Store

	txMu          sync.Mutex
	ConflictsLeft int
}

// NewTxRunner construye el runner sobre el Store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{Store: store}
}

var _ ledger.TxRunner = (*TxRunner)(nil)
var _ transfer.TxRunner = (*TxRunner)(nil)

func (r *TxRunner) run(fn func() error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.Store.mu.Lock()
	snap := r.Store.take()
	r.Store.mu.Unlock()

	if err := fn(); err != nil {
		r.Store.mu.Lock()
		r.Store.restore(snap)
		r.Store.mu.Unlock()
		return err
	}
	if r.ConflictsLeft > 0 {
		r.ConflictsLeft--
		r.Store.mu.Lock()
		r.Store.restore(snap)
		r.Store.mu.Unlock()
		return fmt.Errorf("%w: conflicto simulado", domain.ErrConcurrentUpdate)
	}
	return nil
}

// Run ejecuta fn con repositorios "atados" a la transacción simulada.
func (r *TxRunner) Run(ctx context.Context, fn func(repository.MovementRepository, repository.StockPositionRepository) error) error {
	return r.run(func() error {
		return fn(r.Store.MovementRepo(), r.Store.StockRepo())
	})
}

// RunTransfer igual que Run pero incluyendo el repositorio de transferencias.
func (r *TxRunner) RunTransfer(ctx context.Context, fn func(repository.MovementRepository, repository.StockPositionRepository, repository.TransferRepository) error) error {
	return r.run(func() error {
		return fn(r.Store.MovementRepo(), r.Store.StockRepo(), r.Store.TransferRepo())
	})
}
