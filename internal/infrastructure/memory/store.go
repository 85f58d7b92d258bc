// Package memory almacén transaccional en memoria para pruebas y ejecuciones locales.
// Cada transacción trabaja sobre una copia del estado y solo se publica al confirmar,
// así un fallo a mitad de camino no deja rastro.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado completo del libro y de los datos de referencia.
type Store struct {
	mu   sync.Mutex // serializa transacciones y lecturas
	data *state

	faultMu sync.Mutex
	faults  map[string]error
}

type state struct {
	movements  map[string]*entity.InventoryMovement
	balances   map[entity.BalanceKey]*entity.InventoryBalance
	warehouses map[entity.WarehouseID]*entity.Warehouse
	suppliers  []*entity.Supplier
	shifts     []*entity.Shift
	receipts   []*entity.Receipt
	items      map[string]*entity.StockItem
	recipes    map[string]*entity.Recipe
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{
		data: &state{
			movements:  make(map[string]*entity.InventoryMovement),
			balances:   make(map[entity.BalanceKey]*entity.InventoryBalance),
			warehouses: make(map[entity.WarehouseID]*entity.Warehouse),
			items:      make(map[string]*entity.StockItem),
			recipes:    make(map[string]*entity.Recipe),
		},
		faults: make(map[string]error),
	}
}

// clone copia lo que las transacciones pueden modificar; los datos de referencia se comparten.
func (s *state) clone() *state {
	c := *s
	c.movements = make(map[string]*entity.InventoryMovement, len(s.movements))
	for id, m := range s.movements {
		c.movements[id] = m.Clone()
	}
	c.balances = make(map[entity.BalanceKey]*entity.InventoryBalance, len(s.balances))
	for k, b := range s.balances {
		cp := *b
		c.balances[k] = &cp
	}
	return &c
}

// Run ejecuta fn sobre una copia del estado; si fn no falla la copia reemplaza al estado.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, stores inventory.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, s.stores(scope{store: s, st: work})); err != nil {
		return err
	}
	if err := s.fault("commit"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.data = work
	return nil
}

// Stores repositorios fuera de transacción (lecturas y consultas).
func (s *Store) Stores() inventory.Stores {
	return s.stores(scope{store: s})
}

func (s *Store) stores(sc scope) inventory.Stores {
	return inventory.Stores{
		Movements:  &MovementRepo{sc: sc},
		Balances:   &BalanceRepo{sc: sc},
		Warehouses: &WarehouseRepo{sc: sc},
		Sales:      &SalesRepo{sc: sc},
		Catalog:    &CatalogRepo{sc: sc},
	}
}

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{sc: scope{store: s}} }

// Shifts repositorio de turnos de caja.
func (s *Store) Shifts() *ShiftRepo { return &ShiftRepo{sc: scope{store: s}} }

// FailOn hace que la operación op ("movements.create", "balances.adjust", "commit", ...)
// devuelva err hasta que se llame ClearFaults.
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults elimina los fallos inyectados.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = make(map[string]error)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults[op]
}

// AddWarehouse registra una bodega en el directorio.
func (s *Store) AddWarehouse(w *entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.warehouses[w.ID] = w
}

// AddSupplier registra un proveedor.
func (s *Store) AddSupplier(sup *entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.suppliers = append(s.data.suppliers, sup)
}

// AddShift registra un turno de caja.
func (s *Store) AddShift(sh *entity.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.shifts = append(s.data.shifts, sh)
}

// AddReceipt registra un recibo del POS.
func (s *Store) AddReceipt(r *entity.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.receipts = append(s.data.receipts, r)
	sort.SliceStable(s.data.receipts, func(i, j int) bool {
		return s.data.receipts[i].Date.Before(s.data.receipts[j].Date)
	})
}

// AddStockItem registra un insumo con stock.
func (s *Store) AddStockItem(it *entity.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.items[string(it.ID)] = it
}

// AddRecipe registra una receta.
func (s *Store) AddRecipe(r *entity.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.recipes[r.ID] = r
}

// Balances copia de todos los saldos (pruebas).
func (s *Store) Balances() map[entity.BalanceKey]entity.InventoryBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[entity.BalanceKey]entity.InventoryBalance, len(s.data.balances))
	for k, b := range s.data.balances {
		out[k] = *b
	}
	return out
}

// Movement copia de un movimiento o nil.
func (s *Store) Movement(id string) *entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.movements[id].Clone()
}

// scope decide sobre qué estado opera un repositorio: el de la transacción (st != nil,
// el mutex ya lo tiene Run) o el publicado.
type scope struct {
	store *Store
	st    *state
}

func (sc scope) do(op string, fn func(st *state) error) error {
	if err := sc.store.fault(op); err != nil {
		return err
	}
	if sc.st != nil {
		return fn(sc.st)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.data)
}
