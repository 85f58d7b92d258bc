package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*MovementRepo)(nil)
	_ repository.InventoryBalanceRepository  = (*BalanceRepo)(nil)
	_ repository.WarehouseRepository         = (*WarehouseRepo)(nil)
	_ repository.SupplierRepository          = (*SupplierRepo)(nil)
	_ repository.ShiftRepository             = (*ShiftRepo)(nil)
	_ repository.SalesRepository             = (*SalesRepo)(nil)
	_ repository.CatalogRepository           = (*CatalogRepo)(nil)
)

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct{ sc scope }

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.sc.do("movements.create", func(st *state) error {
		if _, ok := st.movements[m.ID]; ok {
			return fmt.Errorf("create inventory movement: id duplicado %s", m.ID)
		}
		st.movements[m.ID] = m.Clone()
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.sc.do("movements.get", func(st *state) error {
		out = st.movements[id].Clone()
		return nil
	})
	return out, err
}

// GetByIDForUpdate lee igual que GetByID: Run ya serializa todas las transacciones.
func (r *MovementRepo) GetByIDForUpdate(_ context.Context, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.sc.do("movements.get_for_update", func(st *state) error {
		out = st.movements[id].Clone()
		return nil
	})
	return out, err
}

func (r *MovementRepo) Update(_ context.Context, m *entity.InventoryMovement) error {
	return r.sc.do("movements.update", func(st *state) error {
		if _, ok := st.movements[m.ID]; !ok {
			return fmt.Errorf("update inventory movement: %s no existe", m.ID)
		}
		st.movements[m.ID] = m.Clone()
		return nil
	})
}

func (r *MovementRepo) SetDeleted(_ context.Context, id string, deleted bool, at time.Time) error {
	return r.sc.do("movements.set_deleted", func(st *state) error {
		m, ok := st.movements[id]
		if !ok {
			return fmt.Errorf("set deleted: %s no existe", id)
		}
		m.IsDeleted = deleted
		m.UpdatedAt = at
		return nil
	})
}

func (r *MovementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.sc.do("movements.list", func(st *state) error {
		for _, m := range st.movements {
			if matches(m, f) {
				out = append(out, m.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.InventoryMovement{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MovementRepo) Count(_ context.Context, f entity.MovementFilter) (int, error) {
	n := 0
	err := r.sc.do("movements.count", func(st *state) error {
		for _, m := range st.movements {
			if matches(m, f) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func matches(m *entity.InventoryMovement, f entity.MovementFilter) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID && m.ToWarehouseID != f.WarehouseID {
		return false
	}
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}
	if f.IsDeleted != nil && m.IsDeleted != *f.IsDeleted {
		return false
	}
	if f.ItemID != "" {
		for _, it := range m.Items {
			if it.ItemID == f.ItemID {
				return true
			}
		}
		return false
	}
	return true
}

func (r *MovementRepo) LatestInventory(_ context.Context, warehouseID entity.WarehouseID) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.sc.do("movements.latest_inventory", func(st *state) error {
		for _, m := range st.movements {
			if m.Type != entity.MovementTypeInventory || m.IsDeleted || m.WarehouseID != warehouseID {
				continue
			}
			if out == nil || inventory.ReplayBefore(out, m) {
				out = m
			}
		}
		out = out.Clone()
		return nil
	})
	return out, err
}

// LockWriter no hace nada: Run ya serializa todas las transacciones.
func (r *MovementRepo) LockWriter(context.Context) error {
	return r.sc.do("movements.lock_writer", func(*state) error { return nil })
}

// LockWarehouses no hace nada: Run ya serializa todas las transacciones.
func (r *MovementRepo) LockWarehouses(context.Context, ...entity.WarehouseID) error {
	return r.sc.do("movements.lock_warehouses", func(*state) error { return nil })
}

// LockAll no hace nada: Run ya serializa todas las transacciones.
func (r *MovementRepo) LockAll(context.Context) error {
	return r.sc.do("movements.lock_all", func(*state) error { return nil })
}

func (r *MovementRepo) DeleteByType(_ context.Context, t entity.MovementType) (int64, error) {
	var n int64
	err := r.sc.do("movements.delete_by_type", func(st *state) error {
		for id, m := range st.movements {
			if m.Type == t {
				delete(st.movements, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *MovementRepo) ListForReplay(_ context.Context) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.sc.do("movements.list_for_replay", func(st *state) error {
		for _, m := range st.movements {
			if !m.IsDeleted {
				out = append(out, m.Clone())
			}
		}
		return nil
	})
	inventory.SortForReplay(out)
	return out, err
}

// BalanceRepo almacén de saldos en memoria.
type BalanceRepo struct{ sc scope }

func (r *BalanceRepo) Adjust(_ context.Context, d entity.BalanceDelta) error {
	return r.sc.do("balances.adjust", func(st *state) error {
		b := st.row(d.Key)
		b.Quantity = b.Quantity.Add(d.Qty)
		if d.LastCost != nil {
			b.LastCost = *d.LastCost
		}
		if d.ItemName != "" {
			b.ItemName = d.ItemName
		}
		if d.Unit != "" {
			b.Unit = d.Unit
		}
		b.UpdatedAt = time.Now()
		return nil
	})
}

func (r *BalanceRepo) GetForUpdate(_ context.Context, key entity.BalanceKey) (*entity.InventoryBalance, error) {
	var out entity.InventoryBalance
	err := r.sc.do("balances.get_for_update", func(st *state) error {
		out = *st.row(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (st *state) row(key entity.BalanceKey) *entity.InventoryBalance {
	b, ok := st.balances[key]
	if !ok {
		b = &entity.InventoryBalance{WarehouseID: key.WarehouseID, ItemID: key.ItemID, Quantity: decimal.Zero, LastCost: decimal.Zero}
		st.balances[key] = b
	}
	return b
}

func (r *BalanceRepo) List(_ context.Context, warehouseID entity.WarehouseID) ([]*entity.InventoryBalance, error) {
	var out []*entity.InventoryBalance
	err := r.sc.do("balances.list", func(st *state) error {
		for _, b := range st.balances {
			if warehouseID == "" || b.WarehouseID == warehouseID {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		if !strings.EqualFold(out[i].ItemName, out[j].ItemName) {
			return strings.ToLower(out[i].ItemName) < strings.ToLower(out[j].ItemName)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, err
}

func (r *BalanceRepo) DeleteAll(_ context.Context) error {
	return r.sc.do("balances.delete_all", func(st *state) error {
		st.balances = make(map[entity.BalanceKey]*entity.InventoryBalance)
		return nil
	})
}

func (r *BalanceRepo) InsertAll(_ context.Context, balances []*entity.InventoryBalance) error {
	return r.sc.do("balances.insert_all", func(st *state) error {
		for _, b := range balances {
			if _, ok := st.balances[b.Key()]; ok {
				return fmt.Errorf("insert balances: clave duplicada %s/%s", b.WarehouseID, b.ItemID)
			}
			cp := *b
			st.balances[b.Key()] = &cp
		}
		return nil
	})
}

// WarehouseRepo directorio de bodegas.
type WarehouseRepo struct{ sc scope }

func (r *WarehouseRepo) GetByID(_ context.Context, id entity.WarehouseID) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.sc.do("warehouses.get", func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			cp := *w
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) List(_ context.Context) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.sc.do("warehouses.list", func(st *state) error {
		for _, w := range st.warehouses {
			cp := *w
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// SupplierRepo directorio de proveedores.
type SupplierRepo struct{ sc scope }

func (r *SupplierRepo) List(_ context.Context) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.sc.do("suppliers.list", func(st *state) error {
		out = append(out, st.suppliers...)
		return nil
	})
	return out, err
}

// ShiftRepo turnos de caja.
type ShiftRepo struct{ sc scope }

func (r *ShiftRepo) CurrentOpen(_ context.Context) (*entity.Shift, error) {
	var out *entity.Shift
	err := r.sc.do("shifts.current_open", func(st *state) error {
		for _, sh := range st.shifts {
			if sh.ClosedAt != nil {
				continue
			}
			if out == nil || sh.OpenedAt.After(out.OpenedAt) {
				out = sh
			}
		}
		return nil
	})
	return out, err
}

// SalesRepo recibos del POS.
type SalesRepo struct{ sc scope }

func (r *SalesRepo) ListReceipts(_ context.Context) ([]*entity.Receipt, error) {
	var out []*entity.Receipt
	err := r.sc.do("sales.list_receipts", func(st *state) error {
		out = append(out, st.receipts...)
		return nil
	})
	return out, err
}

// CatalogRepo insumos y recetas.
type CatalogRepo struct{ sc scope }

func (r *CatalogRepo) GetStockItem(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.sc.do("catalog.get_stock_item", func(st *state) error {
		out = st.items[id]
		return nil
	})
	return out, err
}

func (r *CatalogRepo) GetRecipe(_ context.Context, id string) (*entity.Recipe, error) {
	var out *entity.Recipe
	err := r.sc.do("catalog.get_recipe", func(st *state) error {
		out = st.recipes[id]
		return nil
	})
	return out, err
}
