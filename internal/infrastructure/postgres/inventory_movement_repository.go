package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// ledgerLockKey clave del bloqueo consultivo del libro: compartido para escritores, exclusivo para la reconstrucción.
const ledgerLockKey = "inventory_ledger"

const movementColumns = `id, type, date, warehouse_id, to_warehouse_id, items, supplier_id, total_cost,
	payment_status, paid_amount, payment_method, money_account_id, description, reference_id,
	shift_id, is_deleted, created_at, updated_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario. Las líneas se guardan como JSONB.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err = r.q.Exec(ctx, query,
		m.ID, m.Type, m.Date, m.WarehouseID, m.ToWarehouseID, items, m.SupplierID, m.TotalCost,
		m.PaymentStatus, m.PaidAmount, m.PaymentMethod, m.MoneyAccountID, m.Description, m.ReferenceID,
		m.ShiftID, m.IsDeleted, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create inventory movement: id duplicado %s: %w", m.ID, err)
		}
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID. nil, nil si no existe.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetByIDForUpdate lee y bloquea la fila (SELECT FOR UPDATE). Si otra tx la tenía, se obtiene
// la versión ya confirmada. nil, nil si no existe.
func (r *InventoryMovementRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1 FOR UPDATE`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement for update: %w", err)
	}
	return m, nil
}

// Update reescribe los campos editables. El tipo, created_at e is_deleted no cambian.
func (r *InventoryMovementRepo) Update(ctx context.Context, m *entity.InventoryMovement) error {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	query := `
		UPDATE inventory_movements SET
			date = $2, warehouse_id = $3, to_warehouse_id = $4, items = $5, supplier_id = $6,
			total_cost = $7, payment_status = $8, paid_amount = $9, payment_method = $10,
			money_account_id = $11, description = $12, reference_id = $13, updated_at = $14
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		m.ID, m.Date, m.WarehouseID, m.ToWarehouseID, items, m.SupplierID,
		m.TotalCost, m.PaymentStatus, m.PaidAmount, m.PaymentMethod,
		m.MoneyAccountID, m.Description, m.ReferenceID, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update movement %s: %w", m.ID, pgx.ErrNoRows)
	}
	return nil
}

// SetDeleted marca o desmarca el borrado lógico.
func (r *InventoryMovementRepo) SetDeleted(ctx context.Context, id string, deleted bool, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE inventory_movements SET is_deleted = $2, updated_at = $3 WHERE id = $1`, id, deleted, at)
	if err != nil {
		return fmt.Errorf("set deleted: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("set deleted %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// List aplica los filtros y ordena por fecha descendente.
func (r *InventoryMovementRepo) List(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	query, args, err := buildMovementListQuery(filter)
	if err != nil {
		return nil, err
	}
	return r.queryMovements(ctx, "list movements", query, args...)
}

// Count total de movimientos que cumplen el filtro, sin límite ni offset.
func (r *InventoryMovementRepo) Count(ctx context.Context, filter entity.MovementFilter) (int, error) {
	query, args, err := buildMovementCountQuery(filter)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// LatestInventory inventario físico no eliminado más reciente de la bodega.
func (r *InventoryMovementRepo) LatestInventory(ctx context.Context, warehouseID entity.WarehouseID) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE type = $1 AND warehouse_id = $2 AND is_deleted = false
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, entity.MovementTypeInventory, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest inventory: %w", err)
	}
	return m, nil
}

// LockWriter toma el advisory lock del libro en modo compartido. Los escritores no se bloquean
// entre sí; solo esperan a una reconstrucción en curso.
func (r *InventoryMovementRepo) LockWriter(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock_shared(hashtext($1))`, ledgerLockKey); err != nil {
		return fmt.Errorf("lock ledger shared: %w", err)
	}
	return nil
}

// LockWarehouses toma un advisory lock transaccional por bodega, siempre en el mismo orden.
func (r *InventoryMovementRepo) LockWarehouses(ctx context.Context, ids ...entity.WarehouseID) error {
	for _, key := range warehouseLockKeys(ids) {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock warehouse %s: %w", key, err)
		}
	}
	return nil
}

// LockAll toma el advisory lock del libro en modo exclusivo y luego bloquea las tablas.
// El advisory va primero: un escritor que ya tiene filas bloqueadas también tiene el lado
// compartido, así que la reconstrucción espera antes de pedir las tablas.
func (r *InventoryMovementRepo) LockAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ledgerLockKey); err != nil {
		return fmt.Errorf("lock ledger exclusive: %w", err)
	}
	if _, err := r.q.Exec(ctx, `LOCK TABLE inventory_movements, inventory_balances IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock tables: %w", err)
	}
	return nil
}

// DeleteByType borra físicamente todos los movimientos del tipo.
func (r *InventoryMovementRepo) DeleteByType(ctx context.Context, t entity.MovementType) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM inventory_movements WHERE type = $1`, t)
	if err != nil {
		return 0, fmt.Errorf("delete by type: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ListForReplay movimientos no eliminados en orden de aplicación.
func (r *InventoryMovementRepo) ListForReplay(ctx context.Context) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE is_deleted = false
		ORDER BY date ASC, created_at ASC, id ASC`
	return r.queryMovements(ctx, "list for replay", query)
}

func (r *InventoryMovementRepo) queryMovements(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var items []byte
	err := row.Scan(
		&m.ID, &m.Type, &m.Date, &m.WarehouseID, &m.ToWarehouseID, &items, &m.SupplierID, &m.TotalCost,
		&m.PaymentStatus, &m.PaidAmount, &m.PaymentMethod, &m.MoneyAccountID, &m.Description, &m.ReferenceID,
		&m.ShiftID, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &m.Items); err != nil {
			return nil, fmt.Errorf("decode items de %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

// movementWhere arma el WHERE del listado. El filtro de bodega acepta origen o destino;
// el de insumo usa contención JSONB sobre las líneas.
func movementWhere(f entity.MovementFilter) (string, []any, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.WarehouseID != "" {
		add("(warehouse_id = ? OR to_warehouse_id = ?)", f.WarehouseID)
	}
	if f.ItemID != "" {
		contains, err := json.Marshal([]map[string]string{{"itemId": string(f.ItemID)}})
		if err != nil {
			return "", nil, fmt.Errorf("encode item filter: %w", err)
		}
		add("items @> ?::jsonb", string(contains))
	}
	if f.From != nil {
		add("date >= ?", *f.From)
	}
	if f.To != nil {
		add("date <= ?", *f.To)
	}
	if f.IsDeleted != nil {
		add("is_deleted = ?", *f.IsDeleted)
	}
	if len(where) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(where, " AND "), args, nil
}

func buildMovementListQuery(f entity.MovementFilter) (string, []any, error) {
	where, args, err := movementWhere(f)
	if err != nil {
		return "", nil, err
	}
	query := `SELECT ` + movementColumns + ` FROM inventory_movements` + where +
		" ORDER BY date DESC, created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args, nil
}

func buildMovementCountQuery(f entity.MovementFilter) (string, []any, error) {
	where, args, err := movementWhere(f)
	if err != nil {
		return "", nil, err
	}
	return `SELECT count(*) FROM inventory_movements` + where, args, nil
}

// warehouseLockKeys claves de advisory lock ordenadas y sin repetidos.
func warehouseLockKeys(ids []entity.WarehouseID) []string {
	seen := make(map[entity.WarehouseID]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, "inventory_warehouse:"+string(id))
	}
	sort.Strings(keys)
	return keys
}
