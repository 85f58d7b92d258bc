package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// saleNamespace espacio de nombres de los ids de ventas regeneradas: la misma línea de
// recibo produce siempre el mismo id de movimiento.
var saleNamespace = uuid.MustParse("6f1c2a0e-8d3b-4c55-9a47-2b8e5d7f9c10")

// RebuildReport resultado de una reconstrucción.
type RebuildReport struct {
	SalesDeleted      int64         `json:"sales_deleted"`
	SalesCreated      int           `json:"sales_created"`
	LinesSkipped      int           `json:"lines_skipped"`
	MovementsReplayed int           `json:"movements_replayed"`
	BalancesWritten   int           `json:"balances_written"`
	Duration          time.Duration `json:"duration"`
}

// RebuildUseCase descarta los saldos y los recalcula desde todo el historial, regenerando
// antes los movimientos de venta a partir de los recibos. Todo ocurre en una transacción.
type RebuildUseCase struct {
	txRunner         TxRunner
	defaultWarehouse entity.WarehouseID
	timeout          time.Duration
	log              *logger.Logger
	metrics          *metrics.LedgerMetrics
	now              func() time.Time
	group            singleflight.Group
}

// NewRebuildUseCase construye el caso de uso. defaultWarehouse vacío usa la bodega
// predeterminada del directorio; timeout 0 no limita la duración.
func NewRebuildUseCase(txRunner TxRunner, defaultWarehouse entity.WarehouseID, timeout time.Duration, log *logger.Logger, m *metrics.LedgerMetrics) *RebuildUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RebuildUseCase{
		txRunner:         txRunner,
		defaultWarehouse: defaultWarehouse,
		timeout:          timeout,
		log:              log.Component("rebuild"),
		metrics:          m,
		now:              time.Now,
	}
}

// Run ejecuta la reconstrucción. Las llamadas concurrentes comparten una sola ejecución.
func (uc *RebuildUseCase) Run(ctx context.Context) (*RebuildReport, error) {
	v, err, shared := uc.group.Do("rebuild", func() (interface{}, error) {
		return uc.run(ctx)
	})
	if shared {
		uc.log.Debug().Msg("reconstrucción compartida con una ejecución en curso")
	}
	if err != nil {
		return nil, err
	}
	report := *v.(*RebuildReport)
	return &report, nil
}

func (uc *RebuildUseCase) run(ctx context.Context) (*RebuildReport, error) {
	start := time.Now()
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	uc.log.Info().Msg("reconstrucción iniciada")

	var report RebuildReport
	err := uc.txRunner.Run(ctx, func(ctx context.Context, s Stores) error {
		report = RebuildReport{}
		if err := s.Movements.LockAll(ctx); err != nil {
			return err
		}
		deleted, err := s.Movements.DeleteByType(ctx, entity.MovementTypeSale)
		if err != nil {
			return err
		}
		report.SalesDeleted = deleted

		history, err := s.Movements.ListForReplay(ctx)
		if err != nil {
			return err
		}
		sales, skipped, err := uc.regenerateSales(ctx, s, history)
		if err != nil {
			return err
		}
		report.SalesCreated = len(sales)
		report.LinesSkipped = skipped

		if err := s.Balances.DeleteAll(ctx); err != nil {
			return err
		}
		history = append(history, sales...)
		balances := inventory.Replay(history)
		now := uc.now()
		for _, b := range balances {
			b.UpdatedAt = now
		}
		if err := s.Balances.InsertAll(ctx, balances); err != nil {
			return err
		}
		report.MovementsReplayed = len(history)
		report.BalancesWritten = len(balances)
		return nil
	})
	report.Duration = time.Since(start)

	if err != nil {
		err = asLedgerError(OpRebuild, err)
		uc.metrics.Observe(OpRebuild, resultOf(err), report.Duration)
		uc.log.Error().Err(err).Dur("duration", report.Duration).Msg("reconstrucción fallida")
		return nil, err
	}
	uc.metrics.Observe(OpRebuild, metrics.ResultOK, report.Duration)
	uc.metrics.RebuildSucceeded(report.MovementsReplayed, uc.now())
	uc.log.Info().
		Int64("sales_deleted", report.SalesDeleted).
		Int("sales_created", report.SalesCreated).
		Int("lines_skipped", report.LinesSkipped).
		Int("movements_replayed", report.MovementsReplayed).
		Int("balances_written", report.BalancesWritten).
		Dur("duration", report.Duration).
		Msg("reconstrucción completada")
	return &report, nil
}

// regenerateSales crea un movimiento de venta por cada línea de recibo (o ingrediente de receta).
// La bodega se elige con los saldos que deja el historial sin ventas, así dos ejecuciones
// seguidas eligen lo mismo.
func (uc *RebuildUseCase) regenerateSales(ctx context.Context, s Stores, history []*entity.InventoryMovement) ([]*entity.InventoryMovement, int, error) {
	receipts, err := s.Sales.ListReceipts(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(receipts) == 0 {
		return nil, 0, nil
	}

	byItem := make(map[entity.ItemID][]*entity.InventoryBalance)
	for _, b := range inventory.Replay(history) {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}
	fallback, err := uc.fallbackWarehouse(ctx, s)
	if err != nil {
		return nil, 0, err
	}

	var sales []*entity.InventoryMovement
	skipped := 0
	for _, r := range receipts {
		for i, line := range r.Lines {
			consumption, err := uc.resolveLine(ctx, s, line)
			if err != nil {
				return nil, 0, err
			}
			if len(consumption) == 0 {
				skipped++
				uc.log.Warn().Str("receipt_id", r.ID).Str("product_id", line.ProductID).
					Msg("línea de recibo sin insumo ni receta; se omite")
				continue
			}
			for j, c := range consumption {
				wh := inventory.PickWarehouse(byItem[c.ItemID], fallback)
				if wh == "" {
					return nil, 0, domain.NewValidationError("warehouseId", "no hay bodega por defecto para las ventas")
				}
				m := &entity.InventoryMovement{
					ID:          saleID(r.ID, i, j, c.ItemID),
					Type:        entity.MovementTypeSale,
					Date:        r.Date,
					WarehouseID: wh,
					Items: []entity.MovementItem{{
						ItemID: c.ItemID, ItemName: c.ItemName, Unit: c.Unit, Qty: c.Qty,
					}},
					Description: "Venta " + r.Number,
					ReferenceID: r.ID,
					ShiftID:     r.ShiftID,
					CreatedAt:   r.Date,
					UpdatedAt:   uc.now(),
				}
				if err := s.Movements.Create(ctx, m); err != nil {
					return nil, 0, err
				}
				sales = append(sales, m)
			}
		}
	}
	return sales, skipped, nil
}

func (uc *RebuildUseCase) resolveLine(ctx context.Context, s Stores, line entity.ReceiptLine) ([]inventory.Consumption, error) {
	item, err := s.Catalog.GetStockItem(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return inventory.ExplodeLine(line, item, nil), nil
	}
	recipe, err := s.Catalog.GetRecipe(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	return inventory.ExplodeLine(line, nil, recipe), nil
}

func (uc *RebuildUseCase) fallbackWarehouse(ctx context.Context, s Stores) (entity.WarehouseID, error) {
	warehouses, err := s.Warehouses.List(ctx)
	if err != nil {
		return "", err
	}
	wh, _ := inventory.DefaultWarehouse(uc.defaultWarehouse, warehouses)
	return wh, nil
}

func saleID(receiptID string, line, part int, itemID entity.ItemID) string {
	return uuid.NewSHA1(saleNamespace, []byte(fmt.Sprintf("%s/%d/%d/%s", receiptID, line, part, itemID))).String()
}
