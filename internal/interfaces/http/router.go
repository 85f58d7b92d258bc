package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName string
	DB          Pinger
	Ledger      *inventory.Ledger
	Queries     *inventory.QueryUseCase
	Locks       *inventory.PeriodLockChecker
	Rebuild     *inventory.RebuildUseCase
	Metrics     *metrics.LedgerMetrics
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := NewHealthHandler(deps.ServiceName, deps.DB)
	app.Get("/health", health.Health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.Ledger, deps.Queries, deps.Locks, deps.Rebuild)
	inv.Get("/movements", h.ListMovements)
	inv.Post("/movements", h.CreateMovement)
	inv.Put("/movements/:id", h.UpdateMovement)
	inv.Delete("/movements/:id", h.DeleteMovement)
	inv.Post("/movements/:id/restore", h.RestoreMovement)
	inv.Get("/balances", h.ListBalances)
	inv.Get("/last-prices", h.LastPrices)
	inv.Get("/period-lock/:warehouse_id", h.PeriodLock)

	// La reconstrucción recalcula todo el libro: solo administradores.
	inv.Post("/rebuild", RequireRole("admin"), h.Rebuild)
}
