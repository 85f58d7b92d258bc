package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.AutoMigrate(ctx, pool, cfg.DB.AutoMigrate, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ledgerMetrics := metrics.NewLedgerMetrics()
	txRunner := postgres.NewTxRunner(pool)
	shifts := inventory.ShiftsFromRepository(postgres.NewShiftRepository(pool))

	ledger := inventory.NewLedger(txRunner, shifts, log, ledgerMetrics)
	queries := inventory.NewQueryUseCase(
		postgres.NewInventoryMovementRepository(pool),
		postgres.NewInventoryBalanceRepository(pool),
		postgres.NewSupplierRepository(pool),
	)
	locks := inventory.NewPeriodLockChecker(postgres.NewInventoryMovementRepository(pool))
	rebuild := inventory.NewRebuildUseCase(txRunner,
		entity.WarehouseID(cfg.Ledger.DefaultWarehouseID), cfg.Ledger.RebuildTimeout, log, ledgerMetrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Ledger.RebuildTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName: cfg.App.Name,
		DB:          pool,
		Ledger:      ledger,
		Queries:     queries,
		Locks:       locks,
		Rebuild:     rebuild,
		Metrics:     ledgerMetrics,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
