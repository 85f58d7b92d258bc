// Command rebuild ejecuta una reconstrucción completa de saldos y sale con código 1 si falla.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	warehouse := flag.String("default-warehouse", "", "bodega para ventas sin saldo positivo (sobrescribe LEDGER_DEFAULT_WAREHOUSE_ID)")
	timeout := flag.Duration("timeout", 0, "duración máxima (sobrescribe LEDGER_REBUILD_TIMEOUT_SECONDS)")
	envFile := flag.String("env-file", "", "archivo .env a cargar antes de la configuración")
	flag.Parse()

	// Los CLI suelen correr fuera del directorio del servicio: -env-file exporta las variables
	// al entorno antes de que viper las lea.
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "cargar %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level}).Component("rebuild-cli")

	if *warehouse != "" {
		cfg.Ledger.DefaultWarehouseID = *warehouse
	}
	if *timeout > 0 {
		cfg.Ledger.RebuildTimeout = *timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		os.Exit(1)
	}
	defer pool.Close()

	uc := inventory.NewRebuildUseCase(postgres.NewTxRunner(pool),
		entity.WarehouseID(cfg.Ledger.DefaultWarehouseID), cfg.Ledger.RebuildTimeout, log, nil)

	start := time.Now()
	report, err := uc.Run(ctx)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("reconstrucción fallida")
		pool.Close()
		os.Exit(1)
	}
	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	_ = out.Encode(report)
}
