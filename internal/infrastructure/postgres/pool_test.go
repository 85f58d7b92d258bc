package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestNewPoolConfig_Parametros(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db", Port: 5432, User: "ledger", Password: "secreto", DBName: "stock_ledger", SSLMode: "disable",
		MaxConns: 8, MinConns: 20,
		ApplicationName: "stock-ledger-test",
		LockTimeout:     2500 * time.Millisecond,
	}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 8, pc.MaxConns)
	assert.EqualValues(t, 8, pc.MinConns, "MinConns no supera MaxConns")
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "stock_ledger", pc.ConnConfig.Database)

	params := pc.ConnConfig.RuntimeParams
	assert.Equal(t, "stock-ledger-test", params["application_name"])
	assert.Equal(t, "2500", params["lock_timeout"])
	_, ok := params["statement_timeout"]
	assert.False(t, ok, "sin statement_timeout si no se configura")
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_DatabaseURL(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{
		DatabaseURL:      "postgresql://u:p@pg.internal:6543/ledger?sslmode=disable",
		StatementTimeout: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "pg.internal", pc.ConnConfig.Host)
	assert.EqualValues(t, 6543, pc.ConnConfig.Port)
	assert.EqualValues(t, 25, pc.MaxConns)
	assert.Equal(t, "60000", pc.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
