package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"credit-sales/config"
	"credit-sales/domain"
	"credit-sales/repository"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCmd_JSON(t *testing.T) {
	out, err := runCmd(t, "quote", "--amount", "10000", "--term", "24", "--rate", "12.5", "--json")
	require.NoError(t, err)

	assert.JSONEq(t, `{"monthly_payment": 473.07, "total_payment": 11353.75, "total_interest": 1353.75}`, out)
}

func TestQuoteCmd_Table(t *testing.T) {
	out, err := runCmd(t, "quote", "-a", "10000", "-t", "24", "-r", "12.5")
	require.NoError(t, err)

	assert.Contains(t, out, "$473.07")
	assert.Contains(t, out, "$1,353.75")
}

func TestQuoteCmd_Invalid(t *testing.T) {
	_, err := runCmd(t, "quote", "--amount", "10000", "--term", "24", "--rate", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	_, err = runCmd(t, "quote", "--term", "24", "--rate", "5")
	assert.Error(t, err, "amount is required")
}

func TestSimulateCmd_JSON(t *testing.T) {
	out, err := runCmd(t, "simulate", "--amount", "12000", "--term", "12", "--months", "3", "--json")
	require.NoError(t, err)

	var sim domain.LoanSimulation
	require.NoError(t, json.Unmarshal([]byte(out), &sim))
	assert.Equal(t, 1000.0, sim.Quote.MonthlyPayment)
	require.Len(t, sim.Schedule, 3)
	assert.Equal(t, 9000.0, sim.Schedule[2].RemainingBalance)
}

func TestSimulateCmd_Table(t *testing.T) {
	out, err := runCmd(t, "simulate", "--amount", "10000", "--term", "24", "--rate", "12.5")
	require.NoError(t, err)

	assert.Contains(t, out, "Tabla de amortización")
	assert.Contains(t, out, "$9,631.09")
	assert.Contains(t, out, "$5,310.48")
}

func TestSimulateCmd_NegativeMonths(t *testing.T) {
	_, err := runCmd(t, "simulate", "--amount", "1000", "--term", "12", "--months", "-1")
	assert.Error(t, err)
}

func TestPolicyCmd(t *testing.T) {
	out, err := runCmd(t, "policy")
	require.NoError(t, err)
	assert.Equal(t, "requisitos\nmontos\nplazos\ntasas\ndocumentos\n", out)

	out, err = runCmd(t, "policy", "tasas", "y", "plazos")
	require.NoError(t, err)
	assert.Contains(t, out, "6, 12, 18, 24, 36, 48 y 60 meses")
	assert.Contains(t, out, "12% hasta el 35%")
	assert.Less(t, strings.Index(out, "plazos disponibles"), strings.Index(out, "tasas de interés"))
}

func TestPolicyCmd_CatalogFromConfig(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
topics:
  - key: seguros
    text: Todo crédito incluye seguro de vida.
`), 0o600))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("policy:\n  file: "+catalogPath+"\n"), 0o600))

	out, err := runCmd(t, "--config", configPath, "policy", "seguros")
	require.NoError(t, err)
	assert.Equal(t, "Todo crédito incluye seguro de vida.\n", out)
}

func TestRootCmd_BadConfig(t *testing.T) {
	_, err := runCmd(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "policy")
	assert.Error(t, err)
}

func TestServe_StopsOnCanceledContext(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Storage = config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "quotes.db")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, serve(ctx, cfg, zap.NewNop()))
}

func TestOpenQuoteRepository(t *testing.T) {
	repo, closeRepo, err := openQuoteRepository(config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	closeRepo()
	assert.IsType(t, &repository.QuoteRepositoryMemory{}, repo)

	repo, closeRepo, err = openQuoteRepository(config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer closeRepo()
	assert.IsType(t, &repository.SQLiteQuoteRepository{}, repo)

	_, _, err = openQuoteRepository(config.StorageConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	cache, closeCache := openCache(context.Background(), config.CacheConfig{Driver: config.DriverMemory}, zap.NewNop())
	defer closeCache()
	assert.IsType(t, &repository.MemoryCache{}, cache)

	redisCache, closeRedis := openCache(context.Background(),
		config.CacheConfig{Driver: config.DriverRedis, RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	defer closeRedis()
	assert.IsType(t, &repository.RedisCache{}, redisCache)

	_, ok := redisCache.Get(context.Background(), "anything")
	assert.False(t, ok)
}
