package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSN = "postgres://u:p@db:5432/tablekit?sslmode=disable"

func TestPoolConfigAppliesOptions(t *testing.T) {
	cfg, err := PoolConfig(testDSN, PoolOptions{
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: 45 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, 45*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnIdleTime)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, "tablekit", cfg.ConnConfig.Database)
}

func TestPoolConfigZeroKeepsDSNValues(t *testing.T) {
	cfg, err := PoolConfig(testDSN+"&pool_max_conns=7&pool_max_conn_lifetime=1h", PoolOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(7), cfg.MaxConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
}

func TestPoolConfigRejects(t *testing.T) {
	_, err := PoolConfig("://not a dsn", PoolOptions{})
	assert.ErrorContains(t, err, "parse pgx config")

	_, err = PoolConfig(testDSN, PoolOptions{MaxConns: 2, MinConns: 3})
	assert.ErrorContains(t, err, "exceeds")
}
