package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldust/internal/config"
)

func TestPoolConfigAppliesLimits(t *testing.T) {
	pc, err := PoolConfig(config.PostgresConfig{
		DSN:             "postgres://pix:pw@db.internal:5433/pixeldust?sslmode=disable",
		MaxOpen:         12,
		MaxIdle:         3,
		ConnMaxLifetime: 15 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "pixeldust", pc.ConnConfig.Database)
	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 15*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigIdleFloorCappedByPoolSize(t *testing.T) {
	pc, err := PoolConfig(config.PostgresConfig{
		DSN:     "postgres://pix@localhost/pixeldust",
		MaxOpen: 4,
		MaxIdle: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MinConns)
}

func TestPoolConfigKeepsExplicitApplicationName(t *testing.T) {
	pc, err := PoolConfig(config.PostgresConfig{
		DSN: "postgres://pix@localhost/pixeldust?application_name=reports",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigRejectsMemoryAndBadDSN(t *testing.T) {
	_, err := PoolConfig(config.PostgresConfig{DSN: "memory://"})
	assert.ErrorIs(t, err, ErrMemoryDSN)

	_, err = PoolConfig(config.PostgresConfig{DSN: "postgres://pix@localhost:notaport/db"})
	assert.Error(t, err)
}
