package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"legaldash/internal/common/config"
	apperrors "legaldash/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clients").
		WillReturnResult(sqlmock.NewResult(0, 0))

	pg := NewPostgresFromDB(db)
	require.NoError(t, pg.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_MigrateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clients").
		WillReturnError(errors.New("permission denied"))

	err = NewPostgresFromDB(db).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create clients table")
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = NewPostgresFromDB(db).Ping(context.Background())
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "postgres ping failed: connection refused")
}

func TestNewPostgres_OpensLazily(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{
		URL:            "postgres://user:pw@127.0.0.1:1/none?sslmode=disable",
		MaxConnections: 2,
		MaxIdle:        1,
	})
	require.NoError(t, err)
	assert.NoError(t, pg.Close())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	rc := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rc.Close()

	require.NoError(t, rc.Ping(context.Background()))

	mr.Close()
	err := rc.Ping(context.Background())
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "redis ping failed")
}

func TestNewRedis_PoolFromConfig(t *testing.T) {
	rc := NewRedis(config.RedisConfig{
		Address:      "cache:6379",
		DB:           2,
		PoolSize:     7,
		MinIdleConns: 1,
		DialTimeout:  1500,
		IOTimeout:    250,
	})
	defer rc.Close()

	opts := rc.Client.Options()
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 1, opts.MinIdleConns)
	assert.Equal(t, 1500*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, 250*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, opts.WriteTimeout)
}
