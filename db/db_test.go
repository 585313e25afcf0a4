package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_AppliesPoolLimits(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectPing()

	opts := DefaultPoolOptions()
	require.NoError(t, configure(context.Background(), conn, opts))

	assert.Equal(t, opts.MaxOpenConns, conn.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigure_PingFailure(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	opts := DefaultPoolOptions()
	opts.PingTimeout = time.Second
	err = configure(context.Background(), conn, opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database within 1s")
	assert.Contains(t, err.Error(), "connection refused")
}
