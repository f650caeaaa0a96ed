package distributed

import (
	"context"
	"errors"
	"testing"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs/mocks"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/cache"
	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStore_Reachable(t *testing.T) {
	db, mock := redismock.NewClientMock()
	logger, hook := test.NewNullLogger()
	events := &mocks.Recorder{}

	mock.ExpectPing().SetVal("PONG")

	err := CheckStore(context.Background(), cache.NewClientFrom(db), 0, logger, events)
	require.NoError(t, err)
	assert.Empty(t, events.Events())
	assert.Empty(t, hook.AllEntries())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckStore_UnreachableIsDegraded(t *testing.T) {
	db, mock := redismock.NewClientMock()
	logger, hook := test.NewNullLogger()
	events := &mocks.Recorder{}

	mock.ExpectPing().SetErr(errors.New("connection refused"))

	err := CheckStore(context.Background(), cache.NewClientFrom(db), 0, logger, events)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratelimit.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	degraded := events.OfType(auditlogs.EventTypeDegradedMode)
	require.Len(t, degraded, 1)
	assert.Equal(t, auditlogs.TargetTypeCounterStore, degraded[0].Target.Type)
	assert.Equal(t, auditlogs.StatusDegraded, degraded[0].Event.Status)
	assert.Equal(t, "connection refused", degraded[0].Event.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckStore_NilEvents(t *testing.T) {
	db, mock := redismock.NewClientMock()
	logger, _ := test.NewNullLogger()

	mock.ExpectPing().SetErr(errors.New("down"))

	assert.ErrorIs(t, CheckStore(context.Background(), cache.NewClientFrom(db), 0, logger, nil), ratelimit.ErrStoreUnavailable)
}
