package order

import (
	"testing"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTransitionTable(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderPending, models.OrderPreparing, models.OrderReady,
		models.OrderDelivered, models.OrderPaid, models.OrderCancelled,
	}

	allowed := map[models.OrderStatus]map[models.OrderStatus]bool{
		models.OrderPending:   {models.OrderPreparing: true, models.OrderCancelled: true},
		models.OrderPreparing: {models.OrderReady: true, models.OrderCancelled: true},
		models.OrderReady:     {models.OrderDelivered: true},
		models.OrderDelivered: {models.OrderPaid: true},
		models.OrderPaid:      {},
		models.OrderCancelled: {},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
}

func TestTransitionNoBackwardMoves(t *testing.T) {
	assert.False(t, CanTransition(models.OrderReady, models.OrderPreparing))
	assert.False(t, CanTransition(models.OrderDelivered, models.OrderReady))
	assert.False(t, CanTransition(models.OrderPreparing, models.OrderPending))
}

func TestCancelOnlyBeforeReady(t *testing.T) {
	assert.True(t, CanTransition(models.OrderPending, models.OrderCancelled))
	assert.True(t, CanTransition(models.OrderPreparing, models.OrderCancelled))
	assert.False(t, CanTransition(models.OrderReady, models.OrderCancelled))
	assert.False(t, CanTransition(models.OrderDelivered, models.OrderCancelled))
}

func TestTransitionWritesStatusLog(t *testing.T) {
	db := newTestDB(t)
	o := models.Order{Status: models.OrderPending}
	require.NoError(t, db.Create(&o).Error)

	actor := uintPtr(7)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Transition(tx, &o, models.OrderPreparing, actor)
	}))

	assert.Equal(t, models.OrderPreparing, o.Status)

	var logs []models.OrderStatusLog
	require.NoError(t, db.Where("order_id = ?", o.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OrderPending, logs[0].OldStatus)
	assert.Equal(t, models.OrderPreparing, logs[0].NewStatus)
	require.NotNil(t, logs[0].ChangedBy)
	assert.Equal(t, uint(7), *logs[0].ChangedBy)
}

func TestTransitionRejectedWithAllowedList(t *testing.T) {
	db := newTestDB(t)
	o := models.Order{Status: models.OrderReady}
	require.NoError(t, db.Create(&o).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Transition(tx, &o, models.OrderPreparing, nil)
	})

	var te *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "ready", te.Current)
	assert.Equal(t, "preparing", te.Target)
	assert.Equal(t, []string{"delivered"}, te.Allowed)

	var count int64
	db.Model(&models.OrderStatusLog{}).Count(&count)
	assert.Zero(t, count, "reddedilen geçiş log satırı bırakmamalı")
}

func TestTransitionDetectsConcurrentChange(t *testing.T) {
	db := newTestDB(t)
	o := models.Order{Status: models.OrderPending}
	require.NoError(t, db.Create(&o).Error)

	// Biz okuduktan sonra başka bir istemci iptal etmiş olsun
	stale := o
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderCancelled).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Transition(tx, &stale, models.OrderPreparing, nil)
	})

	var te *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "cancelled", te.Current)
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	assert.Empty(t, ValidTransitions(models.OrderPaid))
	assert.Empty(t, ValidTransitions(models.OrderCancelled))
}
