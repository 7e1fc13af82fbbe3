package service

import (
	"testing"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardOverview_GatedByRole(t *testing.T) {
	e := newEnv(t)
	e.addStock(t, "Caneta Azul", 10, 2)
	e.addStock(t, "Boné Preto", 1, 5)
	e.addSample(t, "Mochila X")
	bag := e.addSample(t, "Garrafa Térmica")
	_, err := e.sample.Transition(ctx, bag.ID, TransitionRequest{Action: model.ActionCheckout, Destination: "Cliente Y"}, Actor{Name: "bob"})
	require.NoError(t, err)

	svc := NewDashboardService(e.movements, e.stockRepo, e.samples)

	sales, err := svc.Overview(ctx, model.RoleSales.Capabilities())
	require.NoError(t, err)
	assert.Nil(t, sales.Stock)
	require.Len(t, sales.Samples, 2)
	assert.Equal(t, "Garrafa Térmica", sales.Samples[0].Name)

	purchasing, err := svc.Overview(ctx, model.RolePurchasing.Capabilities())
	require.NoError(t, err)
	assert.Nil(t, purchasing.Samples)
	require.Len(t, purchasing.Stock, 2)
	assert.Equal(t, "Boné Preto", purchasing.Stock[0].Name)

	public, err := svc.Overview(ctx, model.RolePublic.Capabilities())
	require.NoError(t, err)
	assert.Empty(t, public.Stock)
	assert.Empty(t, public.Samples)
}

func TestDashboardMovements_ClampsLimit(t *testing.T) {
	e := newEnv(t)
	pen := e.addStock(t, "Caneta Azul", 10, 2)
	for i := 0; i < 3; i++ {
		_, err := e.stock.ApplyDelta(ctx, pen.ID, -1, Actor{Name: "alice"})
		require.NoError(t, err)
	}
	svc := NewDashboardService(e.movements, e.stockRepo, e.samples)

	logs, err := svc.Movements(ctx, repository.MovementFilter{Limit: 10000})
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = svc.Movements(ctx, repository.MovementFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	e.addStock(t, "Caneta Azul", 10, 2)
	e.addStock(t, "Boné Preto", 1, 5)
	e.addSample(t, "Mochila X")
	svc := NewDashboardService(e.movements, e.stockRepo, e.samples)

	stats, err := svc.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalItems)
	assert.EqualValues(t, 11, stats.TotalUnits)
	assert.EqualValues(t, 1, stats.LowStockCount)
	assert.EqualValues(t, 1, stats.TotalSamples)

	series, err := svc.GetStockMovement(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, series)
}
