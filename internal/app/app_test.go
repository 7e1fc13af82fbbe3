package app

import (
	"context"
	"testing"

	"go-brindes-ws/internal/assistant"
	"go-brindes-ws/internal/config"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"
	"go-brindes-ws/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresEnginesOnOneStore(t *testing.T) {
	cfg := config.Load()
	svc := New(testutil.NewDB(t), cfg, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Stock.Create(ctx, &model.StockItem{Name: "Caderno Executivo", Quantity: 3, MinQuantity: 1}, "seed"))
	require.NoError(t, svc.Samples.Create(ctx, &model.Sample{Name: "Mochila X"}, "seed"))

	p, err := svc.Protocols.Create(ctx, &service.CreateProtocolRequest{
		ClientName: "Cliente Y",
		Lines: []service.ProtocolLineRequest{
			{Kind: model.KindStock, Reference: "cadernos", Quantity: 1},
			{Kind: model.KindSample, Reference: "Mochila X"},
		},
	}, service.Actor{Name: "ana"})
	require.NoError(t, err)
	svc.Protocols.Wait()
	assert.Equal(t, "interpreted 'cadernos' as 'Caderno Executivo'", p.Lines[0].Note)
	// No store configured, so no archived document.
	assert.Empty(t, p.DocumentURL)

	admin := assistant.Caller{Actor: service.Actor{Name: "ana"}, Capabilities: model.RoleAdministrator.Capabilities()}
	out := svc.Tools.Consult(ctx, "", admin)
	assert.Contains(t, out, "'Mochila X' is with ana at Cliente Y")

	stats, err := svc.Dashboard.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.OpenProtocols)
	assert.EqualValues(t, 1, stats.SamplesCheckedOut)
}
