package repository_test

import (
	"context"
	"testing"
	"time"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func seedStock(t *testing.T, db *gorm.DB, name string, qty int, created time.Time) *model.StockItem {
	t.Helper()
	item := &model.StockItem{Name: name, Quantity: qty, MinQuantity: model.DefaultMinQuantity}
	item.CreatedAt = created
	require.NoError(t, repository.NewStockRepo(db).Create(ctx, item))
	return item
}

func TestStockRepo_CandidatesAreOrderedByCreation(t *testing.T) {
	db := testutil.NewDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := seedStock(t, db, "Caneta Preta", 10, base.Add(time.Minute))
	first := seedStock(t, db, "Caneta Azul", 10, base)

	items, err := repository.NewStockRepo(db).Candidates(db)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestStockRepo_UpdateQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewStockRepo(db)
	item := seedStock(t, db, "Caneta Azul", 10, time.Now())

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.LockByID(tx, item.ID)
		if err != nil {
			return err
		}
		return repo.UpdateQuantity(tx, locked.ID, locked.Quantity-4, "alice")
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, "alice", got.UpdatedBy)
}

func TestStockRepo_UpdateLeavesQuantityAlone(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewStockRepo(db)
	item := seedStock(t, db, "Caneta Azul", 10, time.Now())

	item.Name = "Caneta Azul Fina"
	item.Quantity = 999
	item.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("1.50"))
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Caneta Azul Fina", got.Name)
	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.UnitPrice.Valid)
}

func TestStockRepo_FindLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	seedStock(t, db, "Caneta Azul", 3, time.Now())
	seedStock(t, db, "Caderno", 5, time.Now())
	seedStock(t, db, "Mochila", 20, time.Now())

	low, err := repository.NewStockRepo(db).FindLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Caneta Azul", low[0].Name)
}

func TestSampleRepo_SaveTransitionRequiresExpectedStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewSampleRepo(db)
	s := &model.Sample{Name: "Mochila X", Status: model.SampleAvailable}
	require.NoError(t, repo.Create(ctx, s))

	holder := "bob"
	now := time.Now()
	s.Status = model.SampleCheckedOut
	s.Holder = &holder
	s.CheckedOutAt = &now
	require.NoError(t, repo.SaveTransition(db, s, model.SampleAvailable))

	err := repo.SaveTransition(db, s, model.SampleAvailable)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SampleCheckedOut, got.Status)
	assert.Equal(t, "bob", got.HolderName())
}

func TestSampleRepo_FindOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewSampleRepo(db)
	now := time.Now()
	past, future := now.Add(-48*time.Hour), now.Add(48*time.Hour)
	holder := "bob"

	late := &model.Sample{Name: "Late", Status: model.SampleCheckedOut, Holder: &holder, CheckedOutAt: &past, ExpectedReturnAt: &past}
	onTime := &model.Sample{Name: "OnTime", Status: model.SampleCheckedOut, Holder: &holder, CheckedOutAt: &past, ExpectedReturnAt: &future}
	home := &model.Sample{Name: "Home", Status: model.SampleAvailable}
	for _, s := range []*model.Sample{late, onTime, home} {
		require.NoError(t, repo.Create(ctx, s))
	}

	out, err := repo.FindCheckedOut(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	overdue, err := repo.FindOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	available, err := repo.FindAll(ctx, model.SampleAvailable)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, home.ID, available[0].ID)
}

func TestMovementRepo_IsAppendOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMovementRepo(db)
	entry := &model.MovementLog{
		TargetKind: model.KindStock,
		TargetID:   uuid.New(),
		Action:     model.MoveOutbound,
		Quantity:   2,
		Actor:      "alice",
		Channel:    model.ChannelWeb,
	}
	require.NoError(t, repo.Append(db, entry))

	entry.Quantity = 50
	assert.ErrorIs(t, db.Save(entry).Error, model.ErrAppendOnly)
	assert.ErrorIs(t, db.Delete(entry).Error, model.ErrAppendOnly)

	got, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestMovementRepo_FindAllFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMovementRepo(db)
	stockID, sampleID := uuid.New(), uuid.New()
	entries := []*model.MovementLog{
		{TargetKind: model.KindStock, TargetID: stockID, Action: model.MoveInbound, Quantity: 5, Actor: "alice"},
		{TargetKind: model.KindStock, TargetID: stockID, Action: model.MoveOutbound, Quantity: 1, Actor: "alice"},
		{TargetKind: model.KindSample, TargetID: sampleID, Action: model.MoveCheckout, Quantity: 1, Actor: "bob"},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(db, e))
	}

	all, err := repo.FindAll(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stock, err := repo.FindAll(ctx, repository.MovementFilter{Kind: model.KindStock})
	require.NoError(t, err)
	assert.Len(t, stock, 2)

	bob, err := repo.FindAll(ctx, repository.MovementFilter{Actor: "bob"})
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, sampleID, bob[0].TargetID)

	limited, err := repo.FindAll(ctx, repository.MovementFilter{TargetID: stockID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMovementRepo_DashboardStats(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	pen := seedStock(t, db, "Caneta Azul", 3, now)
	bag := seedStock(t, db, "Mochila", 10, now)
	pen.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("2.50"))
	bag.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("40.00"))
	require.NoError(t, repository.NewStockRepo(db).Update(ctx, pen))
	require.NoError(t, repository.NewStockRepo(db).Update(ctx, bag))

	past := now.Add(-time.Hour)
	holder := "bob"
	require.NoError(t, repository.NewSampleRepo(db).Create(ctx, &model.Sample{
		Name: "Mochila X", Status: model.SampleCheckedOut, Holder: &holder, CheckedOutAt: &past, ExpectedReturnAt: &past,
	}))
	require.NoError(t, repository.NewSampleRepo(db).Create(ctx, &model.Sample{Name: "Squeeze", Status: model.SampleAvailable}))

	stats, err := repository.NewMovementRepo(db).GetDashboardStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalItems)
	assert.Equal(t, int64(13), stats.TotalUnits)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.True(t, decimal.RequireFromString("407.50").Equal(stats.TotalValuation), stats.TotalValuation.String())
	assert.Equal(t, int64(2), stats.TotalSamples)
	assert.Equal(t, int64(1), stats.SamplesCheckedOut)
	assert.Equal(t, int64(1), stats.SamplesOverdue)
	assert.Equal(t, int64(0), stats.OpenProtocols)
}

func TestProtocolRepo_CreateAndFinish(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewProtocolRepo(db)
	p := &model.HandoffProtocol{
		ClientName: "ACME",
		Status:     model.ProtocolOpen,
		Lines: []model.ProtocolLine{
			{Position: 2, Kind: model.KindStock, Reference: "caneta", Quantity: 10},
			{Position: 1, Kind: model.KindSample, Reference: "mochila", Quantity: 1},
		},
	}
	require.NoError(t, repo.Create(db, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "mochila", got.Lines[0].Reference)

	require.NoError(t, repo.Finish(db, p.ID, model.ProtocolReturned, time.Now(), "bob"))
	assert.ErrorIs(t, repo.Finish(db, p.ID, model.ProtocolClosed, time.Now(), "bob"), repository.ErrProtocolNotOpen)

	open, err := repo.FindAll(ctx, model.ProtocolOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	require.NoError(t, repo.SetDocumentURL(ctx, p.ID, "gs://bucket/p.xlsx"))
	got, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProtocolReturned, got.Status)
	assert.Equal(t, "gs://bucket/p.xlsx", got.DocumentURL)
	assert.NotNil(t, got.FinishedAt)
}
