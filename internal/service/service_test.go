package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/testutil"
	"go-brindes-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type recorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recorder) Publish(ev ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) byType(typ string) []ws.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ws.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type env struct {
	db        *gorm.DB
	events    *recorder
	stockRepo repository.StockRepository
	samples   repository.SampleRepository
	movements repository.MovementRepository
	protocols repository.ProtocolRepository
	stock     StockService
	sample    SampleService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	e := &env{
		db:        db,
		events:    &recorder{},
		stockRepo: repository.NewStockRepo(db),
		samples:   repository.NewSampleRepo(db),
		movements: repository.NewMovementRepo(db),
		protocols: repository.NewProtocolRepo(db),
	}
	e.stock = NewStockService(db, e.stockRepo, e.movements, e.events, 0.5)
	e.sample = NewSampleService(db, e.samples, e.movements, e.events, 0.6, 7)
	return e
}

// seq hands out strictly increasing creation times so resolver order is explicit.
var (
	seqMu   sync.Mutex
	seqTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func nextCreated() time.Time {
	seqMu.Lock()
	defer seqMu.Unlock()
	seqTime = seqTime.Add(time.Second)
	return seqTime
}

func (e *env) addStock(t *testing.T, name string, qty, min int) *model.StockItem {
	t.Helper()
	item := &model.StockItem{Name: name, Quantity: qty, MinQuantity: min}
	item.CreatedAt = nextCreated()
	require.NoError(t, e.stockRepo.Create(ctx, item))
	return item
}

func (e *env) addSample(t *testing.T, name string) *model.Sample {
	t.Helper()
	s := &model.Sample{Name: name, Status: model.SampleAvailable}
	s.CreatedAt = nextCreated()
	require.NoError(t, e.samples.Create(ctx, s))
	return s
}

func (e *env) logsFor(t *testing.T, id uuid.UUID) []model.MovementLog {
	t.Helper()
	logs, err := e.movements.FindAll(ctx, repository.MovementFilter{TargetID: id})
	require.NoError(t, err)
	return logs
}

// countQueries counts SELECTs issued through db from now on.
func countQueries(t *testing.T, db *gorm.DB) *int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		atomic.AddInt64(&n, 1)
	}))
	return &n
}
