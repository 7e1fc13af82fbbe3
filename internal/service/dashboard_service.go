package service

import (
	"context"
	"sort"
	"time"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
	Overview(ctx context.Context, caps model.Capabilities) (*Overview, error)
	Movements(ctx context.Context, filter repository.MovementFilter) ([]model.MovementLog, error)
}

// Overview is the role-filtered landing listing: each side is present only
// when the role may see it.
type Overview struct {
	Stock   []model.StockItem `json:"stock,omitempty"`
	Samples []model.Sample    `json:"samples,omitempty"`
}

type dashboardService struct {
	movements repository.MovementRepository
	stock     repository.StockRepository
	samples   repository.SampleRepository
	now       func() time.Time
}

func NewDashboardService(movements repository.MovementRepository, stock repository.StockRepository, samples repository.SampleRepository) DashboardService {
	return &dashboardService{movements: movements, stock: stock, samples: samples, now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movements.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.movements.GetDashboardStats(ctx, s.now())
}

func (s *dashboardService) Overview(ctx context.Context, caps model.Capabilities) (*Overview, error) {
	var out Overview
	if caps.CanViewStock {
		items, err := s.stock.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		out.Stock = items
	}
	if caps.CanViewSamples {
		samples, err := s.samples.FindAll(ctx, "")
		if err != nil {
			return nil, err
		}
		// Samples out on the street first, then by name.
		sort.SliceStable(samples, func(i, j int) bool {
			if samples[i].Status != samples[j].Status {
				return statusRank(samples[i].Status) < statusRank(samples[j].Status)
			}
			return samples[i].Name < samples[j].Name
		})
		out.Samples = samples
	}
	return &out, nil
}

func statusRank(s model.SampleStatus) int {
	switch s {
	case model.SampleCheckedOut:
		return 0
	case model.SampleAvailable:
		return 1
	case model.SampleSold:
		return 2
	default:
		return 3
	}
}

func (s *dashboardService) Movements(ctx context.Context, filter repository.MovementFilter) ([]model.MovementLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.movements.FindAll(ctx, filter)
}
