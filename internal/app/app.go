// Package app assembles repositories and services for the api and cli binaries.
package app

import (
	"go-brindes-ws/internal/assistant"
	"go-brindes-ws/internal/config"
	"go-brindes-ws/internal/document"
	"go-brindes-ws/internal/notify"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/service"

	"gorm.io/gorm"
)

type Repositories struct {
	Stock     repository.StockRepository
	Samples   repository.SampleRepository
	Movements repository.MovementRepository
	Protocols repository.ProtocolRepository
}

type Services struct {
	Repos     Repositories
	Renderer  *document.Renderer
	Stock     service.StockService
	Samples   service.SampleService
	Protocols service.ProtocolService
	Dashboard service.DashboardService
	Tools     *assistant.Tools
}

// New wires the engines on db. events, store and sink may be nil; protocol
// notifications then skip the missing sinks.
func New(db *gorm.DB, cfg *config.Config, events service.EventPublisher, store notify.DocumentStore, sink notify.EventSink) *Services {
	repos := Repositories{
		Stock:     repository.NewStockRepo(db),
		Samples:   repository.NewSampleRepo(db),
		Movements: repository.NewMovementRepo(db),
		Protocols: repository.NewProtocolRepo(db),
	}
	renderer := document.NewRenderer(cfg.CompanyName)
	notifier := notify.NewDispatcher(renderer, store, sink)

	stock := service.NewStockService(db, repos.Stock, repos.Movements, events, cfg.StockMatchThreshold)
	samples := service.NewSampleService(db, repos.Samples, repos.Movements, events, cfg.SampleMatchThreshold, cfg.DefaultLoanDays)

	return &Services{
		Repos:     repos,
		Renderer:  renderer,
		Stock:     stock,
		Samples:   samples,
		Protocols: service.NewProtocolService(db, repos.Protocols, repos.Samples, stock, samples, events, notifier, renderer, cfg.DefaultLoanDays),
		Dashboard: service.NewDashboardService(repos.Movements, repos.Stock, repos.Samples),
		Tools:     assistant.New(stock, samples),
	}
}
