package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go-brindes-ws/internal/metrics"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/resolver"
	"go-brindes-ws/internal/ws"
	"go-brindes-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockService interface {
	Create(ctx context.Context, item *model.StockItem, actor string) error
	Update(ctx context.Context, id uuid.UUID, req *model.StockItem, actor string) (*model.StockItem, error)
	List(ctx context.Context) ([]model.StockItem, error)
	Get(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	LowStock(ctx context.Context) ([]model.StockItem, error)
	Resolve(ctx context.Context, reference string) (*model.StockItem, resolver.Match, error)

	ApplyDelta(ctx context.Context, id uuid.UUID, delta int, actor Actor) (*StockResult, error)
	MutateStock(ctx context.Context, reference string, delta int, actor Actor) (*StockResult, error)
	ApplyDeltaTx(tx *gorm.DB, id uuid.UUID, delta int, actor Actor) (*StockResult, error)
	ResolveTx(tx *gorm.DB, reference string) (*model.StockItem, resolver.Match, error)
	Announce(res *StockResult, actor Actor)
}

// StockResult describes one committed quantity change.
type StockResult struct {
	Item             model.StockItem `json:"item"`
	Delta            int             `json:"delta"`
	PreviousQuantity int             `json:"previous_quantity"`
	NewQuantity      int             `json:"new_quantity"`
	Note             string          `json:"note,omitempty"`
	LowStock         bool            `json:"low_stock"`
}

// Warning is the advisory line shown when the item dropped to its minimum.
func (r *StockResult) Warning() string {
	if !r.LowStock {
		return ""
	}
	return fmt.Sprintf("low stock: '%s' has %d left (minimum %d)", r.Item.Name, r.NewQuantity, r.Item.MinQuantity)
}

type stockService struct {
	db        *gorm.DB
	stock     repository.StockRepository
	movements repository.MovementRepository
	events    EventPublisher
	threshold float64
}

func NewStockService(db *gorm.DB, stock repository.StockRepository, movements repository.MovementRepository, events EventPublisher, threshold float64) StockService {
	return &stockService{
		db:        db,
		stock:     stock,
		movements: movements,
		events:    publisherOrNop(events),
		threshold: threshold,
	}
}

func (s *stockService) Create(ctx context.Context, item *model.StockItem, actor string) error {
	if errs := validator.ValidateStruct(item); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrMalformedInput, validator.Message(errs))
	}
	if item.SKU != "" {
		existing, err := s.stock.FindBySKU(ctx, item.SKU)
		if err == nil && existing.ID != uuid.Nil {
			return fmt.Errorf("%w: SKU '%s' already exists", ErrMalformedInput, item.SKU)
		}
	}

	item.CreatedBy = actor
	item.UpdatedBy = actor
	if err := s.stock.Create(ctx, item); err != nil {
		return err
	}

	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_created",
		Actor:   actor,
		Message: fmt.Sprintf("%s created stock item '%s'", actor, item.Name),
		Data:    item,
	})
	return nil
}

// Update changes descriptive fields. Quantity is ignored; it only moves through ApplyDelta.
func (s *stockService) Update(ctx context.Context, id uuid.UUID, req *model.StockItem, actor string) (*model.StockItem, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, validator.Message(errs))
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Category = req.Category
	existing.Subcategory = req.Subcategory
	existing.Location = req.Location
	existing.MinQuantity = req.MinQuantity
	existing.UnitPrice = req.UnitPrice
	existing.UpdatedBy = actor
	if err := s.stock.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "item_updated",
		Actor:   actor,
		Message: fmt.Sprintf("%s updated stock item '%s'", actor, existing.Name),
		Data:    existing,
	})
	return existing, nil
}

func (s *stockService) List(ctx context.Context) ([]model.StockItem, error) {
	return s.stock.FindAll(ctx)
}

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	item, err := s.stock.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: stock item %s", ErrNotFound, id)
	}
	return item, err
}

func (s *stockService) LowStock(ctx context.Context) ([]model.StockItem, error) {
	return s.stock.FindLowStock(ctx)
}

func (s *stockService) Resolve(ctx context.Context, reference string) (*model.StockItem, resolver.Match, error) {
	return s.ResolveTx(s.db.WithContext(ctx), reference)
}

// ResolveTx resolves against the stock catalog as seen by tx.
func (s *stockService) ResolveTx(tx *gorm.DB, reference string) (*model.StockItem, resolver.Match, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, resolver.Match{}, resolutionError("stock item", reference, resolver.ErrEmptyReference)
	}
	items, err := s.stock.Candidates(tx)
	if err != nil {
		return nil, resolver.Match{}, err
	}
	candidates := make([]resolver.Candidate, len(items))
	for i, it := range items {
		candidates[i] = resolver.Candidate{ID: it.ID, Name: it.Name, Keys: []string{it.SKU}}
	}

	m, err := resolver.Resolve(candidates, reference, s.threshold)
	if err != nil {
		metrics.Resolutions.WithLabelValues(string(model.KindStock), "none").Inc()
		return nil, m, resolutionError("stock item", reference, err)
	}
	metrics.Resolutions.WithLabelValues(string(model.KindStock), string(m.Tier)).Inc()

	for i := range items {
		if items[i].ID == m.ID {
			return &items[i], m, nil
		}
	}
	return nil, m, fmt.Errorf("%w: stock item %s", ErrNotFound, m.ID)
}

func (s *stockService) ApplyDelta(ctx context.Context, id uuid.UUID, delta int, actor Actor) (*StockResult, error) {
	var res *StockResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.ApplyDeltaTx(tx, id, delta, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Announce(res, actor)
	return res, nil
}

// MutateStock resolves reference and applies delta inside one transaction.
func (s *stockService) MutateStock(ctx context.Context, reference string, delta int, actor Actor) (*StockResult, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: quantity must be non-zero", ErrMalformedInput)
	}

	var res *StockResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, match, err := s.ResolveTx(tx, reference)
		if err != nil {
			return err
		}
		res, err = s.ApplyDeltaTx(tx, item.ID, delta, actor)
		if err != nil {
			return err
		}
		res.Note = match.Note
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Announce(res, actor)
	return res, nil
}

// ApplyDeltaTx locks the row, guards non-negativity, writes the quantity and
// appends the log entry, all on tx. The caller owns commit and Announce.
func (s *stockService) ApplyDeltaTx(tx *gorm.DB, id uuid.UUID, delta int, actor Actor) (*StockResult, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: quantity must be non-zero", ErrMalformedInput)
	}
	if delta == math.MinInt {
		return nil, fmt.Errorf("%w: quantity %d is out of range", ErrMalformedInput, delta)
	}
	if strings.TrimSpace(actor.Name) == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrMalformedInput)
	}

	item, err := s.stock.LockByID(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: stock item %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	before := item.Quantity
	if delta > 0 && before > math.MaxInt-delta {
		return nil, fmt.Errorf("%w: adding %d to '%s' exceeds the largest storable quantity", ErrMalformedInput, delta, item.Name)
	}
	after := before + delta
	if after < 0 {
		metrics.Rejections.WithLabelValues(string(model.KindStock), "insufficient_stock").Inc()
		return nil, fmt.Errorf("%w: '%s' has %d on hand, requested %d", ErrInsufficientStock, item.Name, before, -delta)
	}

	if err := s.stock.UpdateQuantity(tx, item.ID, after, actor.Name); err != nil {
		return nil, err
	}

	action, qty := model.MoveInbound, delta
	if delta < 0 {
		action, qty = model.MoveOutbound, -delta
	}
	entry := &model.MovementLog{
		TargetKind:     model.KindStock,
		TargetID:       item.ID,
		TargetName:     item.Name,
		Action:         action,
		Quantity:       qty,
		QuantityBefore: &before,
		QuantityAfter:  &after,
		Actor:          actor.Name,
		Channel:        actor.channel(),
		ProtocolID:     actor.ProtocolID,
	}
	if err := s.movements.Append(tx, entry); err != nil {
		return nil, err
	}

	item.Quantity = after
	item.UpdatedBy = actor.Name
	return &StockResult{
		Item:             *item,
		Delta:            delta,
		PreviousQuantity: before,
		NewQuantity:      after,
		LowStock:         item.IsLow(),
	}, nil
}

// Announce records metrics and pushes the websocket event for a committed change.
func (s *stockService) Announce(res *StockResult, actor Actor) {
	action := model.MoveInbound
	verb := "added"
	amount := res.Delta
	if res.Delta < 0 {
		action, verb, amount = model.MoveOutbound, "removed", -res.Delta
	}
	metrics.Mutations.WithLabelValues(string(model.KindStock), string(action), string(actor.channel())).Inc()

	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  string(action),
		Actor:   actor.Name,
		Message: fmt.Sprintf("%s %s %d units of '%s'", actor.Name, verb, amount, res.Item.Name),
		Data: map[string]interface{}{
			"id":           res.Item.ID,
			"name":         res.Item.Name,
			"old_quantity": res.PreviousQuantity,
			"new_quantity": res.NewQuantity,
			"low_stock":    res.LowStock,
		},
	})
}
