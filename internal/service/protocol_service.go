package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/ws"
	"go-brindes-ws/pkg/logger"
	"go-brindes-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProtocolNotifier receives protocols after commit and returns the archived
// document URL when one was produced.
type ProtocolNotifier interface {
	ProtocolChanged(ctx context.Context, p *model.HandoffProtocol, event, actor string) string
}

type DocumentRenderer interface {
	Render(p *model.HandoffProtocol) ([]byte, error)
}

type ProtocolService interface {
	Create(ctx context.Context, req *CreateProtocolRequest, actor Actor) (*model.HandoffProtocol, error)
	List(ctx context.Context, status model.ProtocolStatus) ([]model.HandoffProtocol, error)
	Get(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, error)
	Return(ctx context.Context, id uuid.UUID, actor Actor) (*model.HandoffProtocol, error)
	Close(ctx context.Context, id uuid.UUID, actor Actor) (*model.HandoffProtocol, error)
	Document(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, []byte, error)
	// Wait blocks until every notifier dispatch started so far has finished.
	Wait()
}

type CreateProtocolRequest struct {
	ClientName     string                `json:"client_name" validate:"notblank"`
	ClientDocument string                `json:"client_document"`
	ClientEmail    string                `json:"client_email" validate:"omitempty,email"`
	ContactName    string                `json:"contact_name"`
	Address        string                `json:"address"`
	Notes          string                `json:"notes"`
	Days           int                   `json:"days" validate:"gte=0"`
	Lines          []ProtocolLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ProtocolLineRequest is one entry to hand over. Quantity defaults to 1 and
// must be 1 for samples.
type ProtocolLineRequest struct {
	Kind      model.TargetKind `json:"kind" validate:"oneof=stock sample"`
	Reference string           `json:"reference" validate:"notblank"`
	Quantity  int              `json:"quantity" validate:"gte=0"`
}

type protocolService struct {
	db          *gorm.DB
	protocols   repository.ProtocolRepository
	samples     repository.SampleRepository
	stock       StockService
	sampleSvc   SampleService
	events      EventPublisher
	notifier    ProtocolNotifier
	renderer    DocumentRenderer
	defaultDays int
	now         func() time.Time
	dispatches  sync.WaitGroup
}

func NewProtocolService(
	db *gorm.DB,
	protocols repository.ProtocolRepository,
	samples repository.SampleRepository,
	stock StockService,
	sampleSvc SampleService,
	events EventPublisher,
	notifier ProtocolNotifier,
	renderer DocumentRenderer,
	defaultLoanDays int,
) ProtocolService {
	if defaultLoanDays <= 0 {
		defaultLoanDays = 7
	}
	return &protocolService{
		db:          db,
		protocols:   protocols,
		samples:     samples,
		stock:       stock,
		sampleSvc:   sampleSvc,
		events:      publisherOrNop(events),
		notifier:    notifier,
		renderer:    renderer,
		defaultDays: defaultLoanDays,
		now:         time.Now,
	}
}

// committed collects engine results so they are announced only after commit.
type committed struct {
	stock   []*StockResult
	samples []*SampleResult
}

// Create resolves and applies every line in one transaction: stock lines are
// withdrawn, sample lines are checked out to the client. Any failing line
// rolls back the whole protocol.
func (s *protocolService) Create(ctx context.Context, req *CreateProtocolRequest, actor Actor) (*model.HandoffProtocol, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, validator.Message(errs))
	}

	days := req.Days
	if days <= 0 {
		days = s.defaultDays
	}
	now := s.now()
	due := now.AddDate(0, 0, days)

	p := &model.HandoffProtocol{
		ClientName:     strings.TrimSpace(req.ClientName),
		ClientDocument: req.ClientDocument,
		ClientEmail:    req.ClientEmail,
		ContactName:    req.ContactName,
		Address:        req.Address,
		Notes:          req.Notes,
		Status:         model.ProtocolOpen,
		DueAt:          &due,
	}
	p.ID = uuid.New()
	p.CreatedBy = actor.Name
	p.UpdatedBy = actor.Name

	lineActor := actor
	lineActor.Channel = model.ChannelProtocol
	lineActor.ProtocolID = &p.ID

	var done committed
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, lr := range req.Lines {
			line := model.ProtocolLine{
				Position:  i + 1,
				Kind:      lr.Kind,
				Reference: strings.TrimSpace(lr.Reference),
				Quantity:  lr.Quantity,
			}
			if line.Quantity == 0 {
				line.Quantity = 1
			}

			switch lr.Kind {
			case model.KindStock:
				item, match, err := s.stock.ResolveTx(tx, line.Reference)
				if err != nil {
					return lineError(line.Position, err)
				}
				res, err := s.stock.ApplyDeltaTx(tx, item.ID, -line.Quantity, lineActor)
				if err != nil {
					return lineError(line.Position, err)
				}
				line.ResolvedID, line.ResolvedName, line.Note = item.ID, item.Name, match.Note
				done.stock = append(done.stock, res)

			case model.KindSample:
				if line.Quantity != 1 {
					return lineError(line.Position, fmt.Errorf("%w: sample lines carry exactly one unit", ErrMalformedInput))
				}
				sample, match, err := s.sampleSvc.ResolveTx(tx, line.Reference)
				if err != nil {
					return lineError(line.Position, err)
				}
				res, err := s.sampleSvc.TransitionTx(tx, sample.ID, TransitionRequest{
					Action:      model.ActionCheckout,
					Destination: p.ClientName,
					Address:     p.Address,
					Days:        days,
				}, lineActor)
				if err != nil {
					return lineError(line.Position, err)
				}
				line.ResolvedID, line.ResolvedName, line.Note = sample.ID, sample.Name, match.Note
				done.samples = append(done.samples, res)
			}
			p.Lines = append(p.Lines, line)
		}
		return s.protocols.Create(tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, p, done, "created", lineActor)
	return p, nil
}

func lineError(position int, err error) error {
	return fmt.Errorf("line %d: %w", position, err)
}

func (s *protocolService) List(ctx context.Context, status model.ProtocolStatus) ([]model.HandoffProtocol, error) {
	return s.protocols.FindAll(ctx, status)
}

func (s *protocolService) Get(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, error) {
	p, err := s.protocols.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: protocol %s", ErrNotFound, id)
	}
	return p, err
}

// Return brings back every sample of the protocol still out with its client.
func (s *protocolService) Return(ctx context.Context, id uuid.UUID, actor Actor) (*model.HandoffProtocol, error) {
	return s.finish(ctx, id, actor, model.ActionReturn, model.ProtocolReturned, "returned")
}

// Close records that the client kept the samples: those still out become SOLD.
func (s *protocolService) Close(ctx context.Context, id uuid.UUID, actor Actor) (*model.HandoffProtocol, error) {
	return s.finish(ctx, id, actor, model.ActionSold, model.ProtocolClosed, "closed")
}

func (s *protocolService) finish(ctx context.Context, id uuid.UUID, actor Actor, action model.SampleAction, to model.ProtocolStatus, event string) (*model.HandoffProtocol, error) {
	lineActor := actor
	lineActor.Channel = model.ChannelProtocol
	lineActor.ProtocolID = &id

	var (
		p    *model.HandoffProtocol
		done committed
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = s.protocols.LockByID(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: protocol %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		if p.Status != model.ProtocolOpen {
			return fmt.Errorf("%w: protocol for '%s' is already %s", ErrIllegalTransition, p.ClientName, p.Status)
		}

		for _, line := range p.Lines {
			if line.Kind != model.KindSample {
				continue
			}
			sample, err := s.samples.LockByID(tx, line.ResolvedID)
			if err != nil {
				return lineError(line.Position, err)
			}
			// Samples already back, or out again under another loan, are left alone.
			if !sample.OnLoanFor(p.ID) {
				continue
			}
			res, err := s.sampleSvc.TransitionTx(tx, sample.ID, TransitionRequest{Action: action}, lineActor)
			if err != nil {
				return lineError(line.Position, err)
			}
			done.samples = append(done.samples, res)
		}

		at := s.now()
		if err := s.protocols.Finish(tx, id, to, at, actor.Name); err != nil {
			if errors.Is(err, repository.ErrProtocolNotOpen) {
				return fmt.Errorf("%w: protocol for '%s' is no longer open", ErrIllegalTransition, p.ClientName)
			}
			return err
		}
		p.Status = to
		p.FinishedAt = &at
		p.UpdatedBy = actor.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, p, done, event, lineActor)
	return p, nil
}

func (s *protocolService) Document(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, []byte, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.renderer == nil {
		return nil, nil, errors.New("document renderer not configured")
	}
	data, err := s.renderer.Render(p)
	if err != nil {
		return nil, nil, err
	}
	return p, data, nil
}

// afterCommit announces engine results, pushes the protocol event and hands a
// snapshot of the protocol to the notifier in the background. Nothing here can
// undo the committed work.
func (s *protocolService) afterCommit(ctx context.Context, p *model.HandoffProtocol, done committed, event string, actor Actor) {
	for _, r := range done.stock {
		s.stock.Announce(r, actor)
	}
	for _, r := range done.samples {
		s.sampleSvc.Announce(r, actor)
	}

	s.events.Publish(ws.Event{
		Type:    "protocol_update",
		Action:  event,
		Actor:   actor.Name,
		Message: fmt.Sprintf("%s %s protocol for '%s'", actor.Name, event, p.ClientName),
		Data: map[string]interface{}{
			"id":     p.ID,
			"client": p.ClientName,
			"status": p.Status,
			"lines":  len(p.Lines),
		},
	})

	if s.notifier == nil {
		return
	}
	snapshot := *p
	snapshot.Lines = append([]model.ProtocolLine(nil), p.Lines...)
	ctx = context.WithoutCancel(ctx)

	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		url := s.notifier.ProtocolChanged(ctx, &snapshot, event, actor.Name)
		if url == "" {
			return
		}
		if err := s.protocols.SetDocumentURL(ctx, snapshot.ID, url); err != nil {
			logger.LogError("service", "afterCommit", "save document url", snapshot.ID.String(), err)
		}
	}()
}

func (s *protocolService) Wait() {
	s.dispatches.Wait()
}
