package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-brindes-ws/internal/metrics"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/resolver"
	"go-brindes-ws/internal/ws"
	"go-brindes-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SampleService interface {
	Create(ctx context.Context, sample *model.Sample, actor string) error
	List(ctx context.Context, status model.SampleStatus) ([]model.Sample, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Sample, error)
	CheckedOut(ctx context.Context) ([]model.Sample, error)
	Overdue(ctx context.Context) ([]model.Sample, error)
	Resolve(ctx context.Context, reference string) (*model.Sample, resolver.Match, error)

	Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, actor Actor) (*SampleResult, error)
	MoveSample(ctx context.Context, reference string, req TransitionRequest, actor Actor) (*SampleResult, error)
	TransitionTx(tx *gorm.DB, id uuid.UUID, req TransitionRequest, actor Actor) (*SampleResult, error)
	ResolveTx(tx *gorm.DB, reference string) (*model.Sample, resolver.Match, error)
	Announce(res *SampleResult, actor Actor)
}

// TransitionRequest is one lifecycle step. Destination, Address and Days only
// matter for CHECKOUT; Days <= 0 means the configured default.
type TransitionRequest struct {
	Action      model.SampleAction
	Destination string
	Address     string
	Days        int
}

// SampleResult describes one committed lifecycle transition.
type SampleResult struct {
	Sample   model.Sample       `json:"sample"`
	Action   model.SampleAction `json:"action"`
	Previous model.SampleStatus `json:"previous_status"`
	Note     string             `json:"note,omitempty"`
}

type sampleService struct {
	db          *gorm.DB
	samples     repository.SampleRepository
	movements   repository.MovementRepository
	events      EventPublisher
	threshold   float64
	defaultDays int
	now         func() time.Time
}

func NewSampleService(db *gorm.DB, samples repository.SampleRepository, movements repository.MovementRepository, events EventPublisher, threshold float64, defaultLoanDays int) SampleService {
	if defaultLoanDays <= 0 {
		defaultLoanDays = 7
	}
	return &sampleService{
		db:          db,
		samples:     samples,
		movements:   movements,
		events:      publisherOrNop(events),
		threshold:   threshold,
		defaultDays: defaultLoanDays,
		now:         time.Now,
	}
}

func (s *sampleService) Create(ctx context.Context, sample *model.Sample, actor string) error {
	if errs := validator.ValidateStruct(sample); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrMalformedInput, validator.Message(errs))
	}
	// New samples always start on the shelf.
	sample.Status = model.SampleAvailable
	sample.Holder = nil
	sample.ClearLoan()
	sample.CreatedBy = actor
	sample.UpdatedBy = actor
	if err := s.samples.Create(ctx, sample); err != nil {
		return err
	}

	s.events.Publish(ws.Event{
		Type:    "sample_update",
		Action:  "sample_created",
		Actor:   actor,
		Message: fmt.Sprintf("%s registered sample '%s'", actor, sample.Name),
		Data:    sample,
	})
	return nil
}

func (s *sampleService) List(ctx context.Context, status model.SampleStatus) ([]model.Sample, error) {
	return s.samples.FindAll(ctx, status)
}

func (s *sampleService) Get(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	sample, err := s.samples.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sample %s", ErrNotFound, id)
	}
	return sample, err
}

func (s *sampleService) CheckedOut(ctx context.Context) ([]model.Sample, error) {
	return s.samples.FindCheckedOut(ctx)
}

func (s *sampleService) Overdue(ctx context.Context) ([]model.Sample, error) {
	return s.samples.FindOverdue(ctx, s.now())
}

func (s *sampleService) Resolve(ctx context.Context, reference string) (*model.Sample, resolver.Match, error) {
	return s.ResolveTx(s.db.WithContext(ctx), reference)
}

func (s *sampleService) ResolveTx(tx *gorm.DB, reference string) (*model.Sample, resolver.Match, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, resolver.Match{}, resolutionError("sample", reference, resolver.ErrEmptyReference)
	}
	samples, err := s.samples.Candidates(tx)
	if err != nil {
		return nil, resolver.Match{}, err
	}
	candidates := make([]resolver.Candidate, len(samples))
	for i, sm := range samples {
		candidates[i] = resolver.Candidate{ID: sm.ID, Name: sm.Name, Keys: []string{sm.AssetTag}}
	}

	m, err := resolver.Resolve(candidates, reference, s.threshold)
	if err != nil {
		metrics.Resolutions.WithLabelValues(string(model.KindSample), "none").Inc()
		return nil, m, resolutionError("sample", reference, err)
	}
	metrics.Resolutions.WithLabelValues(string(model.KindSample), string(m.Tier)).Inc()

	for i := range samples {
		if samples[i].ID == m.ID {
			return &samples[i], m, nil
		}
	}
	return nil, m, fmt.Errorf("%w: sample %s", ErrNotFound, m.ID)
}

func (s *sampleService) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, actor Actor) (*SampleResult, error) {
	var res *SampleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.TransitionTx(tx, id, req, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Announce(res, actor)
	return res, nil
}

// MoveSample resolves reference and applies the transition inside one transaction.
func (s *sampleService) MoveSample(ctx context.Context, reference string, req TransitionRequest, actor Actor) (*SampleResult, error) {
	if _, ok := model.SampleTransitions[req.Action]; !ok {
		return nil, fmt.Errorf("%w: unknown sample action '%s'", ErrMalformedInput, req.Action)
	}

	var res *SampleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sample, match, err := s.ResolveTx(tx, reference)
		if err != nil {
			return err
		}
		res, err = s.TransitionTx(tx, sample.ID, req, actor)
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

// TransitionTx applies one lifecycle step on tx: lock, guard, conditional write,
// log append. The caller owns commit and Announce.
func (s *sampleService) TransitionTx(tx *gorm.DB, id uuid.UUID, req TransitionRequest, actor Actor) (*SampleResult, error) {
	if _, ok := model.SampleTransitions[req.Action]; !ok {
		return nil, fmt.Errorf("%w: unknown sample action '%s'", ErrMalformedInput, req.Action)
	}
	if strings.TrimSpace(actor.Name) == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrMalformedInput)
	}

	sample, err := s.samples.LockByID(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sample %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	from := sample.Status
	to, ok := model.NextStatus(from, req.Action)
	if !ok {
		metrics.Rejections.WithLabelValues(string(model.KindSample), "illegal_transition").Inc()
		return nil, illegalTransition(sample, req.Action)
	}

	s.applyEffects(sample, req, actor)
	sample.Status = to
	sample.UpdatedBy = actor.Name

	if err := s.samples.SaveTransition(tx, sample, from); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// Lost a race: report what the row looks like now.
			if current, ferr := s.samples.LockByID(tx, id); ferr == nil {
				return nil, illegalTransition(current, req.Action)
			}
			return nil, fmt.Errorf("%w: '%s' changed while it was being updated", ErrIllegalTransition, sample.Name)
		}
		return nil, err
	}

	entry := &model.MovementLog{
		TargetKind: model.KindSample,
		TargetID:   sample.ID,
		TargetName: sample.Name,
		Action:     model.MovementAction(req.Action),
		Quantity:   1,
		Actor:      actor.Name,
		Channel:    actor.channel(),
		ProtocolID: actor.ProtocolID,
	}
	if err := s.movements.Append(tx, entry); err != nil {
		return nil, err
	}

	return &SampleResult{Sample: *sample, Action: req.Action, Previous: from}, nil
}

func (s *sampleService) applyEffects(sample *model.Sample, req TransitionRequest, actor Actor) {
	switch req.Action {
	case model.ActionCheckout:
		now := s.now()
		days := req.Days
		if days <= 0 {
			days = s.defaultDays
		}
		due := now.AddDate(0, 0, days)
		dest := strings.TrimSpace(req.Destination)
		if dest == "" {
			dest = model.DefaultDestination
		}
		holder := actor.Name
		sample.Holder = &holder
		sample.Destination = &dest
		sample.DestinationAddress = nil
		if addr := strings.TrimSpace(req.Address); addr != "" {
			sample.DestinationAddress = &addr
		}
		sample.CheckedOutAt = &now
		sample.ExpectedReturnAt = &due
		sample.ProtocolID = nil
		if actor.ProtocolID != nil {
			id := *actor.ProtocolID
			sample.ProtocolID = &id
		}

	case model.ActionSold:
		holder := actor.Name
		sample.ClearLoan()
		sample.Holder = &holder

	case model.ActionReturn, model.ActionDiscontinued:
		sample.ClearLoan()
		sample.Holder = nil
	}
}

func illegalTransition(sample *model.Sample, action model.SampleAction) error {
	detail := fmt.Sprintf("cannot %s '%s', it is %s", strings.ToLower(string(action)), sample.Name, sample.Status)
	if sample.Holder != nil && *sample.Holder != "" {
		detail += " (held by " + *sample.Holder
		if sample.Destination != nil {
			detail += " at " + *sample.Destination
		}
		detail += ")"
	}
	return fmt.Errorf("%w: %s", ErrIllegalTransition, detail)
}

func (s *sampleService) Announce(res *SampleResult, actor Actor) {
	metrics.Mutations.WithLabelValues(string(model.KindSample), string(res.Action), string(actor.channel())).Inc()

	s.events.Publish(ws.Event{
		Type:    "sample_update",
		Action:  string(res.Action),
		Actor:   actor.Name,
		Message: fmt.Sprintf("%s moved '%s' from %s to %s", actor.Name, res.Sample.Name, res.Previous, res.Sample.Status),
		Data: map[string]interface{}{
			"id":          res.Sample.ID,
			"name":        res.Sample.Name,
			"old_status":  res.Previous,
			"new_status":  res.Sample.Status,
			"holder":      res.Sample.Holder,
			"destination": res.Sample.Destination,
		},
	})
}
