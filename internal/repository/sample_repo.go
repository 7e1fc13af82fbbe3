package repository

import (
	"context"
	"errors"
	"time"

	"go-brindes-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleStatus means the row left the expected status between read and write.
var ErrStaleStatus = errors.New("sample status changed concurrently")

type SampleRepository interface {
	Create(ctx context.Context, sample *model.Sample) error
	FindAll(ctx context.Context, status model.SampleStatus) ([]model.Sample, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sample, error)
	FindCheckedOut(ctx context.Context) ([]model.Sample, error)
	FindOverdue(ctx context.Context, now time.Time) ([]model.Sample, error)

	Candidates(tx *gorm.DB) ([]model.Sample, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sample, error)
	SaveTransition(tx *gorm.DB, sample *model.Sample, from model.SampleStatus) error
}

type sampleRepo struct {
	db *gorm.DB
}

func NewSampleRepo(db *gorm.DB) SampleRepository {
	return &sampleRepo{db}
}

func (r *sampleRepo) Create(ctx context.Context, sample *model.Sample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

// FindAll lists samples, optionally filtered by status (empty means all).
func (r *sampleRepo) FindAll(ctx context.Context, status model.SampleStatus) ([]model.Sample, error) {
	var samples []model.Sample
	q := r.db.WithContext(ctx).Order(candidateOrder)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&samples).Error
	return samples, err
}

func (r *sampleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	var sample model.Sample
	err := r.db.WithContext(ctx).First(&sample, "id = ?", id).Error
	return &sample, err
}

func (r *sampleRepo) FindCheckedOut(ctx context.Context) ([]model.Sample, error) {
	var samples []model.Sample
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SampleCheckedOut).
		Order("expected_return_at ASC, " + candidateOrder).
		Find(&samples).Error
	return samples, err
}

// FindOverdue is filtered in Go so the comparison does not depend on how the
// dialect stores timestamps.
func (r *sampleRepo) FindOverdue(ctx context.Context, now time.Time) ([]model.Sample, error) {
	out, err := r.FindCheckedOut(ctx)
	if err != nil {
		return nil, err
	}
	overdue := make([]model.Sample, 0, len(out))
	for _, s := range out {
		if s.IsOverdue(now) {
			overdue = append(overdue, s)
		}
	}
	return overdue, nil
}

func (r *sampleRepo) Candidates(tx *gorm.DB) ([]model.Sample, error) {
	var samples []model.Sample
	err := tx.Order(candidateOrder).Find(&samples).Error
	return samples, err
}

func (r *sampleRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sample, error) {
	var sample model.Sample
	err := lockable(tx).First(&sample, "id = ?", id).Error
	return &sample, err
}

// SaveTransition writes the new status and loan fields, but only if the row is
// still in status from. Zero affected rows yields ErrStaleStatus.
func (r *sampleRepo) SaveTransition(tx *gorm.DB, sample *model.Sample, from model.SampleStatus) error {
	res := tx.Model(&model.Sample{}).
		Where("id = ? AND status = ?", sample.ID, from).
		Updates(map[string]interface{}{
			"status":              sample.Status,
			"holder":              sample.Holder,
			"destination":         sample.Destination,
			"destination_address": sample.DestinationAddress,
			"checked_out_at":      sample.CheckedOutAt,
			"expected_return_at":  sample.ExpectedReturnAt,
			"protocol_id":         sample.ProtocolID,
			"updated_by":          sample.UpdatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
