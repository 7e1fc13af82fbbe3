package repository

import (
	"context"
	"errors"
	"time"

	"go-brindes-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrProtocolNotOpen is returned when a finished protocol is asked to finish again.
var ErrProtocolNotOpen = errors.New("protocol is not open")

type ProtocolRepository interface {
	Create(tx *gorm.DB, p *model.HandoffProtocol) error
	FindAll(ctx context.Context, status model.ProtocolStatus) ([]model.HandoffProtocol, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.HandoffProtocol, error)
	Finish(tx *gorm.DB, id uuid.UUID, to model.ProtocolStatus, at time.Time, actor string) error
	SetDocumentURL(ctx context.Context, id uuid.UUID, url string) error
}

type protocolRepo struct {
	db *gorm.DB
}

func NewProtocolRepo(db *gorm.DB) ProtocolRepository {
	return &protocolRepo{db}
}

// Create inserts the protocol together with its lines.
func (r *protocolRepo) Create(tx *gorm.DB, p *model.HandoffProtocol) error {
	return tx.Create(p).Error
}

func (r *protocolRepo) FindAll(ctx context.Context, status model.ProtocolStatus) ([]model.HandoffProtocol, error) {
	var protocols []model.HandoffProtocol
	q := r.db.WithContext(ctx).Preload("Lines", orderLines).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&protocols).Error
	return protocols, err
}

func (r *protocolRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.HandoffProtocol, error) {
	var p model.HandoffProtocol
	err := r.db.WithContext(ctx).Preload("Lines", orderLines).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *protocolRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.HandoffProtocol, error) {
	var p model.HandoffProtocol
	if err := lockable(tx).First(&p, "id = ?", id).Error; err != nil {
		return &p, err
	}
	err := tx.Where("protocol_id = ?", id).Order("position ASC").Find(&p.Lines).Error
	return &p, err
}

// Finish moves an OPEN protocol to to; anything else yields ErrProtocolNotOpen.
func (r *protocolRepo) Finish(tx *gorm.DB, id uuid.UUID, to model.ProtocolStatus, at time.Time, actor string) error {
	res := tx.Model(&model.HandoffProtocol{}).
		Where("id = ? AND status = ?", id, model.ProtocolOpen).
		Updates(map[string]interface{}{
			"status":      to,
			"finished_at": at,
			"updated_by":  actor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProtocolNotOpen
	}
	return nil
}

func (r *protocolRepo) SetDocumentURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Model(&model.HandoffProtocol{}).
		Where("id = ?", id).
		Update("document_url", url).Error
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
