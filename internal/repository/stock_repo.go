package repository

import (
	"context"

	"go-brindes-ws/internal/model"
	"go-brindes-ws/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	FindAll(ctx context.Context) ([]model.StockItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindBySKU(ctx context.Context, sku string) (*model.StockItem, error)
	FindLowStock(ctx context.Context) ([]model.StockItem, error)
	Update(ctx context.Context, item *model.StockItem) error

	// Transactional variants used by the mutation engine.
	Candidates(tx *gorm.DB) ([]model.StockItem, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	UpdateQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockRepo) FindAll(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).Order(candidateOrder).Find(&items).Error
	return items, err
}

func (r *stockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockRepo) FindBySKU(ctx context.Context, sku string) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, "sku = ?", sku).Error
	return &item, err
}

func (r *stockRepo) FindLowStock(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).
		Where("quantity <= min_quantity").
		Order("quantity ASC, " + candidateOrder).
		Find(&items).Error
	return items, err
}

// Update saves descriptive fields only. Quantity moves exclusively through UpdateQuantity.
func (r *stockRepo) Update(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Model(item).
		Select("name", "sku", "category", "subcategory", "location", "min_quantity", "unit_price", "updated_by").
		Updates(item).Error
}

func (r *stockRepo) Candidates(tx *gorm.DB) ([]model.StockItem, error) {
	var items []model.StockItem
	err := tx.Order(candidateOrder).Find(&items).Error
	return items, err
}

func (r *stockRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := lockable(tx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockRepo) UpdateQuantity(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy string) error {
	return tx.Model(&model.StockItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_by": updatedBy,
		}).Error
}

// lockable adds SELECT ... FOR UPDATE where the dialect supports it. SQLite
// serializes writers on its own.
func lockable(tx *gorm.DB) *gorm.DB {
	if database.SupportsRowLocks(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
