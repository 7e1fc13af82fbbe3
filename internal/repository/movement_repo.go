package repository

import (
	"context"
	"time"

	"go-brindes-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Append(tx *gorm.DB, entry *model.MovementLog) error
	FindAll(ctx context.Context, filter MovementFilter) ([]model.MovementLog, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.MovementLog, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error)
}

// MovementFilter narrows the history listing. Zero values mean "any".
type MovementFilter struct {
	Kind       model.TargetKind
	TargetID   uuid.UUID
	ProtocolID uuid.UUID
	Actor      string
	Limit      int
}

// StockMovementData is one day of the inbound/outbound chart.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the overview shown on the landing page.
type DashboardStats struct {
	TotalItems        int64           `json:"total_items"`
	TotalUnits        int64           `json:"total_units"`
	LowStockCount     int64           `json:"low_stock_count"`
	TotalValuation    decimal.Decimal `json:"total_valuation"`
	TotalSamples      int64           `json:"total_samples"`
	SamplesCheckedOut int64           `json:"samples_checked_out"`
	SamplesOverdue    int64           `json:"samples_overdue"`
	OpenProtocols     int64           `json:"open_protocols"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

// Append is the only write path for the history.
func (r *movementRepo) Append(tx *gorm.DB, entry *model.MovementLog) error {
	return tx.Create(entry).Error
}

func (r *movementRepo) FindAll(ctx context.Context, filter MovementFilter) ([]model.MovementLog, error) {
	var logs []model.MovementLog
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.Kind != "" {
		q = q.Where("target_kind = ?", filter.Kind)
	}
	if filter.TargetID != uuid.Nil {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.ProtocolID != uuid.Nil {
		q = q.Where("protocol_id = ?", filter.ProtocolID)
	}
	if filter.Actor != "" {
		q = q.Where("actor = ?", filter.Actor)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}

func (r *movementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MovementLog, error) {
	var entry model.MovementLog
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	return &entry, err
}

func (r *movementRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).Model(&model.MovementLog{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN action = ? THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN action = ? THEN quantity ELSE 0 END), 0) as outbound
		`, model.MoveInbound, model.MoveOutbound).
		Where("target_kind = ? AND created_at BETWEEN ? AND ?", model.KindStock, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		var day interface{}
		if err := rows.Scan(&day, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		data.Date = formatDay(day)
		results = append(results, data)
	}

	return results, rows.Err()
}

// formatDay normalizes DATE() output: postgres yields a time, sqlite a string.
func formatDay(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case []byte:
		return string(d)
	case string:
		return d
	default:
		return ""
	}
}

func (r *movementRepo) GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.StockItem{}).Count(&stats.TotalItems).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.StockItem{}).Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalUnits).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.StockItem{}).Where("quantity <= min_quantity").Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Valuation is summed in Go so decimal precision does not depend on the driver.
	var priced []model.StockItem
	if err := db.Select("quantity", "unit_price").Where("unit_price IS NOT NULL").Find(&priced).Error; err != nil {
		return nil, err
	}
	stats.TotalValuation = decimal.Zero
	for _, it := range priced {
		stats.TotalValuation = stats.TotalValuation.Add(it.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if err := db.Model(&model.Sample{}).Count(&stats.TotalSamples).Error; err != nil {
		return nil, err
	}
	var out []model.Sample
	if err := db.Where("status = ?", model.SampleCheckedOut).Find(&out).Error; err != nil {
		return nil, err
	}
	stats.SamplesCheckedOut = int64(len(out))
	for i := range out {
		if out[i].IsOverdue(now) {
			stats.SamplesOverdue++
		}
	}

	if err := db.Model(&model.HandoffProtocol{}).Where("status = ?", model.ProtocolOpen).Count(&stats.OpenProtocols).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
