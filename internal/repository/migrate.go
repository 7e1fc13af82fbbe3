package repository

import (
	"go-brindes-ws/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.StockItem{},
		&model.Sample{},
		&model.MovementLog{},
		&model.HandoffProtocol{},
		&model.ProtocolLine{},
	)
}

// candidateOrder is the stable order the resolver relies on for tie-breaking.
const candidateOrder = "created_at ASC, id ASC"
