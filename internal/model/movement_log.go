package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetKind string

const (
	KindStock  TargetKind = "stock"
	KindSample TargetKind = "sample"
)

type MovementAction string

const (
	MoveInbound      MovementAction = "INBOUND"
	MoveOutbound     MovementAction = "OUTBOUND"
	MoveCheckout     MovementAction = MovementAction(ActionCheckout)
	MoveReturn       MovementAction = MovementAction(ActionReturn)
	MoveSold         MovementAction = MovementAction(ActionSold)
	MoveDiscontinued MovementAction = MovementAction(ActionDiscontinued)
)

// Channel says where a mutation came from.
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelAssistant Channel = "assistant"
	ChannelBot       Channel = "bot"
	ChannelCLI       Channel = "cli"
	ChannelProtocol  Channel = "protocol"
)

// MovementLog is the append-only audit trail. Rows are never updated or deleted,
// so it carries no UpdatedAt/DeletedAt.
type MovementLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	TargetKind     TargetKind     `gorm:"type:varchar(10);not null;index:idx_movement_target" json:"target_kind"`
	TargetID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_movement_target" json:"target_id"`
	TargetName     string         `gorm:"type:varchar(150)" json:"target_name"`
	Action         MovementAction `gorm:"type:varchar(20);not null" json:"action"`
	Quantity       int            `gorm:"not null;default:1" json:"quantity"`
	QuantityBefore *int           `json:"quantity_before,omitempty"`
	QuantityAfter  *int           `json:"quantity_after,omitempty"`
	Actor          string         `gorm:"type:varchar(100);not null" json:"actor"`
	Channel        Channel        `gorm:"type:varchar(20)" json:"channel"`
	ProtocolID     *uuid.UUID     `gorm:"type:uuid;index" json:"protocol_id,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

func (m *MovementLog) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// ErrAppendOnly is returned when something tries to rewrite the movement history.
var ErrAppendOnly = errors.New("movement log is append-only")

func (m *MovementLog) BeforeUpdate(tx *gorm.DB) error { return ErrAppendOnly }

func (m *MovementLog) BeforeDelete(tx *gorm.DB) error { return ErrAppendOnly }
