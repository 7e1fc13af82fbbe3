package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProtocolStatus string

const (
	ProtocolOpen     ProtocolStatus = "OPEN"
	ProtocolReturned ProtocolStatus = "RETURNED" // samples came back
	ProtocolClosed   ProtocolStatus = "CLOSED"   // client kept the samples
)

// HandoffProtocol is one documented transfer of samples and stock to a client.
type HandoffProtocol struct {
	BaseModel
	ClientName     string         `gorm:"type:varchar(150);not null" json:"client_name"`
	ClientDocument string         `gorm:"type:varchar(30)" json:"client_document"`
	ClientEmail    string         `gorm:"type:varchar(150)" json:"client_email"`
	ContactName    string         `gorm:"type:varchar(150)" json:"contact_name"`
	Address        string         `gorm:"type:varchar(255)" json:"address"`
	Notes          string         `gorm:"type:text" json:"notes"`
	Status         ProtocolStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	DueAt          *time.Time     `json:"due_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	DocumentURL    string         `gorm:"type:varchar(255)" json:"document_url,omitempty"`
	Lines          []ProtocolLine `gorm:"foreignKey:ProtocolID;constraint:OnDelete:CASCADE" json:"lines"`
}

// ProtocolLine is one (reference, quantity) entry, with what it resolved to.
type ProtocolLine struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	ProtocolID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"protocol_id"`
	Position     int        `gorm:"not null" json:"position"`
	Kind         TargetKind `gorm:"type:varchar(10);not null" json:"kind"`
	Reference    string     `gorm:"type:varchar(150);not null" json:"reference"`
	Quantity     int        `gorm:"not null;default:1" json:"quantity"`
	ResolvedID   uuid.UUID  `gorm:"type:uuid" json:"resolved_id"`
	ResolvedName string     `gorm:"type:varchar(150)" json:"resolved_name"`
	Note         string     `gorm:"type:varchar(255)" json:"note,omitempty"`
}

func (l *ProtocolLine) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
