package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SampleStatus string

const (
	SampleAvailable    SampleStatus = "AVAILABLE"
	SampleCheckedOut   SampleStatus = "CHECKED_OUT"
	SampleSold         SampleStatus = "SOLD"
	SampleDiscontinued SampleStatus = "DISCONTINUED"
)

type SampleAction string

// DefaultDestination is recorded when a checkout names no client.
const DefaultDestination = "unspecified client"

const (
	ActionCheckout     SampleAction = "CHECKOUT"
	ActionReturn       SampleAction = "RETURN"
	ActionSold         SampleAction = "SOLD"
	ActionDiscontinued SampleAction = "DISCONTINUED"
)

// SampleTransition is one row of the lifecycle table.
type SampleTransition struct {
	From []SampleStatus
	To   SampleStatus
}

// SampleTransitions is the legal lifecycle: anything not listed is rejected.
var SampleTransitions = map[SampleAction]SampleTransition{
	ActionCheckout:     {From: []SampleStatus{SampleAvailable}, To: SampleCheckedOut},
	ActionReturn:       {From: []SampleStatus{SampleCheckedOut}, To: SampleAvailable},
	ActionSold:         {From: []SampleStatus{SampleAvailable, SampleCheckedOut}, To: SampleSold},
	ActionDiscontinued: {From: []SampleStatus{SampleAvailable, SampleCheckedOut, SampleSold}, To: SampleDiscontinued},
}

// NextStatus returns the status reached by applying action from the given status.
func NextStatus(from SampleStatus, action SampleAction) (SampleStatus, bool) {
	t, ok := SampleTransitions[action]
	if !ok {
		return from, false
	}
	for _, s := range t.From {
		if s == from {
			return t.To, true
		}
	}
	return from, false
}

var sampleActionAliases = map[string]SampleAction{
	"checkout":     ActionCheckout,
	"check_out":    ActionCheckout,
	"check-out":    ActionCheckout,
	"retirar":      ActionCheckout,
	"return":       ActionReturn,
	"devolver":     ActionReturn,
	"sold":         ActionSold,
	"sell":         ActionSold,
	"vender":       ActionSold,
	"discontinued": ActionDiscontinued,
	"discontinue":  ActionDiscontinued,
	"descontinuar": ActionDiscontinued,
}

// ParseSampleAction accepts the enum names plus the verbs used by the web forms and the assistant.
func ParseSampleAction(s string) (SampleAction, bool) {
	a, ok := sampleActionAliases[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

type Sample struct {
	BaseModel
	Name     string       `gorm:"type:varchar(150);not null;index" json:"name" validate:"notblank"`
	AssetTag string       `gorm:"type:varchar(50);index" json:"asset_tag"`
	Status   SampleStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	Location string       `gorm:"type:varchar(100)" json:"location"`

	// Loan state. Destination and CheckedOutAt are set only while CHECKED_OUT;
	// Holder is also kept on SOLD to record the seller.
	Holder             *string    `gorm:"type:varchar(100)" json:"holder,omitempty"`
	Destination        *string    `gorm:"type:varchar(150)" json:"destination,omitempty"`
	DestinationAddress *string    `gorm:"type:varchar(255)" json:"destination_address,omitempty"`
	CheckedOutAt       *time.Time `json:"checked_out_at,omitempty"`
	ExpectedReturnAt   *time.Time `json:"expected_return_at,omitempty"`
	// ProtocolID is the handoff protocol the current loan belongs to, if any.
	ProtocolID *uuid.UUID `gorm:"type:uuid;index" json:"protocol_id,omitempty"`
}

// ClearLoan drops every field that only makes sense while the sample is out.
func (s *Sample) ClearLoan() {
	s.Destination = nil
	s.DestinationAddress = nil
	s.CheckedOutAt = nil
	s.ExpectedReturnAt = nil
	s.ProtocolID = nil
}

// OnLoanFor reports whether the sample is still out under the given protocol.
func (s *Sample) OnLoanFor(protocolID uuid.UUID) bool {
	return s.Status == SampleCheckedOut && s.ProtocolID != nil && *s.ProtocolID == protocolID
}

// IsOverdue reports whether a checked-out sample is past its expected return.
func (s *Sample) IsOverdue(now time.Time) bool {
	return s.Status == SampleCheckedOut && s.ExpectedReturnAt != nil && now.After(*s.ExpectedReturnAt)
}

// HolderName is the holder or "-" for display.
func (s *Sample) HolderName() string {
	if s.Holder == nil || *s.Holder == "" {
		return "-"
	}
	return *s.Holder
}
