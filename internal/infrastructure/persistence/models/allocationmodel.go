package models

import "time"

// AllocationModel is the GORM model for allocations table.
// provider_activation_id is unique but nullable so multiple unbound rows may coexist.
type AllocationModel struct {
	ID                   uint       `gorm:"primaryKey;autoIncrement"`
	SID                  string     `gorm:"column:sid;type:varchar(50);not null;uniqueIndex:uk_allocations_sid"`
	RequestID            uint       `gorm:"column:request_id;not null;uniqueIndex:uk_allocations_request"`
	Number               string     `gorm:"column:number;type:varchar(32);not null"`
	ServiceCode          string     `gorm:"column:service_code;type:varchar(16);not null"`
	ProviderActivationID *string    `gorm:"column:provider_activation_id;type:varchar(64);uniqueIndex:uk_allocations_activation"`
	PollState            string     `gorm:"column:poll_state;type:varchar(16);not null;default:waiting;index:idx_allocations_poll_state"`
	AssignedAt           time.Time  `gorm:"column:assigned_at;not null"`
	TerminalAt           *time.Time `gorm:"column:terminal_at"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "allocations"
}
