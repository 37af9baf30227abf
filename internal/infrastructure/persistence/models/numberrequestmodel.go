package models

import "time"

// NumberRequestModel is the GORM model for number_requests table
type NumberRequestModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	SID         string     `gorm:"column:sid;type:varchar(50);not null;uniqueIndex:uk_number_requests_sid"`
	ClientID    uint       `gorm:"column:client_id;not null;index:idx_number_requests_client"`
	Service     string     `gorm:"column:service;type:varchar(32);not null"`
	Status      string     `gorm:"column:status;type:varchar(16);not null;default:pending;index:idx_number_requests_status"`
	RequestedAt time.Time  `gorm:"column:requested_at;not null"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	DecidedBy   *int64     `gorm:"column:decided_by"`
}

// TableName returns the table name for GORM
func (NumberRequestModel) TableName() string {
	return "number_requests"
}
