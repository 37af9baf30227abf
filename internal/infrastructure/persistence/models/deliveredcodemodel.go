package models

import "time"

// DeliveredCodeModel is the GORM model for delivered_codes table
type DeliveredCodeModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	AllocationID uint      `gorm:"column:allocation_id;not null;uniqueIndex:uk_delivered_codes_content,priority:1"`
	Content      string    `gorm:"column:content;type:text;not null"`
	ContentHash  string    `gorm:"column:content_hash;type:char(64);not null;uniqueIndex:uk_delivered_codes_content,priority:2"`
	ReceivedAt   time.Time `gorm:"column:received_at;not null"`
	IsDelivered  bool      `gorm:"column:is_delivered;not null;default:false"`
}

// TableName returns the table name for GORM
func (DeliveredCodeModel) TableName() string {
	return "delivered_codes"
}
