package models

import "time"

// ClientModel is the GORM model for clients table
type ClientModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	PlatformID int64     `gorm:"column:platform_id;not null;uniqueIndex:uk_clients_platform_id"`
	Username   string    `gorm:"column:username;type:varchar(100)"`
	FirstName  string    `gorm:"column:first_name;type:varchar(100)"`
	LastName   string    `gorm:"column:last_name;type:varchar(100)"`
	Status     string    `gorm:"column:status;type:varchar(16);not null;default:pending;index:idx_clients_status"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}
