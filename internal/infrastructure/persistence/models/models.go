// Package models holds the GORM table models.
package models

// All returns every model in dependency order, for AutoMigrate in tests and development.
func All() []interface{} {
	return []interface{}{
		&ClientModel{},
		&NumberRequestModel{},
		&AllocationModel{},
		&DeliveredCodeModel{},
	}
}
