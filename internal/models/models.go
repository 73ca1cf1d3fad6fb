package models

// All lists every model for AutoMigrate, parents before children.
func All() []any {
	return []any{
		&User{},
		&Property{},
		&Room{},
		&InventoryItem{},
		&MaintenanceTask{},
		&AuditLog{},
	}
}
