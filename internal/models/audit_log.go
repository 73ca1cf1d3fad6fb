package models

import "time"

type AuditAction string

const (
	AuditActionCreate           AuditAction = "create"
	AuditActionUpdate           AuditAction = "update"
	AuditActionDelete           AuditAction = "delete"
	AuditActionDeactivate       AuditAction = "deactivate"
	AuditActionStatusChange     AuditAction = "status_change"
	AuditActionBulkStatusUpdate AuditAction = "bulk_status_update"
	AuditActionLogin            AuditAction = "login"
	AuditActionRegister         AuditAction = "register"
)

const (
	EntityUser            = "user"
	EntityProperty        = "property"
	EntityRoom            = "room"
	EntityInventoryItem   = "inventory_item"
	EntityMaintenanceTask = "maintenance_task"
)

// AuditLog rows are append-only.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index" json:"userId"`
	Action     AuditAction    `gorm:"size:30;index" json:"action"`
	EntityType string         `gorm:"size:50;index" json:"entityType"`
	EntityID   uint           `gorm:"index" json:"entityId"`
	Details    map[string]any `gorm:"serializer:json" json:"details,omitempty"`
	IP         string         `gorm:"size:64" json:"ip"`
	UserAgent  string         `gorm:"size:255" json:"userAgent"`
	RequestID  string         `gorm:"size:64" json:"requestId,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"timestamp"`
}
