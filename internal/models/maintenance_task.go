package models

import "time"

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "low"
	PriorityMedium MaintenancePriority = "medium"
	PriorityHigh   MaintenancePriority = "high"
	PriorityUrgent MaintenancePriority = "urgent"
)

type MaintenanceTask struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	PropertyID      uint                `gorm:"index;not null" json:"propertyId"`
	InventoryItemID *uint               `gorm:"index" json:"inventoryItemId"`
	Title           string              `gorm:"size:200;not null" json:"title"`
	Description     string              `gorm:"size:2000" json:"description"`
	Status          MaintenanceStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	Priority        MaintenancePriority `gorm:"size:20;not null;default:medium" json:"priority"`
	AssignedToID    *uint               `json:"assignedTo"`
	CreatedByID     uint                `gorm:"not null" json:"createdBy"`
	DueDate         *time.Time          `json:"dueDate"`
	CompletedAt     *time.Time          `json:"completedAt"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
