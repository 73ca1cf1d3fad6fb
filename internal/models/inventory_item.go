package models

import "time"

type InventoryStatus string

const (
	InventoryOK             InventoryStatus = "ok"
	InventoryMissing        InventoryStatus = "missing"
	InventoryDamaged        InventoryStatus = "damaged"
	InventoryNeedsAttention InventoryStatus = "needs_attention"
)

// InventoryItem belongs to a Room. PropertyID is copied from the room so
// property-level queries do not need a join.
type InventoryItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	RoomID          uint            `gorm:"index;not null" json:"roomId"`
	PropertyID      uint            `gorm:"index;not null" json:"propertyId"`
	Name            string          `gorm:"size:200;not null" json:"name"`
	Category        string          `gorm:"size:100;index" json:"category"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Status          InventoryStatus `gorm:"size:20;not null;default:ok;index" json:"status"`
	Notes           string          `gorm:"size:1000" json:"notes"`
	LastCheckedByID *uint           `json:"lastCheckedBy"`
	LastCheckedAt   *time.Time      `json:"lastCheckedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
