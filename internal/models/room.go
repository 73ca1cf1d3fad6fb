package models

import "time"

type RoomType string

const (
	RoomBedroom    RoomType = "bedroom"
	RoomBathroom   RoomType = "bathroom"
	RoomKitchen    RoomType = "kitchen"
	RoomLivingRoom RoomType = "living_room"
	RoomDiningRoom RoomType = "dining_room"
	RoomOffice     RoomType = "office"
	RoomStorage    RoomType = "storage"
	RoomOutdoor    RoomType = "outdoor"
	RoomOther      RoomType = "other"
)

type Room struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PropertyID  uint      `gorm:"index;not null" json:"propertyId"`
	Property    *Property `gorm:"foreignKey:PropertyID" json:"-"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	RoomType    RoomType  `gorm:"size:20;not null;default:other" json:"roomType"`
	Floor       int       `gorm:"not null;default:0" json:"floor"`
	Description string    `gorm:"size:1000" json:"description"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
