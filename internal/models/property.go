package models

import "time"

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyVilla     PropertyType = "villa"
	PropertyCabin     PropertyType = "cabin"
	PropertyOther     PropertyType = "other"
)

type Address struct {
	Street  string `gorm:"size:255" json:"street"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	ZipCode string `gorm:"size:20" json:"zipCode"`
	Country string `gorm:"size:100" json:"country"`
}

// Property is owned by exactly one user. Delete is a soft delete.
type Property struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OwnerID      uint         `gorm:"index;not null" json:"ownerId"`
	Owner        *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name         string       `gorm:"size:200;not null" json:"name"`
	Description  string       `gorm:"size:1000" json:"description"`
	PropertyType PropertyType `gorm:"size:20;not null;default:other" json:"propertyType"`
	Address      Address      `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	IsActive     bool         `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
