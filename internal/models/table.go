package models

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

type Table struct {
	ID        uint        `gorm:"primaryKey"`
	Name      string      `gorm:"size:50;not null;unique"` // "Masa 4", "Bahçe 2" vs.
	Capacity  int         `gorm:"not null;default:4"`
	Status    TableStatus `gorm:"size:20;not null;default:available"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
