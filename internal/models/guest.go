package models

import "time"

type Guest struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	PhoneNumber string `gorm:"size:30;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
