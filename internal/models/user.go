package models

import "time"

type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleManager    UserRole = "manager"
	RoleWaiter     UserRole = "waiter"
	RoleKitchen    UserRole = "kitchen"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User: Personel (garson, mutfak, müdür). Sipariş, bahşiş ve stok
// hareketlerinde aktör olarak referans verilir.
type User struct {
	ID           uint       `gorm:"primaryKey"`
	Name         string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string     `gorm:"size:255;not null"`
	Role         UserRole   `gorm:"size:20;not null"`
	Status       UserStatus `gorm:"size:20;not null;default:active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsWaiter: Bahşiş sadece garsonlara yazılabilir.
func (u *User) IsWaiter() bool {
	return u.Role == RoleWaiter
}
