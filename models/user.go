package models

import "time"

// User is an account row in the remote store. The ID doubles as the owner
// key scoping every other table.
type User struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:255;not null;unique"`
	PasswordHash []byte `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
