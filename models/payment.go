package models

import "time"

// Payment direction. Village payments go out to producers; city and dairy
// payments come in, so the type is derived from the category at save time.
const (
	PaymentGiven    = "given"
	PaymentReceived = "received"
)

// PaymentTypeFor returns the payment direction implied by a business line.
func PaymentTypeFor(category string) string {
	if category == CategoryVillage {
		return PaymentGiven
	}
	return PaymentReceived
}

// Payment is a money movement against a person, with a free-text comment.
type Payment struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"column:user_id;index;size:64;not null" json:"-"`
	PersonID   string    `gorm:"column:person_id;index;size:64;not null" json:"personId"`
	PersonName string    `gorm:"column:person_name;size:255" json:"personName"`
	Date       string    `gorm:"size:10;not null" json:"date"`
	Amount     float64   `json:"amount"`
	Comment    string    `gorm:"size:512" json:"comment"`
	Type       string    `gorm:"size:16;not null" json:"type"`
	Category   string    `gorm:"size:16;not null" json:"category"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
