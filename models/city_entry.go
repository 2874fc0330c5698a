package models

import "time"

// CityEntry records one day's delivered quantity for a city person.
// Amount = Value x Rate, derived at save time.
type CityEntry struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"column:user_id;index;size:64;not null" json:"-"`
	PersonID   string    `gorm:"column:person_id;index;size:64;not null" json:"personId"`
	PersonName string    `gorm:"column:person_name;size:255" json:"personName"`
	Date       string    `gorm:"size:10;not null" json:"date"`
	Value      float64   `json:"value"`
	Rate       float64   `json:"rate"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
