package models

import "time"

// Dairy sessions. (person, date, session) is the natural key for dairy
// entries: one morning and one evening entry per person per day.
const (
	SessionMorning = "morning"
	SessionEvening = "evening"
)

// DairyEntry records one dairy-cooperative collection session. FatKg,
// MeterKg and the three amount fields are derived at save time from the raw
// milk volume, fat percentage and meter reading.
type DairyEntry struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	UserID      string    `gorm:"column:user_id;index;size:64;not null" json:"-"`
	PersonID    string    `gorm:"column:person_id;index;size:64;not null" json:"personId"`
	PersonName  string    `gorm:"column:person_name;size:255" json:"personName"`
	Date        string    `gorm:"size:10;not null" json:"date"`
	Session     string    `gorm:"size:16;not null" json:"session"`
	Milk        float64   `json:"milk"`
	Fat         float64   `json:"fat"`
	Meter       float64   `json:"meter"`
	Rate        float64   `json:"rate"`
	FatKg       float64   `gorm:"column:fat_kg" json:"fatKg"`
	MeterKg     float64   `gorm:"column:meter_kg" json:"meterKg"`
	FatAmount   float64   `gorm:"column:fat_amount" json:"fatAmount"`
	MeterAmount float64   `gorm:"column:meter_amount" json:"meterAmount"`
	TotalAmount float64   `gorm:"column:total_amount" json:"totalAmount"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
