package models

import "time"

// Categories partition people and their transactions into the three business
// lines. A person's category is treated as fixed once entries reference them.
const (
	CategoryVillage = "village"
	CategoryCity    = "city"
	CategoryDairy   = "dairy"
)

// ValidCategory reports whether s names one of the three business lines.
func ValidCategory(s string) bool {
	return s == CategoryVillage || s == CategoryCity || s == CategoryDairy
}

// Person is a producer the books track. Value is the per-unit rate fed into
// the entry calculators for that person's category.
type Person struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"column:user_id;index;size:64;not null" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Value     float64   `gorm:"not null" json:"value"`
	Category  string    `gorm:"size:16;not null" json:"category"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
