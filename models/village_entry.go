package models

import "time"

// VillageEntry records one day of morning/evening milk collection for a
// village person. MFatKg, EFatKg and Amount are derived at save time; the
// intent is at most one entry per (person, date), enforced by lookup in the
// save path rather than by a storage constraint.
type VillageEntry struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"column:user_id;index;size:64;not null" json:"-"`
	PersonID   string    `gorm:"column:person_id;index;size:64;not null" json:"personId"`
	PersonName string    `gorm:"column:person_name;size:255" json:"personName"`
	Date       string    `gorm:"size:10;not null" json:"date"`
	MMilk      float64   `gorm:"column:m_milk" json:"mMilk"`
	MFat       float64   `gorm:"column:m_fat" json:"mFat"`
	EMilk      float64   `gorm:"column:e_milk" json:"eMilk"`
	EFat       float64   `gorm:"column:e_fat" json:"eFat"`
	MFatKg     float64   `gorm:"column:m_fat_kg" json:"mFatKg"`
	EFatKg     float64   `gorm:"column:e_fat_kg" json:"eFatKg"`
	Rate       float64   `json:"rate"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
