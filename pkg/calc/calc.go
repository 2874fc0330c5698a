// Package calc holds the rate formulas for the three business lines. The
// numeric constants in the dairy formula come from the cooperative's meter
// hardware and are not tunable.
package calc

import (
	"strconv"
	"strings"
)

// VillageResult carries the derived fields of a village entry.
type VillageResult struct {
	MFatKg float64
	EFatKg float64
	Amount float64
}

// Village derives fat weight and payable amount from the four raw inputs of
// a village entry.
func Village(mMilk, mFat, eMilk, eFat, rate float64) VillageResult {
	mFatKg := mMilk * mFat
	eFatKg := eMilk * eFat
	return VillageResult{
		MFatKg: mFatKg,
		EFatKg: eFatKg,
		Amount: rate * (mFatKg + eFatKg),
	}
}

// City derives the payable amount of a city entry.
func City(value, rate float64) float64 {
	return value * rate
}

// DairyResult carries the derived fields of a dairy entry.
type DairyResult struct {
	FatKg       float64
	MeterKg     float64
	FatAmount   float64
	MeterAmount float64
	TotalAmount float64
}

// Dairy derives the fat and meter components of a dairy session's payout.
func Dairy(milk, fat, meter, rate float64) DairyResult {
	fatKg := milk * fat / 1000
	meterKg := ((meter*25 + 14 + 2*fat) * milk) / 10000
	fatAmount := fatKg * rate * 60 / 100
	meterAmount := meterKg * (rate / 327) * 100
	return DairyResult{
		FatKg:       fatKg,
		MeterKg:     meterKg,
		FatAmount:   fatAmount,
		MeterAmount: meterAmount,
		TotalAmount: fatAmount + meterAmount,
	}
}

// Num parses a raw user-entered number. Blank or malformed input counts as
// zero rather than an error, matching how the entry forms treat their fields.
func Num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
