package models

import "github.com/shopspring/decimal"

// Round2 rounds a currency figure to 2 decimal places, half away from zero.
// Nil stays nil.
func Round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r, _ := decimal.NewFromFloat(*v).Round(2).Float64()
	return &r
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
