package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/hackathon-range/shop-backend/internal/model"
)

// ValidatePrice checks that a unit price is positive and within
// model.MaxPrice.
func ValidatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return errors.New("price must be a valid number")
	}
	if p <= 0 {
		return errors.New("price must be a positive number")
	}
	if p > model.MaxPrice {
		return fmt.Errorf("price cannot exceed %g", model.MaxPrice)
	}
	return nil
}

// ValidateTotal checks that an order total is a finite, non-negative
// amount the orders table can hold.
func ValidateTotal(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return errors.New("total must be a valid number")
	}
	if t < 0 {
		return errors.New("total cannot be negative")
	}
	if t > model.MaxOrderTotal {
		return fmt.Errorf("total cannot exceed %.2f", model.MaxOrderTotal)
	}
	return nil
}

// ValidateQuantity checks 1 <= q <= model.MaxQuantity.
func ValidateQuantity(q int) error {
	if q < 1 {
		return errors.New("quantity must be at least 1")
	}
	if q > model.MaxQuantity {
		return fmt.Errorf("quantity cannot exceed %d", model.MaxQuantity)
	}
	return nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
