package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantities and prices are stored as numeric(20, 4).
const (
	AmountScale         = 4
	AmountIntegerDigits = 16
)

// maxAmountExponent bounds the exponent accepted before any arithmetic, so
// values such as 1e50000000 are rejected without being expanded.
const maxAmountExponent = 32

var amountLimit = decimal.New(1, AmountIntegerDigits)

// amountProblem describes why d cannot be stored exactly, or returns "".
func amountProblem(d decimal.Decimal) string {
	exp := d.Exponent()
	if exp > AmountIntegerDigits {
		return fmt.Sprintf("out of range (at most %d integer digits)", AmountIntegerDigits)
	}
	if exp < -maxAmountExponent {
		return fmt.Sprintf("more than %d decimal places", AmountScale)
	}
	if !d.Abs().LessThan(amountLimit) {
		return fmt.Sprintf("out of range (at most %d integer digits)", AmountIntegerDigits)
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Sprintf("more than %d decimal places", AmountScale)
	}
	return ""
}

// checkQuantity requires a positive, storable quantity.
func checkQuantity(d decimal.Decimal) error {
	if p := amountProblem(d); p != "" {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, p)
	}
	if !d.IsPositive() {
		return ErrInvalidQuantity
	}
	return nil
}

// checkPrice requires a positive, storable price.
func checkPrice(d decimal.Decimal) error {
	if p := amountProblem(d); p != "" {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, p)
	}
	if !d.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}
