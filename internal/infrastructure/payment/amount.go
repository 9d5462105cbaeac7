package payment

import (
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// toMajorUnits converts an amount in minor units to the gateway's decimal form
func toMajorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-shared.MinorUnitExponent(currency))
}

// toMinorUnits converts a decimal gateway amount back to minor units, rounding half up
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(shared.MinorUnitExponent(currency)).Round(0).IntPart()
}
