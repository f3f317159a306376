// Package membership owns the tier benefit table. Every discount,
// insurance, and eco-contribution figure in the system comes from here;
// nothing else may hard-code these values.
package membership

import (
	"fmt"
	"strings"
	"time"

	"subiclife/models"
	"subiclife/utils"
)

// Benefits for one membership tier. Discount is a fraction of the
// booking total, Insurance and Eco are peso amounts, Price is the
// one-time membership fee.
type Benefits struct {
	Discount  float64
	Insurance float64
	Eco       float64
	Price     float64
}

var tierTable = map[models.Tier]Benefits{
	models.TierStarter: {Discount: 0.05, Insurance: 10000, Eco: 50, Price: 499},
	models.TierBasic:   {Discount: 0.10, Insurance: 25000, Eco: 100, Price: 999},
	models.TierPremium: {Discount: 0.15, Insurance: 50000, Eco: 150, Price: 2499},
	models.TierElite:   {Discount: 0.25, Insurance: 100000, Eco: 250, Price: 4999},
}

// TierBenefits looks up the benefit row for a tier. ok is false for the
// zero tier (no membership yet) or an unknown value.
func TierBenefits(t models.Tier) (Benefits, bool) {
	b, ok := tierTable[t]
	return b, ok
}

// DiscountFor returns the peso discount a user at tier t gets on total.
// A user without a tier gets no discount.
func DiscountFor(t models.Tier, total float64) float64 {
	b, ok := tierTable[t]
	if !ok {
		return 0
	}
	return total * b.Discount
}

// MemberID builds a display code like SL-2025-ELITE-1234.
func MemberID(t models.Tier, now time.Time) string {
	return fmt.Sprintf("SL-%d-%s-%s", now.Year(), strings.ToUpper(string(t)), utils.GenerateRandomDigitString(4))
}

// ValidityFor returns the membership expiry for a purchase made at now.
func ValidityFor(now time.Time) time.Time {
	return now.AddDate(1, 0, 0)
}

const checkInBonus = 50

// PointsFor converts a completed booking's final amount into loyalty
// points: 1 point per 100 pesos spent, plus a flat check-in bonus.
func PointsFor(finalAmount float64) int {
	return int(finalAmount/100) + checkInBonus
}
