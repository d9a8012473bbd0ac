package service

import (
	"math"

	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
)

// CalculatorInput is everything the plan total derives from. The calculator
// is pure and trusts its inputs; the tier and plan stores reject negative
// values before anything reaches here.
type CalculatorInput struct {
	Tiers []tierdomain.CommissionTier
	Plan  *plandomain.IndividualPlan
	Stats statsdomain.PeriodStatistics
}

// ComputePlanTotal returns the gross plan total in cents:
//
//	salary + Σ line items + bonus(units tier) + bonus(order-total tier)
//
// Both metric bonuses are additive. Percentage bonuses always scale off the
// period's order total, whichever metric matched. Rounding happens once, on
// the final sum, half away from zero.
func ComputePlanTotal(in CalculatorInput) int64 {
	total := 0.0

	if in.Plan != nil {
		total += float64(in.Plan.SalaryCents)
		for _, item := range in.Plan.LineItems {
			total += float64(item.AmountCents)
		}
	}

	if t := matchTier(in.Tiers, tierdomain.MetricUnitsSold, in.Stats.UnitsSold); t != nil {
		total += tierBonus(*t, in.Stats.OrderTotalCents)
	}
	if t := matchTier(in.Tiers, tierdomain.MetricOrderTotal, in.Stats.OrderTotalCents); t != nil {
		total += tierBonus(*t, in.Stats.OrderTotalCents)
	}

	return roundHalfAwayFromZero(total)
}

// matchTier selects the bracket of the given metric whose [MinValue, MaxValue)
// interval contains value, taking the greatest MinValue among candidates. The
// same rule resolves overlapping brackets deterministically; equal MinValues
// fall back to the lowest SortOrder.
func matchTier(tiers []tierdomain.CommissionTier, metric tierdomain.TierMetric, value int64) *tierdomain.CommissionTier {
	var best *tierdomain.CommissionTier
	for i := range tiers {
		t := &tiers[i]
		if t.Metric != metric {
			continue
		}
		if value < t.MinValue {
			continue
		}
		if t.MaxValue != nil && value >= *t.MaxValue {
			continue
		}
		if best == nil ||
			t.MinValue > best.MinValue ||
			(t.MinValue == best.MinValue && t.SortOrder < best.SortOrder) {
			best = t
		}
	}
	return best
}

// tierBonus returns the matched bracket's contribution in fractional cents.
// Flat brackets pay their amount once; percentage brackets pay their rate
// (basis points) of the order total.
func tierBonus(t tierdomain.CommissionTier, orderTotalCents int64) float64 {
	switch t.BonusForm {
	case tierdomain.BonusPercentage:
		return float64(orderTotalCents) * float64(t.BonusAmountCents) / 10000.0
	default:
		return float64(t.BonusAmountCents)
	}
}

func roundHalfAwayFromZero(raw float64) int64 {
	if raw >= 0 {
		return int64(math.Floor(raw + 0.5))
	}
	return int64(math.Ceil(raw - 0.5))
}
