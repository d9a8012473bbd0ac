package service

import (
	"testing"

	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func unitsTier(min int64, max *int64, form tierdomain.BonusForm, amount int64) tierdomain.CommissionTier {
	return tierdomain.CommissionTier{
		Metric:           tierdomain.MetricUnitsSold,
		MinValue:         min,
		MaxValue:         max,
		BonusForm:        form,
		BonusAmountCents: amount,
	}
}

func orderTotalTier(min int64, max *int64, form tierdomain.BonusForm, amount int64) tierdomain.CommissionTier {
	return tierdomain.CommissionTier{
		Metric:           tierdomain.MetricOrderTotal,
		MinValue:         min,
		MaxValue:         max,
		BonusForm:        form,
		BonusAmountCents: amount,
	}
}

func TestComputePlanTotal_SalaryAndFlatUnitsTier(t *testing.T) {
	// One UnitsSold tier [5, inf) paying a flat 500.00; five units sold,
	// no revenue, salary 2000.00 -> 2500.00.
	total := ComputePlanTotal(CalculatorInput{
		Tiers: []tierdomain.CommissionTier{
			unitsTier(5, nil, tierdomain.BonusFlat, 50_000),
		},
		Plan: &plandomain.IndividualPlan{SalaryCents: 200_000},
		Stats: statsdomain.PeriodStatistics{
			UnitsSold: 5,
		},
	})
	assert.Equal(t, int64(250_000), total)
}

func TestComputePlanTotal_LineItemsAdded(t *testing.T) {
	total := ComputePlanTotal(CalculatorInput{
		Plan: &plandomain.IndividualPlan{
			SalaryCents: 100_000,
			LineItems: []plandomain.PlanLineItem{
				{Name: "Car allowance", AmountCents: 30_000},
				{Name: "Phone", AmountCents: 5_000},
			},
		},
	})
	assert.Equal(t, int64(135_000), total)
}

func TestComputePlanTotal_NilPlanContributesZero(t *testing.T) {
	total := ComputePlanTotal(CalculatorInput{
		Tiers: []tierdomain.CommissionTier{
			unitsTier(1, nil, tierdomain.BonusFlat, 10_000),
		},
		Stats: statsdomain.PeriodStatistics{UnitsSold: 3},
	})
	assert.Equal(t, int64(10_000), total)
}

func TestComputePlanTotal_BothMetricBonusesAdditive(t *testing.T) {
	total := ComputePlanTotal(CalculatorInput{
		Tiers: []tierdomain.CommissionTier{
			unitsTier(5, nil, tierdomain.BonusFlat, 50_000),
			orderTotalTier(1_000_000, nil, tierdomain.BonusFlat, 20_000),
		},
		Stats: statsdomain.PeriodStatistics{
			UnitsSold:       6,
			OrderTotalCents: 1_500_000,
		},
	})
	assert.Equal(t, int64(70_000), total)
}

func TestComputePlanTotal_PercentageScalesOffOrderTotal(t *testing.T) {
	// A 10% tier (1000 bps) over an order total of 50,000.00 pays exactly
	// 5,000.00, even though the matching bracket is units-based.
	total := ComputePlanTotal(CalculatorInput{
		Tiers: []tierdomain.CommissionTier{
			unitsTier(1, nil, tierdomain.BonusPercentage, 1000),
		},
		Stats: statsdomain.PeriodStatistics{
			UnitsSold:       4,
			OrderTotalCents: 5_000_000,
		},
	})
	assert.Equal(t, int64(500_000), total)
}

func TestMatchTier_InclusiveLowerExclusiveUpper(t *testing.T) {
	tiers := []tierdomain.CommissionTier{
		unitsTier(0, int64Ptr(5), tierdomain.BonusFlat, 100),
		unitsTier(5, int64Ptr(10), tierdomain.BonusFlat, 200),
		unitsTier(10, nil, tierdomain.BonusFlat, 300),
	}

	// Exactly at a lower bound selects that tier.
	got := matchTier(tiers, tierdomain.MetricUnitsSold, 5)
	assert.NotNil(t, got)
	assert.Equal(t, int64(200), got.BonusAmountCents)

	// Exactly at an upper bound selects the next tier.
	got = matchTier(tiers, tierdomain.MetricUnitsSold, 10)
	assert.NotNil(t, got)
	assert.Equal(t, int64(300), got.BonusAmountCents)
}

func TestMatchTier_GreatestMinValueWinsOnOverlap(t *testing.T) {
	// Overlapping brackets are a data-quality defect, not an error; the
	// highest qualifying bracket must win deterministically.
	tiers := []tierdomain.CommissionTier{
		unitsTier(0, nil, tierdomain.BonusFlat, 100),
		unitsTier(5, nil, tierdomain.BonusFlat, 200),
		unitsTier(3, nil, tierdomain.BonusFlat, 150),
	}

	got := matchTier(tiers, tierdomain.MetricUnitsSold, 7)
	assert.NotNil(t, got)
	assert.Equal(t, int64(200), got.BonusAmountCents)
}

func TestMatchTier_EqualMinValueFallsBackToSortOrder(t *testing.T) {
	a := unitsTier(5, nil, tierdomain.BonusFlat, 100)
	a.SortOrder = 1
	b := unitsTier(5, nil, tierdomain.BonusFlat, 200)
	b.SortOrder = 0

	got := matchTier([]tierdomain.CommissionTier{a, b}, tierdomain.MetricUnitsSold, 8)
	assert.NotNil(t, got)
	assert.Equal(t, int64(200), got.BonusAmountCents)
}

func TestMatchTier_NoMatchReturnsNil(t *testing.T) {
	tiers := []tierdomain.CommissionTier{
		unitsTier(5, int64Ptr(10), tierdomain.BonusFlat, 100),
	}
	assert.Nil(t, matchTier(tiers, tierdomain.MetricUnitsSold, 4))
	assert.Nil(t, matchTier(tiers, tierdomain.MetricUnitsSold, 10))
	assert.Nil(t, matchTier(tiers, tierdomain.MetricOrderTotal, 7))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(1), roundHalfAwayFromZero(0.5))
	assert.Equal(t, int64(0), roundHalfAwayFromZero(0.49))
	assert.Equal(t, int64(-1), roundHalfAwayFromZero(-0.5))
	assert.Equal(t, int64(2), roundHalfAwayFromZero(1.5))
	assert.Equal(t, int64(-2), roundHalfAwayFromZero(-1.5))
}

func TestComputePlanTotal_RoundsOnceOnFinalSum(t *testing.T) {
	// Two percentage bonuses of 0.33% of 1.01 each produce fractional
	// cents; the sum rounds once, half away from zero.
	total := ComputePlanTotal(CalculatorInput{
		Tiers: []tierdomain.CommissionTier{
			unitsTier(1, nil, tierdomain.BonusPercentage, 33),
			orderTotalTier(0, nil, tierdomain.BonusPercentage, 33),
		},
		Stats: statsdomain.PeriodStatistics{
			UnitsSold:       1,
			OrderTotalCents: 101,
		},
	})
	// 2 * (101 * 0.0033) = 0.6666 cents -> rounds to 1 cent.
	assert.Equal(t, int64(1), total)
}
