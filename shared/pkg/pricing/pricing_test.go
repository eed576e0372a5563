package pricing_test

import (
	"testing"
	"time"

	"delivery-order-system/shared/pkg/pricing"

	"github.com/stretchr/testify/assert"
)

var card = pricing.RateCard{
	BaseFareCents: 500,
	PerKmCents:    120,
	PerKgCents:    50,
	MinFareCents:  800,
}

func TestCalculate_BaseArithmetic(t *testing.T) {
	q := pricing.Calculate(card, nil, pricing.Input{DistanceKm: 10, WeightKg: 4})

	// 500 + 10*120 + 4*50 = 1900
	assert.Equal(t, 1900, q.TotalCents)
	assert.Len(t, q.Lines, 3)
	assert.Equal(t, 1200, q.Lines[1].AmountCents)
	assert.Equal(t, 200, q.Lines[2].AmountCents)
}

func TestCalculate_RoundsFractionalDistance(t *testing.T) {
	q := pricing.Calculate(card, nil, pricing.Input{DistanceKm: 2.5, WeightKg: 0})
	// 500 + round(2.5*120)=300 -> 800
	assert.Equal(t, 800, q.TotalCents)
}

func TestCalculate_MinFareClamp(t *testing.T) {
	q := pricing.Calculate(card, nil, pricing.Input{DistanceKm: 0, WeightKg: 0})
	// Subtotal 500 is below the 800 minimum.
	assert.Equal(t, 800, q.TotalCents)
	assert.Equal(t, "min_fare_adjustment", q.Lines[len(q.Lines)-1].Label)
}

func TestCalculate_PercentSurcharge(t *testing.T) {
	rules := []pricing.Rule{{
		Name:      "long_distance",
		Kind:      pricing.KindSurcharge,
		Field:     pricing.FieldDistanceKm,
		Op:        pricing.OpGte,
		Min:       20,
		PercentBP: 1500, // 15%
	}}

	q := pricing.Calculate(card, rules, pricing.Input{DistanceKm: 25, WeightKg: 0})
	subtotal := 500 + 25*120
	assert.Equal(t, subtotal+subtotal*1500/10000, q.TotalCents)

	// Below the threshold the rule must not fire.
	q = pricing.Calculate(card, rules, pricing.Input{DistanceKm: 5, WeightKg: 0})
	assert.Len(t, q.Lines, 3)
}

func TestCalculate_FlatNightSurcharge(t *testing.T) {
	rules := []pricing.Rule{{
		Name:      "night",
		Kind:      pricing.KindSurcharge,
		Field:     pricing.FieldHour,
		Op:        pricing.OpBetween,
		Min:       22,
		Max:       23,
		FlatCents: 300,
	}}

	at := time.Date(2026, 8, 26, 22, 30, 0, 0, time.UTC)
	q := pricing.Calculate(card, rules, pricing.Input{DistanceKm: 3, WeightKg: 1, At: at})
	assert.Equal(t, 300, q.Lines[3].AmountCents)

	at = time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	q = pricing.Calculate(card, rules, pricing.Input{DistanceKm: 3, WeightKg: 1, At: at})
	assert.Len(t, q.Lines, 3)
}

func TestCalculate_WeekdayDiscount(t *testing.T) {
	rules := []pricing.Rule{{
		Name:      "sunday_promo",
		Kind:      pricing.KindDiscount,
		Field:     pricing.FieldWeekday,
		Op:        pricing.OpEq,
		Min:       float64(time.Sunday),
		PercentBP: 1000, // 10% off
	}}

	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	q := pricing.Calculate(card, rules, pricing.Input{DistanceKm: 10, WeightKg: 0, At: sunday})
	subtotal := 500 + 10*120
	assert.Equal(t, subtotal-subtotal*1000/10000, q.TotalCents)
	assert.Equal(t, -subtotal*1000/10000, q.Lines[3].AmountCents)
}

func TestCalculate_PercentAppliesToPreRuleSubtotal(t *testing.T) {
	rules := []pricing.Rule{
		{Name: "a", Kind: pricing.KindSurcharge, Field: pricing.FieldDistanceKm, Op: pricing.OpGte, Min: 0, PercentBP: 1000},
		{Name: "b", Kind: pricing.KindSurcharge, Field: pricing.FieldDistanceKm, Op: pricing.OpGte, Min: 0, PercentBP: 1000},
	}
	q := pricing.Calculate(card, rules, pricing.Input{DistanceKm: 10, WeightKg: 0})
	subtotal := 500 + 10*120
	// Both rules see the same subtotal; they do not compound.
	assert.Equal(t, subtotal+2*(subtotal*1000/10000), q.TotalCents)
}

func TestCalculate_DiscountCannotGoNegative(t *testing.T) {
	zero := pricing.RateCard{BaseFareCents: 100, MinFareCents: 0}
	rules := []pricing.Rule{{
		Name:      "huge_promo",
		Kind:      pricing.KindDiscount,
		Field:     pricing.FieldDistanceKm,
		Op:        pricing.OpGte,
		Min:       0,
		FlatCents: 5000,
	}}
	q := pricing.Calculate(zero, rules, pricing.Input{DistanceKm: 1})
	assert.Equal(t, 0, q.TotalCents)
}

func TestCalculate_MalformedRulesAreSkipped(t *testing.T) {
	rules := []pricing.Rule{
		{Name: "bad_field", Kind: pricing.KindSurcharge, Field: "altitude", Op: pricing.OpGte, FlatCents: 100},
		{Name: "bad_op", Kind: pricing.KindSurcharge, Field: pricing.FieldDistanceKm, Op: "like", FlatCents: 100},
		{Name: "inverted_between", Kind: pricing.KindSurcharge, Field: pricing.FieldDistanceKm, Op: pricing.OpBetween, Min: 10, Max: 5, FlatCents: 100},
	}
	q := pricing.Calculate(card, rules, pricing.Input{DistanceKm: 7, WeightKg: 0})
	assert.Len(t, q.Lines, 3)
}
