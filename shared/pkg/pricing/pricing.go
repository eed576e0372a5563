// Package pricing computes delivery quotes from a service rate card and a
// flat list of surcharge/discount rules evaluated by linear scan.
package pricing

import (
	"math"
	"time"
)

type RuleKind string

const (
	KindSurcharge RuleKind = "surcharge"
	KindDiscount  RuleKind = "discount"
)

type Field string

const (
	FieldDistanceKm Field = "distance_km"
	FieldWeightKg   Field = "weight_kg"
	FieldHour       Field = "hour"
	FieldWeekday    Field = "weekday"
)

type Op string

const (
	OpGte     Op = "gte"
	OpLte     Op = "lte"
	OpEq      Op = "eq"
	OpBetween Op = "between"
)

// RateCard is a service catalog entry's base pricing.
type RateCard struct {
	BaseFareCents int
	PerKmCents    int
	PerKgCents    int
	MinFareCents  int
}

// Rule adjusts a quote when its condition matches the delivery. Percent is
// in basis points of the pre-rule subtotal; FlatCents is added as-is.
// Discounts subtract, surcharges add.
type Rule struct {
	Name      string
	Kind      RuleKind
	Field     Field
	Op        Op
	Min       float64
	Max       float64
	PercentBP int
	FlatCents int
}

type Input struct {
	DistanceKm float64
	WeightKg   float64
	At         time.Time
}

type Line struct {
	Label       string `json:"label"`
	AmountCents int    `json:"amount_cents"`
}

type Quote struct {
	DistanceKm float64 `json:"distance_km"`
	WeightKg   float64 `json:"weight_kg"`
	Lines      []Line  `json:"lines"`
	TotalCents int     `json:"total_cents"`
}

// Calculate prices a delivery: base + distance + weight, then every matching
// rule in order. The total never drops below the rate card minimum or zero.
func Calculate(card RateCard, rules []Rule, in Input) Quote {
	distCents := roundCents(in.DistanceKm * float64(card.PerKmCents))
	weightCents := roundCents(in.WeightKg * float64(card.PerKgCents))

	q := Quote{
		DistanceKm: in.DistanceKm,
		WeightKg:   in.WeightKg,
		Lines: []Line{
			{Label: "base_fare", AmountCents: card.BaseFareCents},
			{Label: "distance", AmountCents: distCents},
			{Label: "weight", AmountCents: weightCents},
		},
	}
	subtotal := card.BaseFareCents + distCents + weightCents
	total := subtotal

	for _, r := range rules {
		if !r.matches(in) {
			continue
		}
		amount := r.FlatCents + subtotal*r.PercentBP/10000
		if r.Kind == KindDiscount {
			amount = -amount
		}
		q.Lines = append(q.Lines, Line{Label: r.Name, AmountCents: amount})
		total += amount
	}

	if total < card.MinFareCents {
		q.Lines = append(q.Lines, Line{Label: "min_fare_adjustment", AmountCents: card.MinFareCents - total})
		total = card.MinFareCents
	}
	if total < 0 {
		q.Lines = append(q.Lines, Line{Label: "floor_adjustment", AmountCents: -total})
		total = 0
	}
	q.TotalCents = total
	return q
}

func (r Rule) matches(in Input) bool {
	var v float64
	switch r.Field {
	case FieldDistanceKm:
		v = in.DistanceKm
	case FieldWeightKg:
		v = in.WeightKg
	case FieldHour:
		v = float64(in.At.Hour())
	case FieldWeekday:
		v = float64(in.At.Weekday())
	default:
		return false
	}

	switch r.Op {
	case OpGte:
		return v >= r.Min
	case OpLte:
		return v <= r.Max
	case OpEq:
		return v == r.Min
	case OpBetween:
		return v >= r.Min && v <= r.Max
	default:
		return false
	}
}

func roundCents(v float64) int {
	return int(math.Round(v))
}
