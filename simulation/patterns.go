package simulation

import (
	"math"
	"math/rand"
	"time"
)

// TimeOfDay is one of the four fixed demand buckets.
type TimeOfDay string

// The four buckets partition the 24-hour clock with no gaps and no overlaps.
const (
	Morning   TimeOfDay = "morning"   // [6, 12)
	Afternoon TimeOfDay = "afternoon" // [12, 17)
	Evening   TimeOfDay = "evening"   // [17, 22)
	Night     TimeOfDay = "night"     // [22, 6)
)

// Supported payment methods.
const (
	PaymentCash         = "cash"
	PaymentCard         = "card"
	PaymentBankTransfer = "bank_transfer"
	PaymentOnline       = "online"
)

// PatternConfig holds the static configuration of the pattern model.
type PatternConfig struct {
	SalesPerIntervalMin int
	SalesPerIntervalMax int
	PeakMultipliers     map[TimeOfDay]float64
	WeekendMultiplier   float64
	WeekendDays         []time.Weekday
	CustomerAttachRate  float64
}

// DefaultPatternConfig returns the reference deployment configuration:
// a base range of 1-5 sales per interval, peak demand in the evening,
// a Friday/Saturday weekend with a 1.5x boost, and a 60% chance of a
// registered customer per sale.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		SalesPerIntervalMin: 1,
		SalesPerIntervalMax: 5,
		PeakMultipliers: map[TimeOfDay]float64{
			Morning:   1.2,
			Afternoon: 1.5,
			Evening:   2.0,
			Night:     0.5,
		},
		WeekendMultiplier:  1.5,
		WeekendDays:        []time.Weekday{time.Friday, time.Saturday},
		CustomerAttachRate: 0.6,
	}
}

var paymentMethodWeights = []Weighted[string]{
	{Value: PaymentCash, Weight: 0.30},
	{Value: PaymentCard, Weight: 0.35},
	{Value: PaymentBankTransfer, Weight: 0.15},
	{Value: PaymentOnline, Weight: 0.20},
}

// Most line items carry one or two units, occasionally more.
var lineItemQuantityWeights = []Weighted[int]{
	{Value: 1, Weight: 0.50},
	{Value: 2, Weight: 0.30},
	{Value: 3, Weight: 0.12},
	{Value: 4, Weight: 0.05},
	{Value: 5, Weight: 0.03},
}

// Patterns is the demand model of the simulation. Methods taking a timestamp
// are deterministic given that timestamp; the remaining methods draw from the
// configured distributions using the injected randomness source.
type Patterns struct {
	cfg PatternConfig
	rng *rand.Rand
}

// NewPatterns creates a pattern model from the given configuration and
// randomness source. A nil rng falls back to a time-seeded source.
func NewPatterns(cfg PatternConfig, rng *rand.Rand) *Patterns {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // weak random is fine for simulated demand
	}

	return &Patterns{cfg: cfg, rng: rng}
}

// TimeOfDayBucket maps the hour of day into exactly one demand bucket.
func (p *Patterns) TimeOfDayBucket(now time.Time) TimeOfDay {
	hour := now.Hour()

	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// IsWeekendDay reports whether the weekday is one of the configured weekend days.
func (p *Patterns) IsWeekendDay(now time.Time) bool {
	weekday := now.Weekday()
	for _, day := range p.cfg.WeekendDays {
		if weekday == day {
			return true
		}
	}

	return false
}

// DemandMultiplier combines the bucket multiplier with the weekend boost.
// Multipliers compose multiplicatively and the result is always positive.
func (p *Patterns) DemandMultiplier(now time.Time) float64 {
	multiplier, ok := p.cfg.PeakMultipliers[p.TimeOfDayBucket(now)]
	if !ok {
		multiplier = 1.0
	}

	if p.IsWeekendDay(now) {
		multiplier *= p.cfg.WeekendMultiplier
	}

	return multiplier
}

// SalesCountForInterval returns how many sales to generate for the current
// interval: a uniform draw from the configured base range scaled by the
// demand multiplier, with the lower bound never dropping below one.
func (p *Patterns) SalesCountForInterval(now time.Time) int {
	multiplier := p.DemandMultiplier(now)

	adjustedMin := int(math.Floor(float64(p.cfg.SalesPerIntervalMin) * multiplier))
	if adjustedMin < 1 {
		adjustedMin = 1
	}

	adjustedMax := int(math.Floor(float64(p.cfg.SalesPerIntervalMax) * multiplier))
	if adjustedMax < adjustedMin {
		adjustedMax = adjustedMin
	}

	return p.randIntInclusive(adjustedMin, adjustedMax)
}

// ItemsPerSale returns how many distinct products a sale should carry.
// Peak buckets produce larger baskets.
func (p *Patterns) ItemsPerSale(now time.Time) int {
	switch p.TimeOfDayBucket(now) {
	case Evening:
		return p.randIntInclusive(1, 5)
	case Afternoon:
		return p.randIntInclusive(1, 4)
	default:
		return p.randIntInclusive(1, 3)
	}
}

// PaymentMethod draws a payment method from the configured weights.
func (p *Patterns) PaymentMethod() string {
	return ChooseWeighted(p.rng, paymentMethodWeights)
}

// QuantityForLineItem draws the unit count for one line item, in [1, 5].
func (p *Patterns) QuantityForLineItem() int {
	return ChooseWeighted(p.rng, lineItemQuantityWeights)
}

// ShouldAttachCustomer reports whether the sale gets a registered customer,
// independently per sale with the configured probability.
func (p *Patterns) ShouldAttachCustomer() bool {
	return p.rng.Float64() < p.cfg.CustomerAttachRate
}

func (p *Patterns) randIntInclusive(minValue, maxValue int) int {
	if maxValue <= minValue {
		return minValue
	}

	return minValue + p.rng.Intn(maxValue-minValue+1)
}
