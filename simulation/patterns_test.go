package simulation_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storeops/sales-analytics-engine/simulation"
)

// at builds a timestamp on a fixed Wednesday (2026-01-07) with the given hour.
func at(hour int) time.Time {
	return time.Date(2026, time.January, 7, hour, 30, 0, 0, time.UTC)
}

// atWeekday builds a noon timestamp in the week of 2026-01-04 (a Sunday).
func atWeekday(day time.Weekday) time.Time {
	return time.Date(2026, time.January, 4+int(day), 12, 0, 0, 0, time.UTC)
}

func newTestPatterns(seed int64) *simulation.Patterns {
	return simulation.NewPatterns(simulation.DefaultPatternConfig(), rand.New(rand.NewSource(seed)))
}

func Test_TimeOfDayBucket_PartitionsAllHours(t *testing.T) {
	patterns := newTestPatterns(1)

	expected := map[int]simulation.TimeOfDay{}
	for hour := 0; hour < 24; hour++ {
		switch {
		case hour >= 6 && hour < 12:
			expected[hour] = simulation.Morning
		case hour >= 12 && hour < 17:
			expected[hour] = simulation.Afternoon
		case hour >= 17 && hour < 22:
			expected[hour] = simulation.Evening
		default:
			expected[hour] = simulation.Night
		}
	}

	for hour := 0; hour < 24; hour++ {
		assert.Equal(t, expected[hour], patterns.TimeOfDayBucket(at(hour)), "hour %d", hour)
	}
}

func Test_DemandMultiplier_AppliesBucketMultiplier(t *testing.T) {
	patterns := newTestPatterns(1)

	// 2026-01-07 is a Wednesday, so no weekend boost applies.
	assert.InDelta(t, 1.2, patterns.DemandMultiplier(at(9)), 0.0001)
	assert.InDelta(t, 1.5, patterns.DemandMultiplier(at(14)), 0.0001)
	assert.InDelta(t, 2.0, patterns.DemandMultiplier(at(19)), 0.0001)
	assert.InDelta(t, 0.5, patterns.DemandMultiplier(at(2)), 0.0001)
}

func Test_DemandMultiplier_CombinesWeekendBoostMultiplicatively(t *testing.T) {
	patterns := newTestPatterns(1)

	friday := atWeekday(time.Friday)

	// Friday noon: afternoon 1.5 * weekend 1.5.
	assert.InDelta(t, 2.25, patterns.DemandMultiplier(friday), 0.0001)
}

func Test_DemandMultiplier_IsAlwaysPositive(t *testing.T) {
	patterns := newTestPatterns(1)

	for day := time.Sunday; day <= time.Saturday; day++ {
		base := atWeekday(day)
		for hour := 0; hour < 24; hour++ {
			ts := base.Add(time.Duration(hour-12) * time.Hour)
			assert.Greater(t, patterns.DemandMultiplier(ts), 0.0)
		}
	}
}

func Test_IsWeekendDay_UsesConfiguredDays(t *testing.T) {
	patterns := newTestPatterns(1)

	assert.True(t, patterns.IsWeekendDay(atWeekday(time.Friday)))
	assert.True(t, patterns.IsWeekendDay(atWeekday(time.Saturday)))
	assert.False(t, patterns.IsWeekendDay(atWeekday(time.Sunday)))
	assert.False(t, patterns.IsWeekendDay(atWeekday(time.Monday)))
}

func Test_SalesCountForInterval_StaysWithinScaledBounds(t *testing.T) {
	patterns := newTestPatterns(42)

	// Evening on a weekday: multiplier 2.0, so bounds are [2, 10].
	evening := at(19)
	for i := 0; i < 1000; i++ {
		count := patterns.SalesCountForInterval(evening)
		assert.GreaterOrEqual(t, count, 2)
		assert.LessOrEqual(t, count, 10)
	}
}

func Test_SalesCountForInterval_NeverDropsBelowOne(t *testing.T) {
	cfg := simulation.DefaultPatternConfig()
	cfg.SalesPerIntervalMin = 1
	cfg.SalesPerIntervalMax = 1
	cfg.PeakMultipliers[simulation.Night] = 0.1

	patterns := simulation.NewPatterns(cfg, rand.New(rand.NewSource(7)))

	// Night with a 0.1 multiplier floors to zero before clamping.
	night := at(2)
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, patterns.SalesCountForInterval(night), 1)
	}
}

func Test_ItemsPerSale_RespectsBucketRanges(t *testing.T) {
	patterns := newTestPatterns(42)

	checks := []struct {
		hour     int
		maxItems int
	}{
		{hour: 19, maxItems: 5},
		{hour: 14, maxItems: 4},
		{hour: 9, maxItems: 3},
		{hour: 2, maxItems: 3},
	}

	for _, check := range checks {
		for i := 0; i < 500; i++ {
			items := patterns.ItemsPerSale(at(check.hour))
			assert.GreaterOrEqual(t, items, 1, "hour %d", check.hour)
			assert.LessOrEqual(t, items, check.maxItems, "hour %d", check.hour)
		}
	}
}

func Test_PaymentMethod_ConvergesToConfiguredWeights(t *testing.T) {
	patterns := newTestPatterns(99)

	const trials = 100_000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[patterns.PaymentMethod()]++
	}

	assert.InDelta(t, 0.30, float64(counts["cash"])/trials, 0.02)
	assert.InDelta(t, 0.35, float64(counts["card"])/trials, 0.02)
	assert.InDelta(t, 0.15, float64(counts["bank_transfer"])/trials, 0.02)
	assert.InDelta(t, 0.20, float64(counts["online"])/trials, 0.02)
}

func Test_QuantityForLineItem_ConvergesToConfiguredWeights(t *testing.T) {
	patterns := newTestPatterns(99)

	const trials = 100_000
	counts := map[int]int{}
	for i := 0; i < trials; i++ {
		quantity := patterns.QuantityForLineItem()
		assert.GreaterOrEqual(t, quantity, 1)
		assert.LessOrEqual(t, quantity, 5)
		counts[quantity]++
	}

	assert.InDelta(t, 0.50, float64(counts[1])/trials, 0.02)
	assert.InDelta(t, 0.30, float64(counts[2])/trials, 0.02)
	assert.InDelta(t, 0.12, float64(counts[3])/trials, 0.02)
	assert.InDelta(t, 0.05, float64(counts[4])/trials, 0.02)
	assert.InDelta(t, 0.03, float64(counts[5])/trials, 0.02)
}

func Test_ShouldAttachCustomer_MatchesConfiguredRate(t *testing.T) {
	patterns := newTestPatterns(5)

	const trials = 100_000
	attached := 0
	for i := 0; i < trials; i++ {
		if patterns.ShouldAttachCustomer() {
			attached++
		}
	}

	assert.InDelta(t, 0.6, float64(attached)/trials, 0.02)
}

func Test_Patterns_SameSeedProducesSameDraws(t *testing.T) {
	first := newTestPatterns(1234)
	second := newTestPatterns(1234)

	for i := 0; i < 100; i++ {
		assert.Equal(t, first.PaymentMethod(), second.PaymentMethod())
		assert.Equal(t, first.QuantityForLineItem(), second.QuantityForLineItem())
		assert.Equal(t, first.SalesCountForInterval(at(19)), second.SalesCountForInterval(at(19)))
	}
}

func Test_ChooseWeighted_HandlesSingleChoice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	choices := []simulation.Weighted[string]{{Value: "only", Weight: 1.0}}
	for i := 0; i < 10; i++ {
		assert.Equal(t, "only", simulation.ChooseWeighted(rng, choices))
	}
}

func Test_ChooseWeighted_NeverSelectsZeroWeightChoiceFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	choices := []simulation.Weighted[string]{
		{Value: "never", Weight: 0.0},
		{Value: "always", Weight: 1.0},
	}

	for i := 0; i < 1000; i++ {
		assert.Equal(t, "always", simulation.ChooseWeighted(rng, choices))
	}
}
