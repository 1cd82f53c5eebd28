package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloom/bessarb/core/model"
)

func testBattery() model.Battery {
	return model.Battery{
		CapacityKWh:         10,
		MaxChargeKW:         2.5,
		MaxDischargeKW:      2.5,
		RoundTripEfficiency: 0.9,
		MinSoCKWh:           1,
		MaxSoCKWh:           10,
	}
}

// arbitrageSeries builds 24 hourly points with a cheap morning valley and an
// expensive evening peak.
func arbitrageSeries(start time.Time) []model.PricePoint {
	prices := make([]model.PricePoint, 24)
	for h := 0; h < 24; h++ {
		p := model.PricePoint{Start: start.Add(time.Duration(h) * time.Hour), BuyPrice: 1.5, SellPrice: 1.5}
		if h >= 1 && h <= 3 {
			p.BuyPrice = 0.5
		}
		if h >= 18 && h <= 20 {
			p.SellPrice = 3.0
		}
		prices[h] = p
	}
	return prices
}

func TestOptimizeArbitrageScenario(t *testing.T) {
	opt, err := New(testBattery())
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	plan := opt.Optimize(arbitrageSeries(start), 0, start)
	require.True(t, plan.Success, plan.Error)
	require.Len(t, plan.Intervals, 24)

	for h, iv := range plan.Intervals {
		want := model.ActionIdle
		switch {
		case h >= 1 && h <= 3:
			want = model.ActionCharge
		case h >= 18 && h <= 20:
			want = model.ActionDischarge
		}
		assert.Equalf(t, want, iv.Action, "hour %d", h)
	}

	assert.Greater(t, plan.NetBenefit, 0.0)
	assert.InDelta(t, 0.75, plan.CyclesUsed, 1e-9)
	assert.Equal(t, time.Hour, plan.IntervalLength)
}

func TestOptimizeSoCTrajectory(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	plan := opt.Optimize(arbitrageSeries(start), 0, start)
	require.True(t, plan.Success)

	b := testBattery()
	for i, iv := range plan.Intervals {
		if iv.Action != model.ActionIdle {
			// bounds hold for every interval touched by the simulation
			assert.GreaterOrEqual(t, iv.SoCEnd, b.MinSoCKWh-1e-9)
		}
		assert.LessOrEqual(t, iv.SoCEnd, b.MaxSoCKWh+1e-9)
		if i > 0 {
			assert.Equalf(t, plan.Intervals[i-1].SoCEnd, iv.SoCStart, "interval %d", i)
		}
	}
	// the last discharge hour is clipped so the plan bottoms out at min SoC
	assert.InDelta(t, b.MinSoCKWh, plan.Intervals[20].SoCEnd, 1e-9)
}

func TestOptimizeNoProfitableDischarge(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// best sell price 0.55 stays below 0.5/0.9, so no discharge slot
	// clears the break-even bar
	prices := make([]model.PricePoint, 24)
	for h := range prices {
		buy, sell := 1.5, 0.30
		if h >= 1 && h <= 3 {
			buy = 0.5
		}
		if h >= 18 {
			sell = 0.55
		}
		prices[h] = model.PricePoint{Start: start.Add(time.Duration(h) * time.Hour), BuyPrice: buy, SellPrice: sell}
	}

	plan := opt.Optimize(prices, 0, start)
	require.True(t, plan.Success)
	for h, iv := range plan.Intervals {
		assert.NotEqualf(t, model.ActionDischarge, iv.Action, "hour %d", h)
	}
	assert.Equal(t, 0.0, plan.TotalRevenue)
	assert.Greater(t, plan.TotalCost, 0.0)
}

func TestOptimizeEmptyPrices(t *testing.T) {
	opt, _ := New(testBattery())
	plan := opt.Optimize(nil, 0, time.Now())
	assert.False(t, plan.Success)
	assert.Equal(t, "no price data", plan.Error)
}

func TestOptimizeNoPricesInWindow(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stale := arbitrageSeries(start.Add(-48 * time.Hour))
	plan := opt.Optimize(stale, 0, start)
	assert.False(t, plan.Success)
	assert.Equal(t, "no prices in window", plan.Error)
}

func TestOptimizeDeterministic(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	prices := arbitrageSeries(start)

	a := opt.Optimize(prices, 2.5, start)
	b := opt.Optimize(prices, 2.5, start)
	assert.Equal(t, a, b)
}

func TestOptimizeCandidateSetsDisjoint(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// flat prices: every slot ties on both sorts, forcing maximal overlap
	prices := make([]model.PricePoint, 24)
	for h := range prices {
		prices[h] = model.PricePoint{Start: start.Add(time.Duration(h) * time.Hour), BuyPrice: 1.0, SellPrice: 2.0}
	}
	charge, discharge := opt.selectCandidates(prices, 0, 1)
	for i := range charge {
		assert.Falsef(t, discharge[i], "slot %d in both sets", i)
	}
}

func TestNewRejectsInvalidBattery(t *testing.T) {
	b := testBattery()
	b.RoundTripEfficiency = 0
	_, err := New(b)
	assert.Error(t, err)
}

func TestActionForTime(t *testing.T) {
	opt, _ := New(testBattery())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	plan := opt.Optimize(arbitrageSeries(start), 0, start)
	require.True(t, plan.Success)

	action, iv := ActionForTime(plan, start.Add(2*time.Hour+30*time.Minute))
	require.NotNil(t, iv)
	assert.Equal(t, model.ActionCharge, action)
	assert.Equal(t, start.Add(2*time.Hour), iv.Start)

	action, iv = ActionForTime(plan, start.Add(30*time.Hour))
	assert.Nil(t, iv)
	assert.Equal(t, model.ActionIdle, action)

	action, iv = ActionForTime(model.FailedPlan("boom"), start)
	assert.Nil(t, iv)
	assert.Equal(t, model.ActionIdle, action)
}
