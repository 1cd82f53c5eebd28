package optimizer

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/gridloom/bessarb/core/model"
)

// Horizon is the forward window one optimization run considers.
const Horizon = 24 * time.Hour

// candidateFraction caps how much of the horizon a single action may claim.
// Without the cap a small battery would commit the whole day to one action.
const candidateFraction = 3

// Optimizer produces arbitrage plans with a greedy heuristic: pick the
// cheapest intervals to charge, the most valuable to discharge, then run a
// single forward simulation that enforces SoC bounds. Optimize is a pure
// function of its inputs; the Optimizer holds only the battery parameters.
type Optimizer struct {
	battery model.Battery
}

// New validates the battery parameters and returns an Optimizer.
func New(battery model.Battery) (*Optimizer, error) {
	if err := battery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid battery: %w", err)
	}
	return &Optimizer{battery: battery}, nil
}

// Optimize builds a plan for the window [horizonStart, horizonStart+24h)
// from the given price series and the current state of charge. It never
// fails once at least one price point falls inside the window.
func (o *Optimizer) Optimize(prices []model.PricePoint, currentSoCKWh float64, horizonStart time.Time) model.Plan {
	if len(prices) == 0 {
		return model.FailedPlan("no price data")
	}

	horizonEnd := horizonStart.Add(Horizon)
	window := make([]model.PricePoint, 0, len(prices))
	for _, p := range prices {
		if !p.Start.Before(horizonStart) && p.Start.Before(horizonEnd) {
			window = append(window, p)
		}
	}
	if len(window) == 0 {
		return model.FailedPlan("no prices in window")
	}
	sort.SliceStable(window, func(i, j int) bool { return window[i].Start.Before(window[j].Start) })

	slotLength := intervalLength(window)
	slotHours := slotLength.Hours()

	charge, discharge := o.selectCandidates(window, currentSoCKWh, slotHours)

	intervals, totalCharged := o.simulate(window, currentSoCKWh, slotHours, charge, discharge)

	costs := make([]float64, len(intervals))
	revenues := make([]float64, len(intervals))
	for i, iv := range intervals {
		costs[i] = iv.ExpectedCost
		revenues[i] = iv.ExpectedRevenue
	}
	totalCost := floats.Sum(costs)
	totalRevenue := floats.Sum(revenues)

	return model.Plan{
		Success:        true,
		Intervals:      intervals,
		IntervalLength: slotLength,
		TotalCost:      totalCost,
		TotalRevenue:   totalRevenue,
		NetBenefit:     totalRevenue - totalCost,
		CyclesUsed:     totalCharged / o.battery.CapacityKWh,
	}
}

// selectCandidates picks the charge and discharge interval indices. The two
// sets are disjoint: an interval claimed by both goes to discharge.
func (o *Optimizer) selectCandidates(window []model.PricePoint, soc, slotHours float64) (charge, discharge map[int]bool) {
	n := len(window)
	sqrtEff := o.battery.SqrtEfficiency()

	chargePerSlot := o.battery.MaxChargeKW * sqrtEff * slotHours
	nCharge := 0
	if chargePerSlot > 0 {
		nCharge = int((o.battery.MaxSoCKWh - soc) / chargePerSlot)
	}
	if limit := n / candidateFraction; nCharge > limit {
		nCharge = limit
	}
	if nCharge < 0 {
		nCharge = 0
	}

	dischargePerSlot := o.battery.MaxDischargeKW * sqrtEff * slotHours
	nDischarge := 0
	if dischargePerSlot > 0 {
		nDischarge = int(o.battery.MaxSoCKWh / dischargePerSlot)
	}
	if limit := n / candidateFraction; nDischarge > limit {
		nDischarge = limit
	}

	byBuy := make([]int, n)
	bySell := make([]int, n)
	for i := range window {
		byBuy[i] = i
		bySell[i] = i
	}
	sort.SliceStable(byBuy, func(a, b int) bool { return window[byBuy[a]].BuyPrice < window[byBuy[b]].BuyPrice })
	sort.SliceStable(bySell, func(a, b int) bool { return window[bySell[a]].SellPrice > window[bySell[b]].SellPrice })

	discharge = make(map[int]bool, nDischarge)
	for _, i := range bySell[:nDischarge] {
		discharge[i] = true
	}
	charge = make(map[int]bool, nCharge)
	for _, i := range byBuy[:nCharge] {
		if !discharge[i] {
			charge[i] = true
		}
	}

	// Drop discharge slots that cannot beat the round-trip-adjusted cost of
	// the cheapest planned charge.
	minChargePrice := 0.0
	if len(charge) > 0 {
		buys := make([]float64, 0, len(charge))
		for i := range charge {
			buys = append(buys, window[i].BuyPrice)
		}
		minChargePrice = floats.Min(buys)
	}
	breakEven := minChargePrice / o.battery.RoundTripEfficiency
	for i := range discharge {
		if window[i].SellPrice <= breakEven {
			delete(discharge, i)
		}
	}
	return charge, discharge
}

// simulate walks the window once, carrying the state of charge forward and
// degrading infeasible candidate actions to idle. It returns the intervals
// and the total drawn charge energy in kWh.
func (o *Optimizer) simulate(window []model.PricePoint, soc, slotHours float64, charge, discharge map[int]bool) ([]model.PlanInterval, float64) {
	b := o.battery
	sqrtEff := b.SqrtEfficiency()
	intervals := make([]model.PlanInterval, 0, len(window))
	totalCharged := 0.0

	for i, p := range window {
		iv := model.PlanInterval{
			Start:     p.Start,
			Action:    model.ActionIdle,
			BuyPrice:  p.BuyPrice,
			SellPrice: p.SellPrice,
			SoCStart:  soc,
		}
		switch {
		case charge[i] && soc < b.MaxSoCKWh:
			drawn := b.MaxChargeKW * slotHours
			if room := (b.MaxSoCKWh - soc) / sqrtEff; drawn > room {
				drawn = room
			}
			iv.Action = model.ActionCharge
			iv.ChargeKWh = drawn
			iv.ExpectedCost = drawn * p.BuyPrice
			soc += drawn * sqrtEff
			totalCharged += drawn
		case discharge[i] && soc > b.MinSoCKWh:
			removed := b.MaxDischargeKW * slotHours
			if avail := soc - b.MinSoCKWh; removed > avail {
				removed = avail
			}
			iv.Action = model.ActionDischarge
			iv.DischargeKWh = removed
			iv.ExpectedRevenue = removed * sqrtEff * p.SellPrice
			soc -= removed
		}
		iv.SoCEnd = soc
		intervals = append(intervals, iv)
	}
	return intervals, totalCharged
}

// intervalLength infers the slot length from the first two points of the
// sorted window, defaulting to one hour.
func intervalLength(window []model.PricePoint) time.Duration {
	if len(window) >= 2 {
		if d := window[1].Start.Sub(window[0].Start); d > 0 {
			return d
		}
	}
	return time.Hour
}

// ActionForTime returns the planned action covering ts, or idle with a nil
// interval when the plan does not cover that time.
func ActionForTime(plan model.Plan, ts time.Time) (model.Action, *model.PlanInterval) {
	if !plan.Success {
		return model.ActionIdle, nil
	}
	length := plan.IntervalLength
	if length <= 0 {
		length = time.Hour
	}
	for i := range plan.Intervals {
		iv := &plan.Intervals[i]
		if !ts.Before(iv.Start) && ts.Before(iv.Start.Add(length)) {
			return iv.Action, iv
		}
	}
	return model.ActionIdle, nil
}
