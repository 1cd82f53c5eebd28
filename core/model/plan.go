package model

import "time"

// Action is the planned battery behaviour for one interval.
type Action int

const (
	ActionIdle Action = iota
	ActionCharge
	ActionDischarge
)

func (a Action) String() string {
	switch a {
	case ActionCharge:
		return "charge"
	case ActionDischarge:
		return "discharge"
	default:
		return "idle"
	}
}

// PlanInterval carries the planned action and the simulated energy flows
// for one price interval. SoCEnd of interval i equals SoCStart of i+1.
type PlanInterval struct {
	Start           time.Time `json:"start"`
	Action          Action    `json:"action"`
	BuyPrice        float64   `json:"buy_price"`
	SellPrice       float64   `json:"sell_price"`
	ChargeKWh       float64   `json:"charge_kwh"`
	DischargeKWh    float64   `json:"discharge_kwh"`
	ExpectedCost    float64   `json:"expected_cost"`
	ExpectedRevenue float64   `json:"expected_revenue"`
	SoCStart        float64   `json:"soc_start"`
	SoCEnd          float64   `json:"soc_end"`
}

// Plan is the full output of one optimization run. Plans are replaced
// wholesale, never mutated in place.
type Plan struct {
	Success        bool           `json:"success"`
	Intervals      []PlanInterval `json:"intervals"`
	IntervalLength time.Duration  `json:"interval_length"`
	TotalCost      float64        `json:"total_cost"`
	TotalRevenue   float64        `json:"total_revenue"`
	NetBenefit     float64        `json:"net_benefit"`
	CyclesUsed     float64        `json:"cycles_used"`
	ComputedAt     time.Time      `json:"computed_at"`
	Error          string         `json:"error,omitempty"`
}

// FailedPlan builds an unsuccessful plan carrying only an error message.
func FailedPlan(msg string) Plan {
	return Plan{Success: false, Error: msg}
}
