package model

import (
	"fmt"
	"math"
)

// Battery holds the physical parameters of the storage system. It is built
// from configuration at startup and treated as immutable afterwards.
type Battery struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	MinSoCKWh           float64 `json:"min_soc_kwh"`
	MaxSoCKWh           float64 `json:"max_soc_kwh"`
}

// Validate checks the physical consistency of the parameters.
func (b Battery) Validate() error {
	if b.CapacityKWh <= 0 {
		return fmt.Errorf("capacity_kwh must be positive, got %v", b.CapacityKWh)
	}
	if b.MaxChargeKW < 0 || b.MaxDischargeKW < 0 {
		return fmt.Errorf("power limits must be non-negative")
	}
	if b.RoundTripEfficiency <= 0 || b.RoundTripEfficiency > 1 {
		return fmt.Errorf("round_trip_efficiency must be in (0,1], got %v", b.RoundTripEfficiency)
	}
	if b.MinSoCKWh < 0 || b.MinSoCKWh > b.MaxSoCKWh || b.MaxSoCKWh > b.CapacityKWh {
		return fmt.Errorf("soc bounds must satisfy 0 <= min <= max <= capacity")
	}
	return nil
}

// SqrtEfficiency returns the per-conversion efficiency. The round-trip loss
// is split evenly between the charge and discharge conversions.
func (b Battery) SqrtEfficiency() float64 {
	return math.Sqrt(b.RoundTripEfficiency)
}
