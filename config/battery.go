package config

import (
	"fmt"

	"github.com/gridloom/bessarb/core/model"
)

// BatteryConfig describes the battery in installer-friendly units: power in
// kW, efficiency and SoC bounds in percent.
type BatteryConfig struct {
	CapacityKWh       float64 `json:"capacity_kwh"`
	MaxChargeKW       float64 `json:"max_charge_kw"`
	MaxDischargeKW    float64 `json:"max_discharge_kw"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	MinSoCPercent     float64 `json:"min_soc_percent"`
	MaxSoCPercent     float64 `json:"max_soc_percent"`
}

// SetDefaults applies the stock residential battery parameters.
func (c *BatteryConfig) SetDefaults() {
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 10.0
	}
	if c.MaxChargeKW == 0 {
		c.MaxChargeKW = 2.5
	}
	if c.MaxDischargeKW == 0 {
		c.MaxDischargeKW = 2.5
	}
	if c.EfficiencyPercent == 0 {
		c.EfficiencyPercent = 90
	}
	if c.MinSoCPercent == 0 {
		c.MinSoCPercent = 10
	}
	if c.MaxSoCPercent == 0 {
		c.MaxSoCPercent = 100
	}
}

// Validate checks the parameters via the core model.
func (c BatteryConfig) Validate() error {
	if c.EfficiencyPercent <= 0 || c.EfficiencyPercent > 100 {
		return fmt.Errorf("efficiency_percent must be in (0,100]")
	}
	return c.Model().Validate()
}

// Model converts the percent-based configuration to the core battery model.
func (c BatteryConfig) Model() model.Battery {
	return model.Battery{
		CapacityKWh:         c.CapacityKWh,
		MaxChargeKW:         c.MaxChargeKW,
		MaxDischargeKW:      c.MaxDischargeKW,
		RoundTripEfficiency: c.EfficiencyPercent / 100,
		MinSoCKWh:           c.CapacityKWh * c.MinSoCPercent / 100,
		MaxSoCKWh:           c.CapacityKWh * c.MaxSoCPercent / 100,
	}
}
