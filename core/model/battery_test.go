package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBattery() Battery {
	return Battery{
		CapacityKWh:         10,
		MaxChargeKW:         2.5,
		MaxDischargeKW:      2.5,
		RoundTripEfficiency: 0.9,
		MinSoCKWh:           1,
		MaxSoCKWh:           10,
	}
}

func TestBatteryValidate(t *testing.T) {
	assert.NoError(t, validBattery().Validate())

	b := validBattery()
	b.CapacityKWh = 0
	assert.Error(t, b.Validate())

	b = validBattery()
	b.RoundTripEfficiency = 1.2
	assert.Error(t, b.Validate())

	b = validBattery()
	b.MinSoCKWh = 11
	assert.Error(t, b.Validate())

	b = validBattery()
	b.MaxSoCKWh = 12
	assert.Error(t, b.Validate())

	b = validBattery()
	b.MaxChargeKW = -1
	assert.Error(t, b.Validate())
}

func TestSqrtEfficiency(t *testing.T) {
	b := validBattery()
	assert.InDelta(t, math.Sqrt(0.9), b.SqrtEfficiency(), 1e-12)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "idle", ActionIdle.String())
	assert.Equal(t, "charge", ActionCharge.String())
	assert.Equal(t, "discharge", ActionDischarge.String())
}
