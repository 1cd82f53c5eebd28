package pricing

import (
	"context"
	"time"

	"github.com/gridloom/bessarb/core/model"
)

// PriceProvider supplies the normalized price series covering at least the
// next 24 hours from now. How the series is sourced is outside the core.
type PriceProvider interface {
	Prices(ctx context.Context, now time.Time) ([]model.PricePoint, error)
}

// SoCProvider reports the current battery state of charge in kWh. Unit
// conversion from percentage happens behind this boundary.
type SoCProvider interface {
	CurrentSoCKWh(ctx context.Context) (float64, error)
}
