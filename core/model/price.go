package model

import "time"

// PricePoint is one interval of the normalized price series. Start values
// are strictly increasing and intervals are contiguous and equal-length.
type PricePoint struct {
	Start     time.Time `json:"start"`
	BuyPrice  float64   `json:"buy_price"`
	SellPrice float64   `json:"sell_price"`
}
