package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/gridloom/bessarb/core/model"
)

// RawEntry is the loose shape price feeds deliver. Field aliases cover the
// upstream formats seen in the wild: "start" or "hour" for the timestamp,
// "price" or "value" for the buy price. The sell price is optional and
// falls back to the buy price.
type RawEntry struct {
	Start     string   `json:"start"`
	Hour      string   `json:"hour"`
	Price     *float64 `json:"price"`
	Value     *float64 `json:"value"`
	SellPrice *float64 `json:"sell_price"`
}

// Normalize converts raw feed entries into an ordered PricePoint series.
// Malformed entries are skipped individually; an error is returned only
// when no entry could be parsed at all.
func Normalize(entries []RawEntry) ([]model.PricePoint, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no price data")
	}
	points := make([]model.PricePoint, 0, len(entries))
	for _, e := range entries {
		p, err := e.toPoint()
		if err != nil {
			continue
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no parseable price entries")
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Start.Before(points[j].Start) })
	return points, nil
}

func (e RawEntry) toPoint() (model.PricePoint, error) {
	raw := e.Start
	if raw == "" {
		raw = e.Hour
	}
	if raw == "" {
		return model.PricePoint{}, fmt.Errorf("missing timestamp")
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	buy := e.Price
	if buy == nil {
		buy = e.Value
	}
	if buy == nil {
		return model.PricePoint{}, fmt.Errorf("missing price")
	}
	sell := *buy
	if e.SellPrice != nil {
		sell = *e.SellPrice
	}
	if sell < 0 {
		sell = 0
	}
	return model.PricePoint{Start: start, BuyPrice: *buy, SellPrice: sell}, nil
}
