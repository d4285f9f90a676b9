package parser

import (
	"fmt"

	"CandleKeeper/internal/model"
)

// assemble zips the accumulated columns positionally. Order is kept as
// delivered; nothing is sorted or deduplicated.
func assemble(acc *accumulators, interval string) ([]model.Candlestick, error) {
	n := acc.len(fieldTimestamp)
	candles := make([]model.Candlestick, 0, n)

	for i := 0; i < n; i++ {
		for f := fieldOpen; f < numFields; f++ {
			if acc.len(f) <= i {
				return nil, fmt.Errorf("%w: cannot build candlestick at index %d: missing %s",
					model.ErrConsistency, i, f)
			}
		}
		candles = append(candles, model.Candlestick{
			Timestamp: acc.ints[fieldTimestamp][i],
			Open:      acc.prices[fieldOpen][i],
			Close:     acc.prices[fieldClose][i],
			Low:       acc.prices[fieldLow][i],
			High:      acc.prices[fieldHigh][i],
			Volume:    acc.ints[fieldVolume][i],
			Interval:  interval,
		})
	}
	return candles, nil
}
