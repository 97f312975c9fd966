// Package analysis computes technical analysis over OHLC candles: period
// resampling, Camarilla support/resistance levels, and closing-price
// interpretation.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"stockpulse/internal/market"
)

// Period selects the resampling bucket size.
type Period string

const (
	Daily     Period = "D"
	Weekly    Period = "W"
	Monthly   Period = "M"
	Quarterly Period = "Q"
	Yearly    Period = "Y"
)

// periodNames maps period codes to display names.
var periodNames = map[Period]string{
	Daily:     "Daily",
	Weekly:    "Weekly",
	Monthly:   "Monthly",
	Quarterly: "Quarterly",
	Yearly:    "Yearly",
}

// ParsePeriod validates a period code. Daily is the default for empty input.
func ParsePeriod(code string) (Period, error) {
	if code == "" {
		return Daily, nil
	}
	p := Period(code)
	if _, ok := periodNames[p]; !ok {
		return "", fmt.Errorf("invalid period %q: must be one of D, W, M, Q, Y", code)
	}
	return p, nil
}

// Name returns the display name for the period.
func (p Period) Name() string {
	return periodNames[p]
}

// Resample aggregates candles into buckets of the given period. Within each
// bucket the open is the first value, the close the last, the high the
// maximum and the low the minimum. Bucket dates are the period end, matching
// right-labeled resampling upstream consumers expect.
func Resample(candles []market.Candle, period Period) []market.Candle {
	if len(candles) == 0 || period == Daily {
		return candles
	}

	buckets := make(map[time.Time]*market.Candle)
	for _, c := range candles {
		key := bucketEnd(c.Date, period)
		b, ok := buckets[key]
		if !ok {
			candle := c
			candle.Date = key
			buckets[key] = &candle
			continue
		}
		// Candles arrive date-sorted, so first seen is the open and the
		// latest seen is the close.
		if c.High > b.High {
			b.High = c.High
		}
		if c.Low < b.Low {
			b.Low = c.Low
		}
		b.Close = c.Close
	}

	out := make([]market.Candle, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// bucketEnd returns the inclusive end date of the bucket containing t.
func bucketEnd(t time.Time, period Period) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())

	switch period {
	case Weekly:
		// Weeks end on Sunday
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	case Monthly:
		firstOfNext := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1)
	case Quarterly:
		quarterEndMonth := ((int(m)-1)/3)*3 + 3
		firstOfNext := time.Date(y, time.Month(quarterEndMonth), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1)
	case Yearly:
		return time.Date(y, time.December, 31, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}
