// Package domain holds the shared market-data types used across quantbt.
package domain

import (
	"sort"
	"time"
)

// Bar is a single daily OHLCV observation for one symbol.
type Bar struct {
	Symbol     string
	Date       time.Time // trading day, normalized to midnight UTC
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Day normalizes t to midnight UTC so bars from different sources compare
// equal on the same trading day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series is a date-indexed sequence of daily bars for one symbol, sorted
// ascending by date. Duplicate dates are collapsed, keeping the last bar
// seen for that date.
type Series struct {
	bars []Bar
}

// NewSeries builds a Series from bars in any order. Bar dates are
// normalized with Day.
func NewSeries(bars []Bar) Series {
	byDate := make(map[time.Time]Bar, len(bars))
	for _, b := range bars {
		b.Date = Day(b.Date)
		byDate[b.Date] = b
	}

	sorted := make([]Bar, 0, len(byDate))
	for _, b := range byDate {
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return Series{bars: sorted}
}

// Len returns the number of bars in the series.
func (s Series) Len() int { return len(s.bars) }

// Bars returns the underlying bars in date order. Callers must not mutate
// the returned slice.
func (s Series) Bars() []Bar { return s.bars }

// Dates returns every bar date in ascending order.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		dates[i] = b.Date
	}
	return dates
}

// At returns the bar observed on exactly the given date.
func (s Series) At(date time.Time) (Bar, bool) {
	date = Day(date)
	i := s.searchDate(date)
	if i < len(s.bars) && s.bars[i].Date.Equal(date) {
		return s.bars[i], true
	}
	return Bar{}, false
}

// LatestOn returns the most recent bar on or before the given date. It is
// used to value or close a position across a data gap.
func (s Series) LatestOn(date time.Time) (Bar, bool) {
	date = Day(date)
	i := s.searchDate(date)
	if i < len(s.bars) && s.bars[i].Date.Equal(date) {
		return s.bars[i], true
	}
	if i == 0 {
		return Bar{}, false
	}
	return s.bars[i-1], true
}

// UpTo returns the sub-series of bars up to and including the given date.
// The result shares backing storage with s.
func (s Series) UpTo(date time.Time) Series {
	date = Day(date)
	i := s.searchDate(date)
	if i < len(s.bars) && s.bars[i].Date.Equal(date) {
		i++
	}
	return Series{bars: s.bars[:i]}
}

// Last returns the final bar of the series.
func (s Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// searchDate returns the smallest index whose bar date is >= date.
func (s Series) searchDate(date time.Time) int {
	return sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Date.Before(date)
	})
}
