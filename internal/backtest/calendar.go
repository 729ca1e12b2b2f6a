package backtest

import (
	"fmt"
	"sort"
	"time"

	"quantbt/internal/domain"
)

// CommonDates computes the sorted intersection of trading dates across all
// non-empty series, clipped to the optional inclusive [start, end] window
// (zero times mean unbounded). It fails when the input mapping is empty or
// when fewer than MinAlignedDays dates remain.
func CommonDates(data map[string]domain.Series, start, end time.Time) ([]time.Time, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}

	var common map[time.Time]struct{}
	for _, series := range data {
		if series.Len() == 0 {
			continue
		}
		if common == nil {
			common = make(map[time.Time]struct{}, series.Len())
			for _, d := range series.Dates() {
				common[d] = struct{}{}
			}
			continue
		}
		next := make(map[time.Time]struct{}, len(common))
		for _, d := range series.Dates() {
			if _, ok := common[d]; ok {
				next[d] = struct{}{}
			}
		}
		common = next
	}

	dates := make([]time.Time, 0, len(common))
	for d := range common {
		if !start.IsZero() && d.Before(domain.Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(domain.Day(end)) {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) < MinAlignedDays {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(dates), MinAlignedDays)
	}
	return dates, nil
}
