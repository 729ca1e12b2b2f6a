package signal

import (
	"math"

	"quantbt/internal/domain"
)

// ema computes an exponential moving average over values with the standard
// smoothing factor 2/(period+1), seeded with the first value.
func ema(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// closes extracts the close column of a series.
func closes(history domain.Series) []float64 {
	bars := history.Bars()
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// atr computes the Wilder average true range over the bars. The first
// period entries are a simple average warm-up.
func atr(bars []domain.Bar, period int) []float64 {
	if len(bars) == 0 || period <= 0 {
		return nil
	}
	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := abs(bars[i].High - bars[i-1].Close)
		lowClose := abs(bars[i].Low - bars[i-1].Close)
		tr[i] = max3(highLow, highClose, lowClose)
	}

	out := make([]float64, len(bars))
	var sum float64
	for i, v := range tr {
		if i < period {
			sum += v
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = (out[i-1]*float64(period-1) + v) / float64(period)
	}
	return out
}

// rsi computes the relative strength index over values, smoothing gains and
// losses exponentially with factor 2/(period+1). Before the first delta the
// index is a neutral 50; a window without losses reads 100, one without any
// movement stays at 50.
func rsi(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = 50

	var avgGain, avgLoss float64
	for i := 1; i < len(values); i++ {
		var gain, loss float64
		if delta := values[i] - values[i-1]; delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// bollinger computes rolling-mean Bollinger Bands over values with a sample
// standard deviation. Entries before a full window use the partial window.
func bollinger(values []float64, period int, mult float64) (middle, upper, lower []float64) {
	n := len(values)
	if n == 0 || period <= 1 {
		return nil, nil, nil
	}
	middle = make([]float64, n)
	upper = make([]float64, n)
	lower = make([]float64, n)

	for i := 0; i < n; i++ {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		window := values[lo : i+1]

		var sum float64
		for _, v := range window {
			sum += v
		}
		m := sum / float64(len(window))

		var sd float64
		if len(window) > 1 {
			var sumSq float64
			for _, v := range window {
				d := v - m
				sumSq += d * d
			}
			sd = math.Sqrt(sumSq / float64(len(window)-1))
		}

		middle[i] = m
		upper[i] = m + mult*sd
		lower[i] = m - mult*sd
	}
	return middle, upper, lower
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
