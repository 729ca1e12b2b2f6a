package backtest

import (
	"math"
	"time"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// buildResults derives the final statistics report from the accumulated
// trade list and equity curve. It is a pure function of the engine's final
// state.
func buildResults(cfg Config, startDate, endDate time.Time, trades []Trade, equityDates []time.Time, equity []float64, maxDrawdown float64) *Results {
	finalCapital := cfg.InitialCapital
	if len(equity) > 0 {
		finalCapital = equity[len(equity)-1]
	}

	totalReturn := finalCapital - cfg.InitialCapital
	totalReturnPct := totalReturn / cfg.InitialCapital * 100

	annualized := 0.0
	if days := endDate.Sub(startDate).Hours() / 24; days > 0 {
		annualized = (math.Pow(finalCapital/cfg.InitialCapital, 365.25/days) - 1) * 100
	}

	var winners, losers []Trade
	for _, t := range trades {
		if t.PnL > 0 {
			winners = append(winners, t)
		} else {
			losers = append(losers, t)
		}
	}

	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(len(winners)) / float64(len(trades)) * 100
	}

	returns := dailyReturns(equityDates, equity)
	values := make([]float64, len(returns))
	for i, p := range returns {
		values[i] = p.Value
	}

	curve := make([]Point, len(equity))
	for i := range equity {
		curve[i] = Point{Date: equityDates[i], Value: equity[i]}
	}

	return &Results{
		StartDate:          startDate,
		EndDate:            endDate,
		InitialCapital:     cfg.InitialCapital,
		FinalCapital:       finalCapital,
		TotalReturn:        totalReturn,
		TotalReturnPercent: totalReturnPct,
		AnnualizedReturn:   annualized,
		MaxDrawdown:        maxDrawdown,
		SharpeRatio:        sharpeRatio(values, cfg.RiskFreeRate),
		SortinoRatio:       sortinoRatio(values, cfg.RiskFreeRate),
		WinRate:            winRate,
		ProfitFactor:       profitFactor(winners, losers),
		TotalTrades:        len(trades),
		WinningTrades:      len(winners),
		LosingTrades:       len(losers),
		AvgWin:             meanPnL(winners),
		AvgLoss:            meanPnL(losers),
		AvgHoldingDays:     meanHolding(trades),
		Trades:             trades,
		DailyReturns:       returns,
		EquityCurve:        curve,
	}
}

// dailyReturns is the percentage change between consecutive equity samples,
// keyed by the later sample's date.
func dailyReturns(dates []time.Time, equity []float64) []Point {
	if len(equity) < 2 {
		return nil
	}
	out := make([]Point, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		out = append(out, Point{
			Date:  dates[i],
			Value: (equity[i] - equity[i-1]) / equity[i-1],
		})
	}
	return out
}

// sharpeRatio is the annualized mean excess daily return over the standard
// deviation of daily returns. It is 0 for an empty or zero-variance series.
func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	dailyRiskFree := riskFreeRate / tradingDaysPerYear
	return (mean(returns) - dailyRiskFree) / std * math.Sqrt(tradingDaysPerYear)
}

// sortinoRatio is the annualized mean excess daily return over the standard
// deviation of only the negative excess returns. With no downside
// observations at all it is +Inf when the mean excess is positive and 0
// otherwise; downside observations without a defined sample deviation (one
// sample, or all identical) yield 0 rather than an unbounded ratio.
func sortinoRatio(returns []float64, riskFreeRate float64) Ratio {
	if len(returns) == 0 {
		return 0
	}
	dailyRiskFree := riskFreeRate / tradingDaysPerYear

	excess := make([]float64, len(returns))
	var downside []float64
	for i, r := range returns {
		excess[i] = r - dailyRiskFree
		if excess[i] < 0 {
			downside = append(downside, excess[i])
		}
	}

	meanExcess := mean(excess)
	if len(downside) == 0 {
		if meanExcess > 0 {
			return Ratio(math.Inf(1))
		}
		return 0
	}
	downStd := stddev(downside)
	if downStd == 0 {
		return 0
	}
	return Ratio(meanExcess / downStd * math.Sqrt(tradingDaysPerYear))
}

// profitFactor is gross winning P&L over the magnitude of gross losing P&L:
// +Inf with winners and no losers, 0 with no trades at all.
func profitFactor(winners, losers []Trade) Ratio {
	var won, lost float64
	for _, t := range winners {
		won += t.PnL
	}
	for _, t := range losers {
		lost += t.PnL
	}
	if lost == 0 {
		if won > 0 {
			return Ratio(math.Inf(1))
		}
		return 0
	}
	return Ratio(math.Abs(won / lost))
}

func meanPnL(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trades {
		sum += t.PnL
	}
	return sum / float64(len(trades))
}

func meanHolding(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trades {
		sum += float64(t.HoldingDays)
	}
	return sum / float64(len(trades))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation; it returns 0 for fewer than two
// observations.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
