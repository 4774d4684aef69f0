// Package indicators computes technical indicators over chronological close
// prices (oldest first). All functions are pure and deterministic.
package indicators

import "trading-backend/internal/models"

// Standard indicator parameters.
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Minimum history lengths. Each indicator output goes absent independently
// under its own threshold.
const (
	minRSI      = RSIPeriod + 1         // 15: need RSIPeriod deltas
	minMACDLine = MACDSlow              // 26: slow EMA must be seeded
	minMACDSig  = MACDSlow + MACDSignal // 35: signal EMA over the MACD line
)

// RSI computes the Wilder-smoothed Relative Strength Index over the given
// period. The seed averages are the simple mean of the first period deltas;
// subsequent deltas use avg = (avg*(period-1) + v) / period. Returns false
// when fewer than period+1 closes are available.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// EMA computes the exponential moving average series for the given period.
// The first value is the simple mean of the first period inputs; each later
// value follows ema = v*k + prev*(1-k) with k = 2/(period+1). The returned
// slice holds len(values)-period+1 entries, the i-th corresponding to
// values[period-1+i]. Returns nil when there are not enough values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out = append(out, ema)

	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// MACD computes the MACD line, signal line, and histogram for the standard
// 12/26/9 parameters. lineOK reports whether the close series is long enough
// for the line (>= 26 closes); signalOK whether it is long enough for the
// signal and histogram (>= 35 closes).
func MACD(closes []float64) (line, signal, hist float64, lineOK, signalOK bool) {
	if len(closes) < minMACDLine {
		return 0, 0, 0, false, false
	}

	fast := EMA(closes, MACDFast)
	slow := EMA(closes, MACDSlow)

	// Align the fast series to the slow one: slow[i] covers
	// closes[MACDSlow-1+i], which is fast[MACDSlow-MACDFast+i].
	offset := MACDSlow - MACDFast
	macdSeries := make([]float64, len(slow))
	for i := range slow {
		macdSeries[i] = fast[offset+i] - slow[i]
	}
	line = macdSeries[len(macdSeries)-1]
	lineOK = true

	if len(closes) < minMACDSig {
		return line, 0, 0, lineOK, false
	}
	signalSeries := EMA(macdSeries, MACDSignal)
	signal = signalSeries[len(signalSeries)-1]
	hist = line - signal
	return line, signal, hist, true, true
}

// Compute builds the full indicator snapshot for a close series. All four
// output fields are always present; each is nil when its own minimum history
// requirement is not met.
func Compute(symbol string, closes []float64) models.IndicatorSnapshot {
	snap := models.IndicatorSnapshot{Symbol: symbol}

	if rsi, ok := RSI(closes, RSIPeriod); ok {
		snap.RSI = &rsi
	}
	if line, signal, hist, lineOK, signalOK := MACD(closes); lineOK {
		snap.MACD = &line
		if signalOK {
			snap.MACDSignal = &signal
			snap.MACDHist = &hist
		}
	}
	return snap
}
