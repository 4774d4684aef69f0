package indicators

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func constSeries(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func rampSeries(n int, start, step float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = start + float64(i)*step
	}
	return s
}

func TestRSIInsufficientHistory(t *testing.T) {
	for n := 0; n <= RSIPeriod; n++ {
		if _, ok := RSI(rampSeries(n, 100, 1), RSIPeriod); ok {
			t.Errorf("RSI with %d closes: want absent", n)
		}
	}
	if _, ok := RSI(rampSeries(RSIPeriod+1, 100, 1), RSIPeriod); !ok {
		t.Errorf("RSI with %d closes: want present", RSIPeriod+1)
	}
}

func TestRSIExtremes(t *testing.T) {
	// All gains: avgLoss == 0, so RSI is pinned at 100.
	if rsi, ok := RSI(rampSeries(15, 100, 1), RSIPeriod); !ok || rsi != 100 {
		t.Errorf("all-gain RSI = %v, %v; want 100, true", rsi, ok)
	}

	// A flat series has zero losses as well.
	if rsi, ok := RSI(constSeries(20, 50), RSIPeriod); !ok || rsi != 100 {
		t.Errorf("flat RSI = %v, %v; want 100, true", rsi, ok)
	}

	// All losses: avgGain == 0, RS == 0, RSI == 0.
	if rsi, ok := RSI(rampSeries(15, 100, -1), RSIPeriod); !ok || !almostEqual(rsi, 0) {
		t.Errorf("all-loss RSI = %v, %v; want 0, true", rsi, ok)
	}
}

func TestRSIBalanced(t *testing.T) {
	// Alternating +1/-1 deltas: equal average gain and loss, RS = 1, RSI = 50.
	closes := make([]float64, 15)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 10
		} else {
			closes[i] = 11
		}
	}
	rsi, ok := RSI(closes, RSIPeriod)
	if !ok || !almostEqual(rsi, 50) {
		t.Errorf("balanced RSI = %v, %v; want 50, true", rsi, ok)
	}
}

func TestRSIWilderRecurrence(t *testing.T) {
	// 14 gains of 1 seed avgGain=1, avgLoss=0. One trailing loss of 1:
	// avgGain = 13/14, avgLoss = 1/14, RS = 13, RSI = 100 - 100/14.
	closes := append(rampSeries(15, 1, 1), 14)
	rsi, ok := RSI(closes, RSIPeriod)
	want := 100 - 100.0/14.0
	if !ok || !almostEqual(rsi, want) {
		t.Errorf("RSI = %v, %v; want %v, true", rsi, ok, want)
	}
}

func TestRSIBounds(t *testing.T) {
	// Deterministic pseudo-random walk stays within [0, 100].
	closes := make([]float64, 60)
	price := 100.0
	for i := range closes {
		// Simple LCG-style wiggle; no randomness needed.
		price += float64((i*7919)%13) - 6
		closes[i] = price
	}
	rsi, ok := RSI(closes, RSIPeriod)
	if !ok {
		t.Fatal("RSI absent for 60 closes")
	}
	if rsi < 0 || rsi > 100 {
		t.Errorf("RSI = %v out of [0, 100]", rsi)
	}
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4}, 3)
	if len(got) != 2 {
		t.Fatalf("EMA length = %d, want 2", len(got))
	}
	// Seed is mean(1,2,3) = 2; k = 0.5; next = 4*0.5 + 2*0.5 = 3.
	if !almostEqual(got[0], 2) || !almostEqual(got[1], 3) {
		t.Errorf("EMA = %v, want [2 3]", got)
	}

	if EMA([]float64{1, 2}, 3) != nil {
		t.Error("EMA with short input: want nil")
	}
}

func TestMACDThresholds(t *testing.T) {
	cases := []struct {
		n                int
		lineOK, signalOK bool
	}{
		{25, false, false},
		{26, true, false},
		{34, true, false},
		{35, true, true},
		{60, true, true},
	}
	for _, tc := range cases {
		_, _, _, lineOK, signalOK := MACD(constSeries(tc.n, 100))
		if lineOK != tc.lineOK || signalOK != tc.signalOK {
			t.Errorf("MACD(%d closes): lineOK=%v signalOK=%v, want %v %v",
				tc.n, lineOK, signalOK, tc.lineOK, tc.signalOK)
		}
	}
}

func TestMACDFlatSeries(t *testing.T) {
	// Every EMA of a constant series is that constant, so line, signal and
	// histogram are all exactly zero.
	line, signal, hist, lineOK, signalOK := MACD(constSeries(40, 123.45))
	if !lineOK || !signalOK {
		t.Fatal("MACD absent for 40 closes")
	}
	if !almostEqual(line, 0) || !almostEqual(signal, 0) || !almostEqual(hist, 0) {
		t.Errorf("flat MACD = (%v, %v, %v), want zeros", line, signal, hist)
	}
}

func TestMACDUptrendSign(t *testing.T) {
	// In a steady uptrend the fast EMA sits above the slow EMA.
	line, _, _, lineOK, _ := MACD(rampSeries(40, 100, 1))
	if !lineOK {
		t.Fatal("MACD line absent")
	}
	if line <= 0 {
		t.Errorf("uptrend MACD line = %v, want > 0", line)
	}
}

func TestComputeKeysAlwaysPresent(t *testing.T) {
	for _, n := range []int{0, 5, 14, 15, 26, 34, 35, 60} {
		snap := Compute("NSE:KCB", rampSeries(n, 20, 0.1))
		raw, err := json.Marshal(snap)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		for _, key := range []string{`"rsi":`, `"macd":`, `"macd_signal":`, `"macd_hist":`} {
			if !strings.Contains(string(raw), key) {
				t.Errorf("n=%d: output %s missing key %s", n, raw, key)
			}
		}
	}
}

func TestComputeIndependentThresholds(t *testing.T) {
	// 20 closes: enough for RSI, not for any MACD output.
	snap := Compute("NSE:SCOM", rampSeries(20, 20, 0.1))
	if snap.RSI == nil {
		t.Error("RSI absent with 20 closes")
	}
	if snap.MACD != nil || snap.MACDSignal != nil || snap.MACDHist != nil {
		t.Error("MACD outputs present with 20 closes")
	}

	// 30 closes: RSI and MACD line, no signal or histogram.
	snap = Compute("NSE:SCOM", rampSeries(30, 20, 0.1))
	if snap.RSI == nil || snap.MACD == nil {
		t.Error("RSI or MACD line absent with 30 closes")
	}
	if snap.MACDSignal != nil || snap.MACDHist != nil {
		t.Error("signal/histogram present with 30 closes")
	}

	// 35 closes: everything.
	snap = Compute("NSE:SCOM", rampSeries(35, 20, 0.1))
	if snap.RSI == nil || snap.MACD == nil || snap.MACDSignal == nil || snap.MACDHist == nil {
		t.Error("missing outputs with 35 closes")
	}
}
