package indicators

import (
	"testing"

	"trading-backend/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestDerive(t *testing.T) {
	cases := []struct {
		name string
		snap models.IndicatorSnapshot
		want string
	}{
		{"no indicators", models.IndicatorSnapshot{Symbol: "NSE:SCOM"}, models.RecommendHold},
		{"rsi only", models.IndicatorSnapshot{RSI: ptr(25)}, models.RecommendHold},
		{"hist only", models.IndicatorSnapshot{MACDHist: ptr(1)}, models.RecommendHold},
		{"oversold with rising hist", models.IndicatorSnapshot{RSI: ptr(25), MACDHist: ptr(0.4)}, models.RecommendBuy},
		{"oversold with falling hist", models.IndicatorSnapshot{RSI: ptr(25), MACDHist: ptr(-0.4)}, models.RecommendHold},
		{"overbought with falling hist", models.IndicatorSnapshot{RSI: ptr(75), MACDHist: ptr(-0.4)}, models.RecommendSell},
		{"overbought with rising hist", models.IndicatorSnapshot{RSI: ptr(75), MACDHist: ptr(0.4)}, models.RecommendHold},
		{"neutral rsi", models.IndicatorSnapshot{RSI: ptr(50), MACDHist: ptr(2)}, models.RecommendHold},
		{"boundary oversold", models.IndicatorSnapshot{RSI: ptr(30), MACDHist: ptr(1)}, models.RecommendHold},
		{"boundary overbought", models.IndicatorSnapshot{RSI: ptr(70), MACDHist: ptr(-1)}, models.RecommendHold},
	}

	valid := map[string]bool{
		models.RecommendBuy:  true,
		models.RecommendSell: true,
		models.RecommendHold: true,
	}

	for _, tc := range cases {
		got := Derive(tc.snap)
		if got.Recommendation != tc.want {
			t.Errorf("%s: Derive = %q, want %q", tc.name, got.Recommendation, tc.want)
		}
		if !valid[got.Recommendation] {
			t.Errorf("%s: Derive produced out-of-range value %q", tc.name, got.Recommendation)
		}
	}
}

func TestDeriveKeepsSymbol(t *testing.T) {
	got := Derive(models.IndicatorSnapshot{Symbol: "NSE:EQTY"})
	if got.Symbol != "NSE:EQTY" {
		t.Errorf("Derive symbol = %q, want NSE:EQTY", got.Symbol)
	}
}
