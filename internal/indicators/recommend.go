package indicators

import "trading-backend/internal/models"

// RSI bands for the recommendation policy. Tunable, but the three-way
// partition and the insufficient-data default are contractual.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// Derive maps an indicator snapshot to a discrete trade recommendation. It is
// total: when any required indicator is absent the answer is hold, because
// insufficient evidence means no action.
func Derive(snap models.IndicatorSnapshot) models.Recommendation {
	rec := models.Recommendation{
		Symbol:         snap.Symbol,
		Recommendation: models.RecommendHold,
	}

	if snap.RSI == nil || snap.MACDHist == nil {
		return rec
	}

	switch {
	case *snap.RSI < RSIOversold && *snap.MACDHist > 0:
		rec.Recommendation = models.RecommendBuy
	case *snap.RSI > RSIOverbought && *snap.MACDHist < 0:
		rec.Recommendation = models.RecommendSell
	}
	return rec
}
