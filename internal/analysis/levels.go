package analysis

import (
	"math"

	"stockpulse/internal/market"
)

// Levels holds the Camarilla pivot levels projected for one period from the
// previous period's OHLC values.
type Levels struct {
	PP float64 `json:"pp"`
	R3 float64 `json:"r3"`
	R4 float64 `json:"r4"`
	R5 float64 `json:"r5"`
	R6 float64 `json:"r6"`
	S3 float64 `json:"s3"`
	S4 float64 `json:"s4"`
	S5 float64 `json:"s5"`
	S6 float64 `json:"s6"`
}

// Row pairs a candle with the levels projected onto it. The first row of a
// series has no prior period to project from, so Levels is nil there.
type Row struct {
	market.Candle
	Levels *Levels `json:"levels,omitempty"`
}

// LevelMeta describes how a level is read by traders.
type LevelMeta struct {
	Name           string `json:"name"`
	Interpretation string `json:"interpretation"`
	Action         string `json:"action"`
}

// LevelDescriptions maps level keys to their trading interpretation.
var LevelDescriptions = map[string]LevelMeta{
	"R6": {
		Name:           "Target 2 LONG",
		Interpretation: "Strong resistance level and second target for long positions.",
		Action:         "Consider closing remaining long positions or trailing stop-loss",
	},
	"R5": {
		Name:           "Target 1 LONG",
		Interpretation: "First target for long positions.",
		Action:         "Consider taking partial profits on long positions",
	},
	"R4": {
		Name:           "Breakout",
		Interpretation: "Key breakout level. Price above suggests bullish momentum.",
		Action:         "Watch for bullish continuation patterns",
	},
	"R3": {
		Name:           "Sell reversal",
		Interpretation: "Potential reversal zone for short entries.",
		Action:         "Look for bearish reversal patterns",
	},
	"PP": {
		Name:           "Pivot Point",
		Interpretation: "Key pivot level. Acts as support/resistance.",
		Action:         "Monitor price action around this level",
	},
	"S3": {
		Name:           "Buy reversal",
		Interpretation: "Potential reversal zone for long entries.",
		Action:         "Look for bullish reversal patterns",
	},
	"S4": {
		Name:           "Breakdown",
		Interpretation: "Key breakdown level. Price below suggests bearish momentum.",
		Action:         "Watch for bearish continuation patterns",
	},
	"S5": {
		Name:           "Target 1 SHORT",
		Interpretation: "First target for short positions.",
		Action:         "Consider taking partial profits on short positions",
	},
	"S6": {
		Name:           "Target 2 SHORT",
		Interpretation: "Strong support level and second target for short positions.",
		Action:         "Consider closing remaining short positions or trailing stop-loss",
	},
}

// CalculateLevels projects Camarilla levels onto each candle from its
// predecessor. Rows whose source candle has a non-positive low produce no
// levels, since the R6 ratio would not be finite.
func CalculateLevels(candles []market.Candle) []Row {
	rows := make([]Row, len(candles))
	for i, c := range candles {
		rows[i] = Row{Candle: c}
	}

	for x := 0; x+1 < len(candles); x++ {
		src := candles[x]
		if src.Low <= 0 {
			continue
		}

		spread := src.High - src.Low
		c := src.Close

		r3 := c + spread*1.1/4
		r4 := c + spread*1.1/2
		r6 := (src.High / src.Low) * c
		s3 := c - spread*1.1/4
		s4 := c - spread*1.1/2

		lv := &Levels{
			PP: (src.High + src.Low + c) / 3,
			R3: r3,
			R4: r4,
			R5: r4 + 1.168*(r4-r3),
			R6: r6,
			S3: s3,
			S4: s4,
			S5: s4 - 1.168*(s3-s4),
			S6: 2*c - r6,
		}
		if !finite(lv) {
			continue
		}
		rows[x+1].Levels = lv
	}

	return rows
}

func finite(lv *Levels) bool {
	for _, v := range []float64{lv.PP, lv.R3, lv.R4, lv.R5, lv.R6, lv.S3, lv.S4, lv.S5, lv.S6} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
