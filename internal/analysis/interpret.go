package analysis

// Interpretation summarizes what the latest close means relative to the
// projected levels.
type Interpretation struct {
	Scenario  string `json:"scenario"`
	Bias      string `json:"bias"`
	Condition string `json:"condition"`
	Target    string `json:"target"`
	Strategy  string `json:"strategy"`
}

// Interpret classifies the closing price against the Camarilla levels.
func Interpret(close float64, lv *Levels) Interpretation {
	if lv == nil {
		return Interpretation{
			Scenario:  "NO_LEVELS",
			Bias:      "neutral",
			Condition: "Not enough history to project levels",
			Strategy:  "Extend the date range to cover at least two periods",
		}
	}

	switch {
	case close < lv.S3 && close > lv.S4:
		return Interpretation{
			Scenario:  "BULLISH_S3",
			Bias:      "bullish",
			Condition: "Closing below S3 but above S4",
			Target:    "Can move upward towards R3",
			Strategy:  "Look for buying opportunities with strict stop-loss below S4",
		}
	case close < lv.S4 && close > lv.S6:
		return Interpretation{
			Scenario:  "BEARISH_S4",
			Bias:      "bearish",
			Condition: "Closing below S4 and above S5/S6",
			Target:    "Can decline towards S6",
			Strategy:  "Look for selling opportunities with stop-loss above R3",
		}
	case close > lv.R3 && close < lv.R4:
		return Interpretation{
			Scenario:  "BEARISH_R3",
			Bias:      "bearish",
			Condition: "Closing above R3 but below R4",
			Target:    "Can fall back to S3",
			Strategy:  "Consider profit booking or short positions with stop-loss above R4",
		}
	case close > lv.R4 && close < lv.R6:
		return Interpretation{
			Scenario:  "BULLISH_R4",
			Bias:      "bullish",
			Condition: "Closing above R4 but below R5/R6",
			Target:    "Can rise to R6",
			Strategy:  "Hold longs with trailing stop-loss",
		}
	}

	return Interpretation{
		Scenario:  "TRANSITION",
		Bias:      "neutral",
		Condition: "Price is in transition zone",
		Strategy:  "Wait for clear signals",
	}
}
