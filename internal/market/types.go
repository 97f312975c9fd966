package market

import "time"

// Candle is one OHLC bar for a symbol.
type Candle struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
}

// DateLayout is the wire format for request date ranges (DD-MM-YYYY),
// kept from the upstream exchange API.
const DateLayout = "02-01-2006"
