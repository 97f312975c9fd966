// Package charts renders candlestick price charts with pivot level overlays
// as self-contained SVG documents.
package charts

import (
	"fmt"
	"math"
	"strings"

	"stockpulse/internal/analysis"
	"stockpulse/internal/market"
)

// Options configures how a candlestick chart is rendered.
type Options struct {
	Width      int
	Height     int
	MaxCandles int // Only the most recent MaxCandles rows are drawn
	UpColor    string
	DownColor  string
	LevelColor string
	ShowLevels bool
}

// DefaultOptions returns the standard chart configuration.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     450,
		MaxCandles: 5,
		UpColor:    "#28a745",
		DownColor:  "#dc3545",
		LevelColor: "#6c757d",
		ShowLevels: true,
	}
}

const (
	marginTop    = 20
	marginBottom = 40
	marginLeft   = 10
	marginRight  = 110 // Level labels live here
)

// Render draws the most recent candles with the latest row's projected
// levels overlaid as horizontal lines. Levels come from the last row that
// carries them, which is the projection for the next session.
func Render(rows []analysis.Row, title string, opts Options) string {
	if len(rows) == 0 {
		return noDataSVG(opts.Width, opts.Height, "No price data")
	}
	if opts.MaxCandles > 0 && len(rows) > opts.MaxCandles {
		rows = rows[len(rows)-opts.MaxCandles:]
	}

	levels := latestLevels(rows)

	minVal, maxVal := priceBounds(rows, levels, opts.ShowLevels)
	valueRange := maxVal - minVal
	if valueRange == 0 {
		valueRange = 1
	}
	minVal -= valueRange * 0.05
	maxVal += valueRange * 0.05

	plotWidth := opts.Width - marginLeft - marginRight
	plotHeight := opts.Height - marginTop - marginBottom
	slotWidth := float64(plotWidth) / float64(len(rows))
	bodyWidth := slotWidth * 0.6

	var svg strings.Builder
	svg.Grow(4096)

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		opts.Width, opts.Height, opts.Width, opts.Height))
	svg.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)

	if title != "" {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="14" font-size="13" font-weight="bold" fill="#212529">%s</text>`,
			marginLeft, escapeText(title)))
	}

	if opts.ShowLevels && levels != nil {
		writeLevelLines(&svg, levels, minVal, maxVal, plotWidth, plotHeight, opts.LevelColor)
	}

	for i, row := range rows {
		cx := marginLeft + slotWidth*float64(i) + slotWidth/2
		writeCandle(&svg, row.Candle, cx, bodyWidth, minVal, maxVal, plotHeight, opts)

		// Date label under each candle
		svg.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="10" text-anchor="middle" fill="#6c757d">%s</text>`,
			cx, opts.Height-marginBottom+16, row.Date.Format("02 Jan")))
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

// latestLevels walks backwards for the most recent row carrying levels.
func latestLevels(rows []analysis.Row) *analysis.Levels {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Levels != nil {
			return rows[i].Levels
		}
	}
	return nil
}

func writeCandle(svg *strings.Builder, c market.Candle, cx, bodyWidth, minVal, maxVal float64, plotHeight int, opts Options) {
	color := opts.UpColor
	if c.Close < c.Open {
		color = opts.DownColor
	}

	highY := scaleY(c.High, minVal, maxVal, plotHeight)
	lowY := scaleY(c.Low, minVal, maxVal, plotHeight)
	openY := scaleY(c.Open, minVal, maxVal, plotHeight)
	closeY := scaleY(c.Close, minVal, maxVal, plotHeight)

	// Wick
	svg.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
		cx, highY, cx, lowY, color))

	// Body
	bodyTop := math.Min(openY, closeY)
	bodyHeight := math.Abs(openY - closeY)
	if bodyHeight < 1 {
		bodyHeight = 1 // Doji still needs a visible body
	}
	svg.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
		cx-bodyWidth/2, bodyTop, bodyWidth, bodyHeight, color))
}

func writeLevelLines(svg *strings.Builder, lv *analysis.Levels, minVal, maxVal float64, plotWidth, plotHeight int, color string) {
	lines := []struct {
		label string
		value float64
	}{
		{"R6", lv.R6}, {"R5", lv.R5}, {"R4", lv.R4}, {"R3", lv.R3},
		{"PP", lv.PP},
		{"S3", lv.S3}, {"S4", lv.S4}, {"S5", lv.S5}, {"S6", lv.S6},
	}
	for _, ln := range lines {
		if ln.value < minVal || ln.value > maxVal {
			continue
		}
		y := scaleY(ln.value, minVal, maxVal, plotHeight)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-width="1" stroke-dasharray="4,3"/>`,
			marginLeft, y, marginLeft+plotWidth, y, color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="10" fill="%s">%s %.2f</text>`,
			marginLeft+plotWidth+4, y+3, color, ln.label, ln.value))
	}
}

// scaleY maps a price onto the plot area. SVG Y grows downward.
func scaleY(value, minVal, maxVal float64, plotHeight int) float64 {
	normalized := (value - minVal) / (maxVal - minVal)
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	return float64(marginTop) + float64(plotHeight)*(1-normalized)
}

// priceBounds finds the visible value range across candles and levels.
func priceBounds(rows []analysis.Row, lv *analysis.Levels, includeLevels bool) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, r := range rows {
		if r.Low < minVal {
			minVal = r.Low
		}
		if r.High > maxVal {
			maxVal = r.High
		}
	}
	if includeLevels && lv != nil {
		for _, v := range []float64{lv.R6, lv.R5, lv.R4, lv.R3, lv.PP, lv.S3, lv.S4, lv.S5, lv.S6} {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	return minVal, maxVal
}

func noDataSVG(width, height int, message string) string {
	return fmt.Sprintf(
		`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg"><text x="%d" y="%d" text-anchor="middle" dominant-baseline="middle" font-size="12" fill="#6c757d">%s</text></svg>`,
		width, height, width, height, width/2, height/2, message)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
