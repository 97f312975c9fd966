package charts

import (
	"strings"
	"testing"
	"time"

	"stockpulse/internal/analysis"
	"stockpulse/internal/market"
)

func testRows(n int) []analysis.Row {
	rows := make([]analysis.Row, 0, n)
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100 + float64(i)
		rows = append(rows, analysis.Row{
			Candle: market.Candle{
				Date:   base.AddDate(0, 0, i),
				Symbol: "RELIANCE",
				Open:   price,
				High:   price + 5,
				Low:    price - 5,
				Close:  price + 2,
			},
		})
	}
	return rows
}

func TestRenderBasicChart(t *testing.T) {
	rows := testRows(3)
	svg := Render(rows, "RELIANCE Daily", DefaultOptions())

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete SVG document")
	}
	if !strings.Contains(svg, "RELIANCE Daily") {
		t.Error("expected chart title in output")
	}
	if got := strings.Count(svg, "<rect"); got != 4 { // Background + 3 bodies
		t.Errorf("expected 4 rects, got %d", got)
	}
	if got := strings.Count(svg, "<line"); got != 3 { // One wick per candle
		t.Errorf("expected 3 wicks, got %d", got)
	}
}

func TestRenderCapsCandleCount(t *testing.T) {
	rows := testRows(12)
	svg := Render(rows, "", DefaultOptions())

	// Default cap is 5 candles, each drawing one body rect.
	if got := strings.Count(svg, "<rect"); got != 6 {
		t.Errorf("expected 6 rects for capped chart, got %d", got)
	}
	// Only the most recent dates survive.
	if strings.Contains(svg, "03 Aug") {
		t.Error("expected oldest candle to be trimmed")
	}
	if !strings.Contains(svg, "14 Aug") {
		t.Error("expected newest candle to be drawn")
	}
}

func TestRenderLevelOverlay(t *testing.T) {
	rows := testRows(2)
	rows[1].Levels = &analysis.Levels{
		PP: 101, R3: 104, R4: 105.5, R5: 107, R6: 106,
		S3: 98, S4: 96.5, S5: 95, S6: 96,
	}
	svg := Render(rows, "", DefaultOptions())

	for _, label := range []string{"PP", "R3", "R4", "S3", "S4"} {
		if !strings.Contains(svg, ">"+label+" ") {
			t.Errorf("expected level label %s in output", label)
		}
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("expected dashed level lines")
	}
}

func TestRenderNoData(t *testing.T) {
	svg := Render(nil, "EMPTY", DefaultOptions())
	if !strings.Contains(svg, "No price data") {
		t.Error("expected no-data message")
	}
}

func TestRenderEscapesTitle(t *testing.T) {
	svg := Render(testRows(1), "A<B & C", DefaultOptions())
	if strings.Contains(svg, "A<B") {
		t.Error("expected title to be escaped")
	}
	if !strings.Contains(svg, "A&lt;B &amp; C") {
		t.Error("expected escaped entities in title")
	}
}
