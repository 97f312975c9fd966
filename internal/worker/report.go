package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockpulse/internal/analysis"
	"stockpulse/internal/charts"
	"stockpulse/internal/database"
	"stockpulse/internal/mailer"
	"stockpulse/internal/market"
)

// jobDateLayout is the DD-MM-YYYY format report jobs use for their date
// range, matching the API's query parameters.
const jobDateLayout = "02-01-2006"

// HistoryFetcher supplies historical candles for a symbol.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.Candle, error)
}

// Sender delivers a composed report email.
type Sender interface {
	Send(msg mailer.Message) error
}

// ReportBuilder turns a report job into a rendered, delivered email.
type ReportBuilder struct {
	fetcher HistoryFetcher
	sender  Sender
}

// NewReportBuilder wires the report pipeline. sender may be nil when SMTP is
// disabled; jobs then fail with a clear error instead of hanging.
func NewReportBuilder(fetcher HistoryFetcher, sender Sender) *ReportBuilder {
	return &ReportBuilder{fetcher: fetcher, sender: sender}
}

// BuildAndSend runs the full pipeline for one job: fetch, resample, compute
// levels, render the chart, compose the email, deliver.
func (b *ReportBuilder) BuildAndSend(ctx context.Context, job *database.ReportJob) error {
	if b.sender == nil {
		return fmt.Errorf("email delivery is not configured")
	}

	period, err := analysis.ParsePeriod(job.Period)
	if err != nil {
		return err
	}

	start, err := time.Parse(jobDateLayout, job.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", job.StartDate, err)
	}
	end, err := time.Parse(jobDateLayout, job.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", job.EndDate, err)
	}

	candles, err := b.fetcher.FetchHistory(ctx, job.Symbol, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch history for %s: %w", job.Symbol, err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no price data for %s between %s and %s", job.Symbol, job.StartDate, job.EndDate)
	}

	resampled := analysis.Resample(candles, period)
	rows := analysis.CalculateLevels(resampled)

	last := rows[len(rows)-1]
	interp := analysis.Interpret(last.Close, last.Levels)

	title := fmt.Sprintf("%s %s", strings.ToUpper(job.Symbol), period.Name())
	chart := charts.Render(rows, title, charts.DefaultOptions())

	msg := mailer.Message{
		To:       job.Recipient,
		Subject:  fmt.Sprintf("StockPulse analysis: %s (%s)", strings.ToUpper(job.Symbol), period.Name()),
		TextBody: textSummary(job, last, interp),
		HTMLBody: htmlReport(job, last, interp, chart),
	}
	if err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to deliver report: %w", err)
	}
	return nil
}

func textSummary(job *database.ReportJob, last analysis.Row, interp analysis.Interpretation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis for %s (%s to %s)\n\n", strings.ToUpper(job.Symbol), job.StartDate, job.EndDate)
	fmt.Fprintf(&b, "Last close: %.2f on %s\n", last.Close, last.Date.Format(jobDateLayout))
	fmt.Fprintf(&b, "Scenario: %s\n", interp.Scenario)
	fmt.Fprintf(&b, "Bias: %s\n", interp.Bias)
	fmt.Fprintf(&b, "Condition: %s\n", interp.Condition)
	fmt.Fprintf(&b, "Target: %s\n", interp.Target)
	fmt.Fprintf(&b, "Strategy: %s\n", interp.Strategy)
	if last.Levels != nil {
		fmt.Fprintf(&b, "\nProjected levels: PP %.2f, R3 %.2f, R4 %.2f, R6 %.2f, S3 %.2f, S4 %.2f, S6 %.2f\n",
			last.Levels.PP, last.Levels.R3, last.Levels.R4, last.Levels.R6,
			last.Levels.S3, last.Levels.S4, last.Levels.S6)
	}
	return b.String()
}

func htmlReport(job *database.ReportJob, last analysis.Row, interp analysis.Interpretation, chart string) string {
	var b strings.Builder
	b.Grow(len(chart) + 1024)
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s analysis</h2>", strings.ToUpper(job.Symbol))
	fmt.Fprintf(&b, "<p>Last close <strong>%.2f</strong> on %s</p>", last.Close, last.Date.Format(jobDateLayout))
	fmt.Fprintf(&b, "<p>Scenario: <strong>%s</strong><br>Bias: %s<br>Condition: %s<br>Target: %s<br>Strategy: %s</p>",
		interp.Scenario, interp.Bias, interp.Condition, interp.Target, interp.Strategy)
	b.WriteString(chart)
	b.WriteString("</body></html>")
	return b.String()
}
