package reporting

import (
	"fmt"
	"strings"
	"time"

	"ecommerce-price-tracker/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Price Tracking Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Period: %s to %s\n\n", formatDate(r.PeriodStart), formatDate(r.PeriodEnd)))

	// Data Summary
	ds := r.DataSummary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Products | %d |\n", ds.ProductCount))
	sb.WriteString(fmt.Sprintf("| Events | %d |\n", ds.EventCount))
	sb.WriteString(fmt.Sprintf("| Snapshots | %d |\n", ds.SnapshotCount))
	sb.WriteString(fmt.Sprintf("| Synthetic Snapshots | %d |\n", ds.SyntheticSnapshots))
	sb.WriteString(fmt.Sprintf("| Real Snapshots | %d |\n", ds.RealSnapshots))
	sb.WriteString(fmt.Sprintf("| First Recorded | %s |\n", formatDate(ds.FirstRecordedDate)))
	sb.WriteString(fmt.Sprintf("| Last Recorded | %s |\n", formatDate(ds.LastRecordedDate)))
	sb.WriteString("\n")

	// Price Summaries
	sb.WriteString("## Price Summary\n\n")
	if len(r.PriceSummaries) > 0 {
		sb.WriteString("| Product | External ID | Title | Base | Min | Max | Avg | Snapshots |\n")
		sb.WriteString("|---------|-------------|-------|------|-----|-----|-----|-----------|\n")
		for _, p := range r.PriceSummaries {
			sb.WriteString(fmt.Sprintf("| %d | %d | %s | %.2f | %.2f | %.2f | %.2f | %d |\n",
				p.ProductID, p.ExternalID, escapeCell(p.Title),
				p.BasePrice, p.MinPrice, p.MaxPrice, p.AvgPrice, p.Snapshots))
		}
	} else {
		sb.WriteString("No price data available.\n")
	}
	sb.WriteString("\n")

	// Event Impact
	sb.WriteString("## Event Impact\n\n")
	if len(r.EventImpacts) > 0 {
		sb.WriteString("| Event | Product | Title | Pre-Event Avg | Event Avg | Change | Change% |\n")
		sb.WriteString("|-------|---------|-------|---------------|-----------|--------|---------|\n")
		for _, e := range r.EventImpacts {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.2f | %.2f | %+.2f | %+.2f |\n",
				escapeCell(e.EventName), e.ProductID, escapeCell(e.Title),
				e.PreEventAvg, e.EventAvg, e.PriceChangeAbs, e.PriceChangePct))
		}
	} else {
		sb.WriteString("No event impact data available.\n")
	}
	sb.WriteString("\n")

	if r.InsufficientImpacts > 0 {
		sb.WriteString(fmt.Sprintf("%d event/product pairs skipped for insufficient data.\n", r.InsufficientImpacts))
	}

	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
