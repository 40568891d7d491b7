package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders event impact rows as CSV string.
func RenderCSV(rows []EventImpactRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("event_id,event_name,product_id,title,pre_event_avg,event_avg,price_change_abs,price_change_pct\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%s,%.2f,%.2f,%.2f,%.2f\n",
			r.EventID,
			csvField(r.EventName),
			r.ProductID,
			csvField(r.Title),
			r.PreEventAvg,
			r.EventAvg,
			r.PriceChangeAbs,
			r.PriceChangePct,
		))
	}

	return sb.String()
}

// RenderSummaryCSV renders price summary rows as CSV string.
func RenderSummaryCSV(rows []PriceSummaryRow) string {
	var sb strings.Builder

	sb.WriteString("product_id,external_id,title,base_price,min_price,max_price,avg_price,snapshots\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			r.ProductID,
			r.ExternalID,
			csvField(r.Title),
			r.BasePrice,
			r.MinPrice,
			r.MaxPrice,
			r.AvgPrice,
			r.Snapshots,
		))
	}

	return sb.String()
}

// csvField quotes s when it contains a separator, quote or newline.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
