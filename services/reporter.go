package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Stevem319/Stevechatravel/models"
)

const reportWidth = 72

// PrintRunReport formats a batch run summary for the terminal
func PrintRunReport(w io.Writer, report *models.RunReport) {
	border := strings.Repeat("═", reportWidth)
	thin := strings.Repeat("─", reportWidth)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("FLIGHT PRICE COLLECTION RUN", reportWidth))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	fmt.Fprintf(w, "  Run ID                  : %s\n", report.RunID)
	fmt.Fprintf(w, "  Mode                    : %s\n", report.Mode)
	fmt.Fprintf(w, "  Checkpoint              : %s\n", report.CheckpointPath)
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  Duration                : %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}

	fmt.Fprintf(w, "\n KEYS\n%s\n", thin)
	fmt.Fprintf(w, "  Total                   : %d\n", report.TotalKeys)
	fmt.Fprintf(w, "  Already completed       : %d\n", report.AlreadyCompleted)
	fmt.Fprintf(w, "  Looked up               : %d\n", report.ProviderCalls)
	fmt.Fprintf(w, "  Resolved                : %d\n", report.Resolved)
	fmt.Fprintf(w, "  Unfinished              : %d (%d failed)\n", report.Unfinished, report.Failed)

	fmt.Fprintf(w, "\n RESULTS\n%s\n", thin)
	fmt.Fprintf(w, "  Flights found           : %d\n", report.FlightsFound)
	fmt.Fprintf(w, "  Avg flights per route   : %.1f\n", report.AverageFlights())
	fmt.Fprintf(w, "  Checkpoint writes       : %d\n", report.CheckpointSaves)
	if report.Interrupted {
		fmt.Fprintf(w, "  Interrupted             : yes, rerun to resume\n")
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

// PrintInsightReport prints filtered flights and their price summary
func PrintInsightReport(w io.Writer, title string, report *models.InsightReport, maxRows int) {
	border := strings.Repeat("═", reportWidth)
	thin := strings.Repeat("─", reportWidth)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center(title, reportWidth))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	fmt.Fprintf(w, "  Rows loaded             : %d\n", report.Loaded)
	fmt.Fprintf(w, "  Dropped (bad price/date): %d\n", report.Dropped)
	fmt.Fprintf(w, "  Matching filters        : %d\n", report.Matched)

	if len(report.Flights) == 0 {
		fmt.Fprintf(w, "\n  No flights match the filters.\n\n%s\n\n", border)
		return
	}

	rows := report.Flights
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	fmt.Fprintf(w, "\n CHEAPEST FLIGHTS (%d of %d)\n%s\n", len(rows), report.Matched, thin)
	for i, f := range rows {
		fmt.Fprintf(w, "  %3d. %-22s %s %-9s %-8s → %-8s stops %-7s %s\n",
			i+1, truncate(f.Name, 22), f.DepartureDate, formatPrice(report.Currency, f.PriceValue),
			f.FlightDepart, f.FlightArrive, f.Stops, tripLabel(f.Days))
	}

	if len(report.Summary) > 0 {
		fmt.Fprintf(w, "\n PRICE RANGE BY ITINERARY\n%s\n", thin)
		for _, s := range report.Summary {
			fmt.Fprintf(w, "  %s %-8s %-22s %9s - %-9s %s\n",
				s.DepartureDate, s.FlightDepart, truncate(s.Name, 22),
				formatPrice(report.Currency, s.MinPrice), formatPrice(report.Currency, s.MaxPrice), tripLabel(s.Days))
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

func formatPrice(currency string, v float64) string {
	if currency == "" {
		currency = "$"
	}
	return fmt.Sprintf("%s%.0f", currency, v)
}

func tripLabel(days *int) string {
	if days == nil {
		return "one-way"
	}
	return fmt.Sprintf("%dd trip", *days)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
