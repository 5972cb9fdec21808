package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// renderReport prints one analysis as a tier table between a pool header and
// an EV footer.
func renderReport(w io.Writer, report types.Report, droppedTiers int) {
	fmt.Fprintf(w, "\n%s", report.Name)
	if report.Number != "" {
		fmt.Fprintf(w, "  #%s", report.Number)
	}
	fmt.Fprintf(w, "  (ticket %s)\n", fmtMoney(report.Price))
	fmt.Fprintf(w, "pool: %s printed, %s remaining (%s)\n",
		fmtCount(report.Pool.Launch), fmtCount(report.Pool.Current), report.Pool.Method)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIZE\tODDS\tREMAIN\tTOTAL\tPROB\tADJUSTED\tCONTRIB")
	for _, tr := range report.Tiers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			prizeLabel(tr.Tier),
			fmtOdds(tr.Tier.Odds),
			tr.Tier.Remaining,
			tr.Tier.Total,
			fmtProb(tr.Probability),
			fmtMoney(tr.AdjustedValue),
			fmtMoney(tr.Contribution),
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "gross EV %s, net EV %s\n", fmtMoney(report.GrossEV), fmtMoney(report.NetEV))
	if droppedTiers > 0 {
		fmt.Fprintf(w, "dropped %d unparseable tiers\n", droppedTiers)
	}
}

// renderComparisons prints the comparison batch as one table, sorted however
// the rows arrive.
func renderComparisons(w io.Writer, rows []types.Comparison, skipped int) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNUMBER\tPRICE\tCLAIMED ODDS\tCALC ODDS\tCLAIMED NET\tCURRENT NET\tDELTA")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Name,
			row.Number,
			fmtMoney(row.Price),
			row.ClaimedOdds,
			fmtOdds(row.CalcOdds),
			fmtMoney(row.ClaimedNet),
			fmtMoney(row.CurrentNet),
			fmtDelta(row.DeltaPct),
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "%d games compared", len(rows))
	if skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", skipped)
	}
	fmt.Fprintln(w)
}

func prizeLabel(t types.Tier) string {
	if t.Label != "" {
		return t.Label
	}
	if t.IsTicket {
		return "TICKET"
	}
	return fmtMoney(t.Value)
}

func fmtMoney(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

func fmtOdds(v float64) string {
	if math.IsNaN(v) || v <= 0 {
		return "-"
	}
	return "1 in " + fmtCount(v)
}

// fmtCount prints pool sizes and odds denominators: whole numbers bare, the
// rest to two decimals.
func fmtCount(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtProb(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func fmtDelta(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}
