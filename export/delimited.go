// Package export renders amortization schedules for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"lendtrack/domain"
)

var header = []string{"Month", "Payment", "Principal", "Interest", "Balance"}

// FormatScheduleAsDelimitedText renders schedule as comma separated text: a
// header row, then one row per period with amounts fixed to two decimals.
// The header is written without spaces after the commas,
// "Month,Payment,Principal,Interest,Balance", so every field parses as-is.
func FormatScheduleAsDelimitedText(schedule domain.Schedule) string {
	var sb strings.Builder
	// strings.Builder never fails a write.
	_ = WriteDelimited(&sb, schedule, ',')
	return sb.String()
}

// WriteDelimited streams schedule to w using delimiter between fields.
func WriteDelimited(w io.Writer, schedule domain.Schedule, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, e := range schedule.Entries {
		row[0] = strconv.Itoa(e.Period)
		row[1] = Amount(e.PaymentAmount)
		row[2] = Amount(e.PrincipalComponent)
		row[3] = Amount(e.InterestComponent)
		row[4] = Amount(e.RemainingBalance)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Amount formats v with exactly two decimals, rounding half away from zero.
func Amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
