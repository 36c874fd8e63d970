package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var vndPrinter = message.NewPrinter(language.Vietnamese)

// SnapshotTotal sums the frozen line totals of the snapshot lines. Prices are
// whole đồng; there are no minor units to round.
func SnapshotTotal(lines []SnapshotLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineTotal()
	}
	return total
}

// FormatVND renders an amount in đồng for display, e.g. "1.250.000 ₫".
func FormatVND(amount int64) string {
	return vndPrinter.Sprintf("%d ₫", amount)
}
