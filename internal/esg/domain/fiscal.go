package domain

import (
	"fmt"
	"time"
)

// monthOrder is the canonical English month name ordering used by
// NextMonth. Kept as a package-level slice so callers
// never need to spell out the literal list themselves.
var monthOrder = []time.Month{
	time.January, time.February, time.March, time.April, time.May, time.June,
	time.July, time.August, time.September, time.October, time.November, time.December,
}

// MonthIndex returns the 0-based position of m within the Gregorian
// calendar (January = 0 ... December = 11).
func MonthIndex(m time.Month) int {
	return int(m) - 1
}

// NextMonth returns the month that cyclically follows m, wrapping from
// December back to January.
//
// Example:
//
//	NextMonth(time.December) == time.January
func NextMonth(m time.Month) time.Month {
	idx := (MonthIndex(m) + 1) % 12
	return monthOrder[idx]
}

// ReportingYear maps a raw observation's calendar year and month onto
// the fiscal reporting year of a company whose fiscal year begins in
// fiscalStart.
//
// Rule: a January fiscal start means the reporting year is always the
// calendar year. For any other start, once the observation's month
// index is on or after the fiscal start month's index, the observation
// belongs to the fiscal year that is named after the NEXT calendar
// year; otherwise it belongs to the fiscal year named after the
// current calendar year.
//
// Example:
//
//	fiscalStart = time.April
//	ReportingYear(2026, time.April, time.April) == 2027
//	ReportingYear(2026, time.March, time.April) == 2026
func ReportingYear(calendarYear int, month time.Month, fiscalStart time.Month) int {
	if fiscalStart == time.January {
		return calendarYear
	}
	if MonthIndex(month) >= MonthIndex(fiscalStart) {
		return calendarYear + 1
	}
	return calendarYear
}

// QuarterOf returns the 1-based fiscal quarter (1-4) that month falls
// into relative to fiscalStart.
//
// Example:
//
//	QuarterOf(time.June, time.April) == 1  // Apr, May, Jun
//	QuarterOf(time.July, time.April) == 2  // Jul, Aug, Sep
func QuarterOf(month, fiscalStart time.Month) int {
	offset := (MonthIndex(month) - MonthIndex(fiscalStart) + 12) % 12
	return offset/3 + 1
}

// SemesterOf returns the 1-based fiscal half-year (1 or 2) that month
// falls into relative to fiscalStart.
func SemesterOf(month, fiscalStart time.Month) int {
	offset := (MonthIndex(month) - MonthIndex(fiscalStart) + 12) % 12
	return offset/6 + 1
}

// MonthlyLabel formats a monthly record's canonical period label, e.g.
// "2026-04" for April 2026.
func MonthlyLabel(calendarYear int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", calendarYear, int(month))
}

// QuarterlyLabel formats a quarterly record's canonical period label,
// e.g. "FY2026-Q1".
func QuarterlyLabel(fiscalYear, quarter int) string {
	return fmt.Sprintf("FY%d-Q%d", fiscalYear, quarter)
}

// SemiAnnualLabel formats a semi-annual record's canonical period
// label, e.g. "FY2026-H1".
func SemiAnnualLabel(fiscalYear, half int) string {
	return fmt.Sprintf("FY%d-H%d", fiscalYear, half)
}

// YearlyLabel formats a yearly record's canonical period label, e.g.
// "FY2026".
func YearlyLabel(fiscalYear int) string {
	return fmt.Sprintf("FY%d", fiscalYear)
}
