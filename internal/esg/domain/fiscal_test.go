package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMonthWrapsDecemberToJanuary(t *testing.T) {
	assert.Equal(t, time.January, NextMonth(time.December))
	assert.Equal(t, time.May, NextMonth(time.April))
}

func TestReportingYearFiscalStartApril(t *testing.T) {
	assert.Equal(t, 2027, ReportingYear(2026, time.April, time.April))
	assert.Equal(t, 2027, ReportingYear(2026, time.December, time.April))
	assert.Equal(t, 2026, ReportingYear(2026, time.March, time.April))
	assert.Equal(t, 2026, ReportingYear(2026, time.January, time.April))
}

func TestReportingYearCalendarFiscalYear(t *testing.T) {
	// A fiscal start of January means reporting year always equals
	// calendar year.
	for m := time.January; m <= time.December; m++ {
		assert.Equal(t, 2026, ReportingYear(2026, m, time.January))
	}
}

func TestQuarterOfFiscalStartApril(t *testing.T) {
	assert.Equal(t, 1, QuarterOf(time.April, time.April))
	assert.Equal(t, 1, QuarterOf(time.June, time.April))
	assert.Equal(t, 2, QuarterOf(time.July, time.April))
	assert.Equal(t, 4, QuarterOf(time.March, time.April))
}

func TestSemesterOfFiscalStartApril(t *testing.T) {
	assert.Equal(t, 1, SemesterOf(time.April, time.April))
	assert.Equal(t, 1, SemesterOf(time.September, time.April))
	assert.Equal(t, 2, SemesterOf(time.October, time.April))
	assert.Equal(t, 2, SemesterOf(time.March, time.April))
}

func TestLabelFormats(t *testing.T) {
	assert.Equal(t, "2026-04", MonthlyLabel(2026, time.April))
	assert.Equal(t, "FY2026-Q1", QuarterlyLabel(2026, 1))
	assert.Equal(t, "FY2026-H1", SemiAnnualLabel(2026, 1))
	assert.Equal(t, "FY2026", YearlyLabel(2026))
}
