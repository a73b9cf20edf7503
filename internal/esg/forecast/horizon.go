package forecast

// Forecast horizon and seasonality constants per granularity, carried
// verbatim as named constants (Open Question: no further rationale for
// these specific values is attempted).
const (
	MonthlyForecastHorizon    = 35
	QuarterlyForecastHorizon  = 11
	SemiAnnualForecastHorizon = 11
	YearlyForecastHorizon     = 5

	MonthlySeasonality    = 12
	QuarterlySeasonality  = 4
	SemiAnnualSeasonality = 2
	YearlySeasonality     = 0
)
