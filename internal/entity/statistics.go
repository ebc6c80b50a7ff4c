package entity

import "github.com/shopspring/decimal"

// Statistics aggregates every stored payslip.
type Statistics struct {
	TotalCount    int64           `json:"total_count"`
	ValidCount    int64           `json:"valid_count"`
	UniquePeople  int64           `json:"unique_people"`
	UniquePeriods int64           `json:"unique_periods"`
	SumNet        decimal.Decimal `json:"sum_net"`
	AvgNet        decimal.Decimal `json:"avg_net"`
	AvgConfidence float64         `json:"avg_confidence"`
}
