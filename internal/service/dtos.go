package service

import "github.com/godilite/engagement-dashboard/internal/analytics"

// UnitStatus is the outcome of one independently computed card or chart.
type UnitStatus string

const (
	UnitOK     UnitStatus = "ok"
	UnitNoData UnitStatus = "no_data"
	UnitError  UnitStatus = "error"
)

const (
	MessageNoData      = "No data available"
	MessageUnavailable = "Data source unavailable"
)

type Unit struct {
	Status  UnitStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

type CardResult struct {
	Unit
	Card *analytics.Card `json:"card,omitempty"`
}

type KPISection struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Month string       `json:"month"`
	Cards []CardResult `json:"cards"`
}

type ChartResult struct {
	Unit
	ID         string              `json:"id"`
	Group      string              `json:"group"`
	Title      string              `json:"title"`
	ValueLabel string              `json:"value_label"`
	Data       analytics.TidyTable `json:"data"`
}

type ChartGroup struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Charts []ChartResult `json:"charts"`
}
