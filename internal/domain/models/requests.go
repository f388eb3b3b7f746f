package models

// Requests for the HTTP API. Bound by echo, defaulted by creasty/defaults and
// validated by validator/v10.

type ForecastRequest struct {
	ProductID   int64 `param:"product_id" validate:"required,gt=0"`
	HorizonDays int   `query:"horizon_days" json:"horizon_days" default:"7" validate:"gte=1,lte=90"`
}

type ProductPathRequest struct {
	ProductID int64 `param:"product_id" validate:"required,gt=0"`
}

type StockUpdateRequest struct {
	ProductID      int64  `param:"product_id" validate:"required,gt=0"`
	QuantityChange int    `json:"quantity_change" validate:"required"`
	Reason         string `json:"reason" validate:"omitempty,max=255"`
}

type SuggestionListRequest struct {
	Status string `query:"status" json:"status" default:"pending" validate:"oneof=pending approved rejected ordered"`
	Skip   int    `query:"skip" json:"skip" validate:"gte=0"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type SuggestionPathRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

type LowStockRequest struct {
	Threshold *int `query:"threshold" json:"threshold" validate:"omitempty,gte=0"`
}

type AnalyzeTransactionRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	IPAddress  string  `json:"ip_address" validate:"omitempty,ip"`
}

type FraudStatsRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}

type SuspiciousListRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
	Skip  int `query:"skip" json:"skip" validate:"gte=0"`
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type VelocityRequest struct {
	CustomerID    int64 `param:"customer_id" validate:"required,gt=0"`
	WindowMinutes int   `query:"window_minutes" json:"window_minutes" default:"10" validate:"gte=1,lte=1440"`
	Threshold     int   `query:"threshold" json:"threshold" default:"5" validate:"gte=1"`
}

type AlertListRequest struct {
	Resolved bool `query:"resolved" json:"resolved"`
	Limit    int  `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type AlertPathRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}
