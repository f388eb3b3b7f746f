package models

import "time"

// Supplier is a vendor that can fulfil product reorders.
// ReliabilityScore and AverageDeliveryDays are nullable in storage.
type Supplier struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	ContactEmail        string   `json:"contact_email,omitempty"`
	Country             string   `json:"country,omitempty"`
	ReliabilityScore    *float64 `json:"reliability_score"`
	AverageDeliveryDays *int     `json:"average_delivery_days"`
}

// Product is an inventory item with its replenishment settings.
type Product struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	SKU              string    `json:"sku"`
	Category         string    `json:"category"`
	Price            float64   `json:"price"`
	StockQuantity    int       `json:"stock_quantity"`
	ReorderThreshold int       `json:"reorder_threshold"`
	ReorderQuantity  int       `json:"reorder_quantity"`
	SupplierID       int64     `json:"supplier_id"`
	Supplier         *Supplier `json:"supplier,omitempty"`
}

// IsLowStock reports whether stock fell below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity < p.ReorderThreshold
}

// SupplierCandidate is one option considered by the supplier scorer.
// PriceScore is nil while no per-supplier pricing feed exists; the scorer then
// applies its configured default.
type SupplierCandidate struct {
	ID                  int64    `json:"id"`
	ReliabilityScore    *float64 `json:"reliability_score"`
	AverageDeliveryDays *int     `json:"average_delivery_days"`
	PriceScore          *float64 `json:"price_score,omitempty"`
}

// CandidateFromSupplier converts a stored supplier into a scoring candidate.
func CandidateFromSupplier(s Supplier) SupplierCandidate {
	return SupplierCandidate{
		ID:                  s.ID,
		ReliabilityScore:    s.ReliabilityScore,
		AverageDeliveryDays: s.AverageDeliveryDays,
	}
}

// GapPolicy documents how days without sales appear in a demand series.
type GapPolicy string

const (
	// GapsOmitted means days without sales are absent from the series.
	GapsOmitted GapPolicy = "omitted"
	// GapsZeroFilled means every calendar day in the window is present.
	GapsZeroFilled GapPolicy = "zero_filled"
)

// DemandPoint is the total quantity sold on one calendar day.
type DemandPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// DemandSeries is an ascending daily demand history for one product.
type DemandSeries struct {
	ProductID int64         `json:"product_id"`
	Points    []DemandPoint `json:"points"`
	Gaps      GapPolicy     `json:"gaps"`
}

// Values returns the quantities in date order.
func (s DemandSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// ForecastResult is the outcome of a demand forecast. Factors are rounded to
// two decimals for presentation.
type ForecastResult struct {
	PredictedDemand   int     `json:"predicted_demand"`
	ConfidenceScore   float64 `json:"confidence_score"`
	TrendFactor       float64 `json:"trend_factor"`
	SeasonalityFactor float64 `json:"seasonality_factor"`
}

// ZeroForecast is returned when there is no usable history.
func ZeroForecast() ForecastResult {
	return ForecastResult{
		PredictedDemand:   0,
		ConfidenceScore:   0,
		TrendFactor:       1.0,
		SeasonalityFactor: 1.0,
	}
}

// ProductForecast is a forecast enriched with product context for API output.
type ProductForecast struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	HorizonDays int    `json:"horizon_days"`
	ForecastResult
}

// StockAdjustment reports a manual stock change.
type StockAdjustment struct {
	ProductID        int64  `json:"id"`
	Name             string `json:"name"`
	StockQuantity    int    `json:"stock_quantity"`
	ReorderThreshold int    `json:"reorder_threshold"`
	Change           int    `json:"change"`
}

// InventoryPrediction is a persisted daily snapshot of a product forecast.
type InventoryPrediction struct {
	ID                         int64     `json:"id"`
	ProductID                  int64     `json:"product_id"`
	PredictedDemand            int       `json:"predicted_demand"`
	ConfidenceScore            float64   `json:"confidence_score"`
	PredictionDate             time.Time `json:"prediction_date"`
	HorizonDays                int       `json:"prediction_horizon_days"`
	RecommendedReorderQuantity *int      `json:"recommended_reorder_quantity,omitempty"`
	OptimalSupplierID          *int64    `json:"optimal_supplier_id,omitempty"`
	SeasonalityFactor          float64   `json:"seasonality_factor"`
	TrendFactor                float64   `json:"trend_factor"`
	CreatedAt                  time.Time `json:"created_at"`
}
