package repository

import (
	"context"
	"time"

	"TechMart/internal/domain/models"
)

// ProductRepository reads the catalogue and moves stock levels.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	// ListLowStock returns products under their reorder threshold, or under
	// threshold when it is set, lowest stock first.
	ListLowStock(ctx context.Context, threshold *int) ([]models.Product, error)
	// ListCriticalStock returns products at or below fraction of their threshold.
	ListCriticalStock(ctx context.Context, fraction float64) ([]models.Product, error)
	// AdjustStock adds delta to the product's stock. A change that would take
	// stock below zero fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id int64, delta int) (*models.Product, error)
}

type SupplierRepository interface {
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
}

// DemandHistory supplies daily demand for the forecaster.
type DemandHistory interface {
	DailyDemand(ctx context.Context, productID int64, days int) (models.DemandSeries, error)
}

// SuggestionRepository persists reorder suggestions.
type SuggestionRepository interface {
	CreateSuggestion(ctx context.Context, s *models.ReorderSuggestion) error
	GetSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error)
	HasPendingSuggestion(ctx context.Context, productID int64) (bool, error)
	ListSuggestions(ctx context.Context, status models.SuggestionStatus, skip, limit int) ([]models.SuggestionView, error)
	UpdateSuggestionStatus(ctx context.Context, id int64, from, to models.SuggestionStatus) error
}

type PredictionRepository interface {
	UpsertPrediction(ctx context.Context, p *models.InventoryPrediction) error
	ListPredictions(ctx context.Context, productID int64, limit int) ([]models.InventoryPrediction, error)
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
}

// TransactionRepository stores purchases and answers velocity and fraud queries.
type TransactionRepository interface {
	// SaveTransaction upserts t by ID. The first time a purchase is stored as
	// completed its quantity leaves product stock and its total is added to
	// the customer's spend, atomically with the row.
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// CountRecentTransactions counts the customer's transactions since the
	// cutoff, leaving out excludeID when it is set.
	CountRecentTransactions(ctx context.Context, customerID int64, since time.Time, excludeID string) (int, error)
	ListRecentTransactions(ctx context.Context, customerID int64, since time.Time) ([]models.Transaction, error)
	ListSuspiciousTransactions(ctx context.Context, since time.Time, skip, limit int) ([]models.SuspiciousTransaction, error)
	FraudStatistics(ctx context.Context, since time.Time) (models.FraudStatistics, error)
}

// TransactionFacts receives every scored transaction for analytical rollups.
type TransactionFacts interface {
	RecordTransaction(ctx context.Context, t *models.Transaction) error
}

type AlertRepository interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	HasRecentUnresolvedAlert(ctx context.Context, alertType string, entityID int64, since time.Time) (bool, error)
	ListAlerts(ctx context.Context, resolved *bool, limit int) ([]models.Alert, error)
	ResolveAlert(ctx context.Context, id int64) error
}

// Cache memoizes values and guards per-key work with short locks.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Notifier fans events out to subscribers.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

type Metrics interface {
	RecordForecast(horizonDays int, source string)
	RecordSuggestion(outcome string)
	RecordFraudVerdict(suspicious bool, score float64)
	RecordAlert(alertType, severity string)
	RecordEventPublished(sink, eventType string)
	RecordJob(job string, err error)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
