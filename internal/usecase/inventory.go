package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"TechMart/internal/domain/models"
	domrepo "TechMart/internal/domain/repository"
	domsvc "TechMart/internal/domain/service"
	"TechMart/internal/services/features"
	"TechMart/pkg/cache"
	applogger "TechMart/pkg/logger"
)

const (
	MinHorizonDays = 1
	MaxHorizonDays = 90
)

// InventoryConfig holds the tunables of the inventory workflows.
type InventoryConfig struct {
	HistoryDays        int
	PredictionHorizons []int
	ForecastTTL        time.Duration
	LockTTL            time.Duration
}

// InventoryDeps are the collaborators of InventoryUseCase.
type InventoryDeps struct {
	Products    domrepo.ProductRepository
	Suppliers   domrepo.SupplierRepository
	History     domrepo.DemandHistory
	Suggestions domrepo.SuggestionRepository
	Predictions domrepo.PredictionRepository
	Forecaster  domsvc.DemandForecaster
	Selector    domsvc.SupplierSelector
	Planner     domsvc.ReorderPlanner
	Cache       domrepo.Cache
	Notifier    domrepo.Notifier
	Metrics     domrepo.Metrics
	Logger      *applogger.Logger
}

// InventoryUseCase runs forecasting, reorder planning and the suggestion
// approval workflow on top of the repositories.
type InventoryUseCase struct {
	InventoryDeps
	cfg InventoryConfig
	now func() time.Time
}

func NewInventoryUseCase(d InventoryDeps, cfg InventoryConfig) *InventoryUseCase {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 90
	}
	if len(cfg.PredictionHorizons) == 0 {
		cfg.PredictionHorizons = []int{7, 14}
	}
	if cfg.ForecastTTL <= 0 {
		cfg.ForecastTTL = time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if d.Logger == nil {
		d.Logger = applogger.Nop()
	}
	return &InventoryUseCase{InventoryDeps: d, cfg: cfg, now: time.Now}
}

// ForecastProduct predicts demand for a product over horizonDays, serving
// repeated requests from the cache.
func (uc *InventoryUseCase) ForecastProduct(ctx context.Context, productID int64, horizonDays int) (*models.ProductForecast, error) {
	if horizonDays < MinHorizonDays || horizonDays > MaxHorizonDays {
		return nil, fmt.Errorf("%w: horizon_days must be between %d and %d", models.ErrInvalidInput, MinHorizonDays, MaxHorizonDays)
	}
	product, err := uc.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := cache.Key("forecast", strconv.FormatInt(productID, 10), strconv.Itoa(horizonDays))
	res, hit, err := cache.GetOrLoad(ctx, uc.Cache, key, uc.cfg.ForecastTTL, func(ctx context.Context) (models.ForecastResult, error) {
		series, err := uc.History.DailyDemand(ctx, productID, uc.cfg.HistoryDays)
		if err != nil {
			return models.ForecastResult{}, fmt.Errorf("load demand history: %w", err)
		}
		return uc.Forecaster.Forecast(series.Values(), horizonDays), nil
	})
	if err != nil {
		uc.Metrics.RecordError("forecast")
		return nil, err
	}

	source := "computed"
	if hit {
		source = "cache"
	}
	uc.Metrics.RecordForecast(horizonDays, source)

	return &models.ProductForecast{
		ProductID:      product.ID,
		ProductName:    product.Name,
		HorizonDays:    horizonDays,
		ForecastResult: res,
	}, nil
}

func (uc *InventoryUseCase) candidates(ctx context.Context) ([]models.SupplierCandidate, error) {
	sups, err := uc.Suppliers.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	out := make([]models.SupplierCandidate, 0, len(sups))
	for _, s := range sups {
		out = append(out, models.CandidateFromSupplier(s))
	}
	return out, nil
}

func (uc *InventoryUseCase) planInput(ctx context.Context, product *models.Product) (domsvc.PlanInput, error) {
	series, err := uc.History.DailyDemand(ctx, product.ID, uc.cfg.HistoryDays)
	if err != nil {
		return domsvc.PlanInput{}, fmt.Errorf("load demand history: %w", err)
	}
	cands, err := uc.candidates(ctx)
	if err != nil {
		return domsvc.PlanInput{}, err
	}
	return domsvc.PlanInput{
		Product:    *product,
		History:    series,
		Candidates: cands,
		Today:      uc.now(),
	}, nil
}

// GenerateSuggestion plans and stores a reorder suggestion for one product.
// Concurrent calls for the same product are serialized by a cache lock, and a
// product never has more than one pending suggestion.
func (uc *InventoryUseCase) GenerateSuggestion(ctx context.Context, productID int64) (*models.ReorderSuggestion, error) {
	product, err := uc.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	lockKey := cache.Key("lock", "suggestion", strconv.FormatInt(productID, 10))
	ok, err := uc.Cache.TryLock(ctx, lockKey, uc.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire suggestion lock: %w", err)
	}
	if !ok {
		return nil, models.ErrBusy
	}
	defer func() {
		if err := uc.Cache.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			uc.Logger.Warn("release suggestion lock", applogger.Int64("product_id", productID), applogger.Error(err))
		}
	}()

	return uc.generateLocked(ctx, product)
}

func (uc *InventoryUseCase) generateLocked(ctx context.Context, product *models.Product) (*models.ReorderSuggestion, error) {
	pending, err := uc.Suggestions.HasPendingSuggestion(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		uc.Metrics.RecordSuggestion("pending_exists")
		return nil, models.ErrSuggestionPending
	}

	in, err := uc.planInput(ctx, product)
	if err != nil {
		return nil, err
	}
	s, _, ok := uc.Planner.GenerateSuggestion(in)
	if !ok {
		uc.Metrics.RecordSuggestion("not_needed")
		return nil, models.ErrStockSufficient
	}
	if err := uc.Suggestions.CreateSuggestion(ctx, s); err != nil {
		if errors.Is(err, models.ErrSuggestionPending) {
			uc.Metrics.RecordSuggestion("pending_exists")
		}
		return nil, err
	}
	uc.Metrics.RecordSuggestion("created")
	uc.Logger.Info("reorder suggestion created",
		applogger.Int64("product_id", product.ID),
		applogger.Int("quantity", s.SuggestedQuantity),
		applogger.Float64("urgency", s.UrgencyScore))

	uc.notify(ctx, models.EventSuggestionCreated, s)
	return s, nil
}

func (uc *InventoryUseCase) notify(ctx context.Context, eventType string, data interface{}) {
	if uc.Notifier == nil {
		return
	}
	if err := uc.Notifier.Notify(ctx, models.Event{Type: eventType, Timestamp: uc.now().UTC(), Data: data}); err != nil {
		uc.Logger.Warn("notify failed", applogger.String("type", eventType), applogger.Error(err))
	}
}

// ListSuggestions returns suggestions in status, most urgent first.
func (uc *InventoryUseCase) ListSuggestions(ctx context.Context, status models.SuggestionStatus, skip, limit int) ([]models.SuggestionView, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return uc.Suggestions.ListSuggestions(ctx, status, skip, limit)
}

func (uc *InventoryUseCase) ApproveSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error) {
	return uc.transition(ctx, id, models.StatusApproved)
}

func (uc *InventoryUseCase) RejectSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error) {
	return uc.transition(ctx, id, models.StatusRejected)
}

func (uc *InventoryUseCase) MarkOrdered(ctx context.Context, id int64) (*models.ReorderSuggestion, error) {
	return uc.transition(ctx, id, models.StatusOrdered)
}

func (uc *InventoryUseCase) transition(ctx context.Context, id int64, to models.SuggestionStatus) (*models.ReorderSuggestion, error) {
	s, err := uc.Suggestions.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, s.Status, to)
	}
	if err := uc.Suggestions.UpdateSuggestionStatus(ctx, id, s.Status, to); err != nil {
		return nil, err
	}
	updated, err := uc.Suggestions.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.Metrics.RecordSuggestion(string(to))
	uc.notify(ctx, models.EventSuggestionUpdated, updated)
	return updated, nil
}

// LowStock lists products under their reorder threshold, or under threshold when set.
func (uc *InventoryUseCase) LowStock(ctx context.Context, threshold *int) ([]models.Product, error) {
	if threshold != nil && *threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", models.ErrInvalidInput)
	}
	return uc.Products.ListLowStock(ctx, threshold)
}

// AdjustStock adds or removes stock by hand, e.g. for a delivery or a count
// correction, and broadcasts the new level.
func (uc *InventoryUseCase) AdjustStock(ctx context.Context, productID int64, change int, reason string) (*models.StockAdjustment, error) {
	if change == 0 {
		return nil, fmt.Errorf("%w: quantity_change must not be zero", models.ErrInvalidInput)
	}
	p, err := uc.Products.AdjustStock(ctx, productID, change)
	if err != nil {
		return nil, err
	}
	adj := &models.StockAdjustment{
		ProductID:        p.ID,
		Name:             p.Name,
		StockQuantity:    p.StockQuantity,
		ReorderThreshold: p.ReorderThreshold,
		Change:           change,
	}
	uc.Logger.Info("stock adjusted",
		applogger.Int64("product_id", p.ID),
		applogger.Int("change", change),
		applogger.Int("stock", p.StockQuantity),
		applogger.String("reason", reason))
	uc.notify(ctx, models.EventStockUpdated, map[string]interface{}{
		"product_id":        adj.ProductID,
		"name":              adj.Name,
		"stock_quantity":    adj.StockQuantity,
		"reorder_threshold": adj.ReorderThreshold,
		"change":            change,
		"reason":            reason,
	})
	return adj, nil
}

// RefreshPredictions stores today's forecast for every product and
// configured horizon. Low-stock products also get the planner's recommended
// quantity. It returns the number of predictions written.
func (uc *InventoryUseCase) RefreshPredictions(ctx context.Context) (int, error) {
	start := time.Now()
	products, err := uc.Products.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	cands, err := uc.candidates(ctx)
	if err != nil {
		return 0, err
	}
	var optimal *int64
	if best, ok := uc.Selector.SelectOptimalSupplier(cands); ok {
		id := best.ID
		optimal = &id
	}

	today := features.TruncateDay(uc.now())
	written := 0
	for i := range products {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		p := &products[i]
		series, err := uc.History.DailyDemand(ctx, p.ID, uc.cfg.HistoryDays)
		if err != nil {
			return written, fmt.Errorf("load demand history for %d: %w", p.ID, err)
		}

		var recommended *int
		supplier := optimal
		if s, _, ok := uc.Planner.GenerateSuggestion(domsvc.PlanInput{
			Product: *p, History: series, Candidates: cands, Today: uc.now(),
		}); ok {
			q := s.SuggestedQuantity
			recommended = &q
			supplier = s.SuggestedSupplierID
		}

		for _, h := range uc.cfg.PredictionHorizons {
			res := uc.Forecaster.Forecast(series.Values(), h)
			if err := uc.Predictions.UpsertPrediction(ctx, &models.InventoryPrediction{
				ProductID:                  p.ID,
				PredictedDemand:            res.PredictedDemand,
				ConfidenceScore:            res.ConfidenceScore,
				PredictionDate:             today,
				HorizonDays:                h,
				RecommendedReorderQuantity: recommended,
				OptimalSupplierID:          supplier,
				SeasonalityFactor:          res.SeasonalityFactor,
				TrendFactor:                res.TrendFactor,
			}); err != nil {
				return written, err
			}
			uc.Metrics.RecordForecast(h, "refresh")
			written++
		}
	}
	uc.Metrics.RecordLatency("refresh_predictions", time.Since(start).Seconds())
	uc.Logger.Info("predictions refreshed",
		applogger.Int("products", len(products)),
		applogger.Int("predictions", written))
	return written, nil
}

// GenerateAllSuggestions plans suggestions for every low-stock product that
// has none pending. Products locked by a concurrent run are skipped.
func (uc *InventoryUseCase) GenerateAllSuggestions(ctx context.Context) (models.BatchResult, error) {
	var res models.BatchResult
	products, err := uc.Products.ListLowStock(ctx, nil)
	if err != nil {
		return res, err
	}
	res.ProductsChecked = len(products)
	for i := range products {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := uc.GenerateSuggestion(ctx, products[i].ID)
		switch {
		case err == nil:
			res.SuggestionsCreated++
		case errors.Is(err, models.ErrSuggestionPending),
			errors.Is(err, models.ErrStockSufficient),
			errors.Is(err, models.ErrBusy),
			errors.Is(err, models.ErrNotFound):
		default:
			return res, fmt.Errorf("generate suggestion for %d: %w", products[i].ID, err)
		}
	}
	uc.Logger.Info("batch suggestion run finished",
		applogger.Int("checked", res.ProductsChecked),
		applogger.Int("created", res.SuggestionsCreated))
	return res, nil
}
