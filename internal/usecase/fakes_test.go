package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"TechMart/internal/domain/models"
)

type fakeProducts struct {
	products []models.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeProducts) ListProducts(context.Context) ([]models.Product, error) {
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeProducts) ListLowStock(_ context.Context, threshold *int) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		limit := p.ReorderThreshold
		if threshold != nil {
			limit = *threshold
		}
		if p.StockQuantity < limit {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StockQuantity < out[j].StockQuantity })
	return out, nil
}

func (f *fakeProducts) ListCriticalStock(_ context.Context, fraction float64) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if float64(p.StockQuantity) <= float64(p.ReorderThreshold)*fraction {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) AdjustStock(_ context.Context, id int64, delta int) (*models.Product, error) {
	for i := range f.products {
		p := &f.products[i]
		if p.ID != id {
			continue
		}
		if p.StockQuantity+delta < 0 {
			return nil, models.ErrInsufficientStock
		}
		p.StockQuantity += delta
		cp := *p
		return &cp, nil
	}
	return nil, models.ErrNotFound
}

type fakeSuppliers struct {
	suppliers []models.Supplier
}

func (f *fakeSuppliers) GetSupplier(_ context.Context, id int64) (*models.Supplier, error) {
	for i := range f.suppliers {
		if f.suppliers[i].ID == id {
			s := f.suppliers[i]
			return &s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSuppliers) ListSuppliers(context.Context) ([]models.Supplier, error) {
	return f.suppliers, nil
}

type fakeHistory struct {
	mu     sync.Mutex
	series map[int64][]float64
	calls  int
}

func (f *fakeHistory) DailyDemand(_ context.Context, productID int64, _ int) (models.DemandSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s := models.DemandSeries{ProductID: productID, Gaps: models.GapsOmitted}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range f.series[productID] {
		s.Points = append(s.Points, models.DemandPoint{Date: day.AddDate(0, 0, i), Quantity: q})
	}
	return s, nil
}

func flatSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fakeSuggestions struct {
	mu     sync.Mutex
	rows   map[int64]*models.ReorderSuggestion
	nextID int64
}

func newFakeSuggestions() *fakeSuggestions {
	return &fakeSuggestions{rows: map[int64]*models.ReorderSuggestion{}}
}

func (f *fakeSuggestions) CreateSuggestion(_ context.Context, s *models.ReorderSuggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ProductID == s.ProductID && r.Status == models.StatusPending {
			return models.ErrSuggestionPending
		}
	}
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSuggestions) GetSuggestion(_ context.Context, id int64) (*models.ReorderSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeSuggestions) HasPendingSuggestion(_ context.Context, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ProductID == productID && r.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSuggestions) ListSuggestions(_ context.Context, status models.SuggestionStatus, skip, limit int) ([]models.SuggestionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SuggestionView
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, models.SuggestionView{ReorderSuggestion: *r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UrgencyScore > out[j].UrgencyScore })
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSuggestions) UpdateSuggestionStatus(_ context.Context, id int64, from, to models.SuggestionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return models.ErrNotFound
	}
	if r.Status != from {
		return models.ErrInvalidTransition
	}
	r.Status = to
	return nil
}

type fakePredictions struct {
	rows []models.InventoryPrediction
}

func (f *fakePredictions) UpsertPrediction(_ context.Context, p *models.InventoryPrediction) error {
	for i := range f.rows {
		r := &f.rows[i]
		if r.ProductID == p.ProductID && r.HorizonDays == p.HorizonDays && r.PredictionDate.Equal(p.PredictionDate) {
			*r = *p
			return nil
		}
	}
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePredictions) ListPredictions(_ context.Context, productID int64, limit int) ([]models.InventoryPrediction, error) {
	var out []models.InventoryPrediction
	for _, r := range f.rows {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCustomers struct {
	customers map[int64]models.Customer
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id int64) (*models.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

type fakeTransactions struct {
	mu         sync.Mutex
	recent     map[int64]int
	saved      []models.Transaction
	since      time.Time
	excluded   string
	stats      models.FraudStatistics
	suspicious []models.SuspiciousTransaction
	page       [2]int
}

func (f *fakeTransactions) SaveTransaction(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *t)
	return nil
}

// GetTransaction returns the latest save of id.
func (f *fakeTransactions) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ID == id {
			t := f.saved[i]
			return &t, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeTransactions) CountRecentTransactions(_ context.Context, customerID int64, since time.Time, excludeID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	f.excluded = excludeID
	return f.recent[customerID], nil
}

func (f *fakeTransactions) ListSuspiciousTransactions(_ context.Context, since time.Time, skip, limit int) ([]models.SuspiciousTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	f.page = [2]int{skip, limit}
	return f.suspicious, nil
}

func (f *fakeTransactions) ListRecentTransactions(context.Context, int64, time.Time) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeTransactions) FraudStatistics(_ context.Context, since time.Time) (models.FraudStatistics, error) {
	f.since = since
	return f.stats, nil
}

type fakeAlerts struct {
	mu        sync.Mutex
	created   []models.Alert
	recent    map[int64]bool
	createErr error
}

func (f *fakeAlerts) CreateAlert(_ context.Context, a *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAlerts) HasRecentUnresolvedAlert(_ context.Context, alertType string, entityID int64, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recent[entityID] {
		return true, nil
	}
	for _, a := range f.created {
		if a.AlertType == alertType && a.EntityID != nil && *a.EntityID == entityID && !a.IsResolved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlerts) ListAlerts(context.Context, *bool, int) ([]models.Alert, error) {
	return f.created, nil
}

func (f *fakeAlerts) ResolveAlert(context.Context, int64) error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeMetrics struct {
	mu          sync.Mutex
	forecasts   map[string]int
	suggestions map[string]int
	verdicts    map[bool]int
	alerts      map[string]int
	jobs        map[string]int
	jobErrors   map[string]int
	errors      map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		forecasts:   map[string]int{},
		suggestions: map[string]int{},
		verdicts:    map[bool]int{},
		alerts:      map[string]int{},
		jobs:        map[string]int{},
		jobErrors:   map[string]int{},
		errors:      map[string]int{},
	}
}

func (m *fakeMetrics) RecordForecast(_ int, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[source]++
}

func (m *fakeMetrics) RecordSuggestion(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestions[outcome]++
}

func (m *fakeMetrics) RecordFraudVerdict(suspicious bool, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[suspicious]++
}

func (m *fakeMetrics) RecordAlert(_, severity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[severity]++
}

func (m *fakeMetrics) RecordJob(job string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job]++
	if err != nil {
		m.jobErrors[job]++
	}
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordEventPublished(string, string) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}
