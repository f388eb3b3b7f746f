package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"TechMart/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T, zeroFill bool) *SQLRepository {
	t.Helper()
	repo, err := Open(Config{
		Driver:   DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "techmart-test.db"),
		ZeroFill: zeroFill,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	repo.now = func() time.Time { return fixedNow }
	return repo
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// seedCatalog creates two suppliers and three products; the first two are low on stock.
func seedCatalog(t *testing.T, r *SQLRepository) ([]models.Supplier, []models.Product) {
	t.Helper()
	ctx := context.Background()
	sups := []models.Supplier{
		{Name: "Acme", Country: "US", ReliabilityScore: floatPtr(0.95), AverageDeliveryDays: intPtr(5)},
		{Name: "Globex", Country: "DE"},
	}
	for i := range sups {
		require.NoError(t, r.CreateSupplier(ctx, &sups[i]))
	}
	prods := []models.Product{
		{Name: "Widget", SKU: "W-1", Category: "tools", Price: 9.99, StockQuantity: 5, ReorderThreshold: 10, ReorderQuantity: 50, SupplierID: sups[0].ID},
		{Name: "Gadget", SKU: "G-1", Category: "tools", Price: 19.5, StockQuantity: 0, ReorderThreshold: 20, ReorderQuantity: 40},
		{Name: "Doohickey", SKU: "D-1", Category: "misc", Price: 3, StockQuantity: 100, ReorderThreshold: 10, ReorderQuantity: 10, SupplierID: sups[1].ID},
	}
	for i := range prods {
		require.NoError(t, r.CreateProduct(ctx, &prods[i]))
	}
	return sups, prods
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &SQLRepository{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"}, nil)
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	sups, prods := seedCatalog(t, r)

	t.Run("GetProductWithSupplier", func(t *testing.T) {
		p, err := r.GetProduct(ctx, prods[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Widget", p.Name)
		assert.InDelta(t, 9.99, p.Price, 1e-9)
		require.NotNil(t, p.Supplier)
		assert.Equal(t, sups[0].ID, p.Supplier.ID)
		require.NotNil(t, p.Supplier.ReliabilityScore)
		assert.InDelta(t, 0.95, *p.Supplier.ReliabilityScore, 1e-9)
		require.NotNil(t, p.Supplier.AverageDeliveryDays)
		assert.Equal(t, 5, *p.Supplier.AverageDeliveryDays)
	})

	t.Run("GetProductWithoutSupplier", func(t *testing.T) {
		p, err := r.GetProduct(ctx, prods[1].ID)
		require.NoError(t, err)
		assert.Nil(t, p.Supplier)
		assert.Zero(t, p.SupplierID)
	})

	t.Run("GetProductNotFound", func(t *testing.T) {
		_, err := r.GetProduct(ctx, 9999)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("SupplierNullScores", func(t *testing.T) {
		s, err := r.GetSupplier(ctx, sups[1].ID)
		require.NoError(t, err)
		assert.Nil(t, s.ReliabilityScore)
		assert.Nil(t, s.AverageDeliveryDays)

		all, err := r.ListSuppliers(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, sups[0].ID, all[0].ID)
	})

	t.Run("ListLowStock", func(t *testing.T) {
		low, err := r.ListLowStock(ctx, nil)
		require.NoError(t, err)
		require.Len(t, low, 2)
		assert.Equal(t, "Gadget", low[0].Name)
		assert.Equal(t, "Widget", low[1].Name)

		custom, err := r.ListLowStock(ctx, intPtr(1))
		require.NoError(t, err)
		require.Len(t, custom, 1)
		assert.Equal(t, "Gadget", custom[0].Name)
	})

	t.Run("ListCriticalStock", func(t *testing.T) {
		// Widget: 5 > 10*0.2, Gadget: 0 <= 20*0.2
		crit, err := r.ListCriticalStock(ctx, 0.2)
		require.NoError(t, err)
		require.Len(t, crit, 1)
		assert.Equal(t, "Gadget", crit[0].Name)
	})

	t.Run("Customer", func(t *testing.T) {
		c := &models.Customer{Email: "a@example.com", RiskScore: 0.7}
		require.NoError(t, r.CreateCustomer(ctx, c))
		got, err := r.GetCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, got.RiskScore, 1e-9)

		_, err = r.GetCustomer(ctx, c.ID+100)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestSuggestions(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	sups, prods := seedCatalog(t, r)

	newSuggestion := func(productID int64, urgency float64) *models.ReorderSuggestion {
		sid := sups[0].ID
		return &models.ReorderSuggestion{
			ProductID:             productID,
			SuggestedQuantity:     100,
			SuggestedSupplierID:   &sid,
			UrgencyScore:          urgency,
			EstimatedStockoutDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			Reasoning:             "Current stock: 5",
		}
	}

	first := newSuggestion(prods[0].ID, 0.5)
	require.NoError(t, r.CreateSuggestion(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, models.StatusPending, first.Status)

	t.Run("OnePendingPerProduct", func(t *testing.T) {
		err := r.CreateSuggestion(ctx, newSuggestion(prods[0].ID, 0.9))
		assert.ErrorIs(t, err, models.ErrSuggestionPending)

		pending, err := r.HasPendingSuggestion(ctx, prods[0].ID)
		require.NoError(t, err)
		assert.True(t, pending)
	})

	second := newSuggestion(prods[1].ID, 0.93)
	require.NoError(t, r.CreateSuggestion(ctx, second))

	t.Run("ListOrderedByUrgency", func(t *testing.T) {
		views, err := r.ListSuggestions(ctx, models.StatusPending, 0, 10)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, second.ID, views[0].ID)
		require.NotNil(t, views[0].Product)
		assert.Equal(t, "Gadget", views[0].Product.Name)
		require.NotNil(t, views[0].Supplier)
		assert.Equal(t, "Acme", views[0].Supplier.Name)
		assert.True(t, views[0].EstimatedStockoutDate.Equal(second.EstimatedStockoutDate))

		page, err := r.ListSuggestions(ctx, models.StatusPending, 1, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].ID)
	})

	t.Run("StatusTransitions", func(t *testing.T) {
		require.NoError(t, r.UpdateSuggestionStatus(ctx, first.ID, models.StatusPending, models.StatusApproved))

		err := r.UpdateSuggestionStatus(ctx, first.ID, models.StatusPending, models.StatusRejected)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		err = r.UpdateSuggestionStatus(ctx, 9999, models.StatusPending, models.StatusApproved)
		assert.ErrorIs(t, err, models.ErrNotFound)

		got, err := r.GetSuggestion(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)

		// the product may get a new pending suggestion once the old one left pending
		assert.NoError(t, r.CreateSuggestion(ctx, newSuggestion(prods[0].ID, 0.7)))
	})
}

func TestPredictionsUpsert(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	p := &models.InventoryPrediction{
		ProductID: prods[0].ID, PredictedDemand: 70, ConfidenceScore: 1,
		PredictionDate: day, HorizonDays: 7, SeasonalityFactor: 1, TrendFactor: 1,
	}
	require.NoError(t, r.UpsertPrediction(ctx, p))

	again := *p
	again.ID = 0
	again.PredictedDemand = 84
	require.NoError(t, r.UpsertPrediction(ctx, &again))

	other := *p
	other.ID = 0
	other.HorizonDays = 14
	require.NoError(t, r.UpsertPrediction(ctx, &other))

	got, err := r.ListPredictions(ctx, prods[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].HorizonDays)
	assert.Equal(t, 84, got[0].PredictedDemand)
}

func TestTransactionsAndDemand(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)

	txs := []models.Transaction{
		{ID: "t1", CustomerID: 1, ProductID: prods[0].ID, Quantity: 3, Status: models.TxCompleted, Timestamp: fixedNow.AddDate(0, 0, -3)},
		{ID: "t2", CustomerID: 1, ProductID: prods[0].ID, Quantity: 2, Status: models.TxCompleted, Timestamp: fixedNow.AddDate(0, 0, -3).Add(time.Hour)},
		{ID: "t3", CustomerID: 1, ProductID: prods[0].ID, Quantity: 4, Status: models.TxCompleted, Timestamp: fixedNow.AddDate(0, 0, -1)},
		{ID: "t4", CustomerID: 1, ProductID: prods[0].ID, Quantity: 9, Status: models.TxRefunded, Timestamp: fixedNow.AddDate(0, 0, -1)},
		{ID: "t5", CustomerID: 2, ProductID: prods[0].ID, Quantity: 1, Status: models.TxCompleted, Timestamp: fixedNow.AddDate(0, 0, -200)},
		{ID: "t6", CustomerID: 2, ProductID: prods[1].ID, Quantity: 1, Status: models.TxCompleted, Timestamp: fixedNow.Add(-2 * time.Minute),
			IsSuspicious: true, FraudScore: 0.9},
		{ID: "t7", CustomerID: 2, ProductID: prods[1].ID, Quantity: 1, Status: models.TxCompleted, Timestamp: fixedNow.Add(-5 * time.Minute),
			IsSuspicious: true, FraudScore: 0.7},
	}
	for i := range txs {
		txs[i].UnitPrice = decimal.NewFromInt(10)
		txs[i].TotalAmount = decimal.NewFromInt(int64(10 * txs[i].Quantity))
		require.NoError(t, r.SaveTransaction(ctx, &txs[i]))
	}

	t.Run("ReplayKeepsOneRow", func(t *testing.T) {
		replay := txs[0]
		require.NoError(t, r.SaveTransaction(ctx, &replay))
		n, err := r.CountRecentTransactions(ctx, 1, fixedNow.AddDate(0, 0, -30), "")
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("Velocity", func(t *testing.T) {
		n, err := r.CountRecentTransactions(ctx, 2, fixedNow.Add(-10*time.Minute), "")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = r.CountRecentTransactions(ctx, 2, fixedNow.Add(-10*time.Minute), "t6")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		recent, err := r.ListRecentTransactions(ctx, 2, fixedNow.Add(-10*time.Minute))
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "t6", recent[0].ID)
		assert.True(t, recent[0].TotalAmount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("FraudStatistics", func(t *testing.T) {
		st, err := r.FraudStatistics(ctx, fixedNow.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalSuspicious)
		assert.Equal(t, 1, st.HighRiskCount)
		assert.Equal(t, 1, st.MediumRiskCount)
	})

	t.Run("DailyDemandOmitsGaps", func(t *testing.T) {
		s, err := r.DailyDemand(ctx, prods[0].ID, 90)
		require.NoError(t, err)
		assert.Equal(t, models.GapsOmitted, s.Gaps)
		assert.Equal(t, []float64{5, 4}, s.Values())
		assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), s.Points[0].Date)
	})

	t.Run("DailyDemandEmpty", func(t *testing.T) {
		s, err := r.DailyDemand(ctx, prods[2].ID, 90)
		require.NoError(t, err)
		assert.Empty(t, s.Points)
	})
}

func TestDailyDemandZeroFill(t *testing.T) {
	r := newTestRepo(t, true)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)

	tx := models.Transaction{
		ID: "z1", CustomerID: 1, ProductID: prods[0].ID, Quantity: 6, Status: models.TxCompleted,
		UnitPrice: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(6), Timestamp: fixedNow.AddDate(0, 0, -2),
	}
	require.NoError(t, r.SaveTransaction(ctx, &tx))

	s, err := r.DailyDemand(ctx, prods[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, models.GapsZeroFilled, s.Gaps)
	// 2024-03-05 .. 2024-03-10
	assert.Equal(t, []float64{0, 0, 0, 6, 0, 0}, s.Values())
}

func TestWithSQLiteTimeFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"file:/tmp/a.db?_pragma=foreign_keys(ON)", "file:/tmp/a.db?_pragma=foreign_keys(ON)&_time_format=sqlite"},
		{"file:/tmp/a.db", "file:/tmp/a.db?_time_format=sqlite"},
		{"file:/tmp/a.db?_time_format=sqlite", "file:/tmp/a.db?_time_format=sqlite"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withSQLiteTimeFormat(tt.in))
	}
}

// Timestamps must be stored in a form SQLite's date functions parse, or the
// daily demand rollup groups everything under NULL.
func TestStoredTimestampsAreDateParseable(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)

	tx := models.Transaction{
		ID: "d1", CustomerID: 1, ProductID: prods[2].ID, Quantity: 2, Status: models.TxCompleted,
		UnitPrice: decimal.NewFromInt(3), TotalAmount: decimal.NewFromInt(6),
		Timestamp: time.Date(2024, 3, 9, 15, 30, 0, 0, time.UTC),
	}
	require.NoError(t, r.SaveTransaction(ctx, &tx))

	var day sql.NullString
	require.NoError(t, r.DB().QueryRowContext(ctx, `SELECT date(timestamp) FROM transactions WHERE id = ?`, "d1").Scan(&day))
	require.True(t, day.Valid)
	assert.Equal(t, "2024-03-09", day.String)

	got, err := r.GetTransaction(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, tx.Timestamp.Equal(got.Timestamp))

	s, err := r.DailyDemand(ctx, prods[2].ID, 90)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, s.Values())
}

func TestSaveTransactionMovesStock(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)
	cust := &models.Customer{Email: "ann@example.com", RiskScore: 0.1}
	require.NoError(t, r.CreateCustomer(ctx, cust))

	doohickey := prods[2] // stock 100
	purchase := func(id string, qty int, status models.TransactionStatus) *models.Transaction {
		return &models.Transaction{
			ID: id, CustomerID: cust.ID, ProductID: doohickey.ID, Quantity: qty, Status: status,
			UnitPrice: decimal.NewFromInt(3), TotalAmount: decimal.NewFromInt(int64(3 * qty)),
			Timestamp: fixedNow.Add(-time.Hour),
		}
	}
	stock := func() int {
		p, err := r.GetProduct(ctx, doohickey.ID)
		require.NoError(t, err)
		return p.StockQuantity
	}

	require.NoError(t, r.SaveTransaction(ctx, purchase("s1", 4, models.TxCompleted)))
	assert.Equal(t, 96, stock())

	// redelivery of the same purchase
	require.NoError(t, r.SaveTransaction(ctx, purchase("s1", 4, models.TxCompleted)))
	assert.Equal(t, 96, stock())

	require.NoError(t, r.SaveTransaction(ctx, purchase("s2", 10, models.TxPending)))
	assert.Equal(t, 96, stock())
	require.NoError(t, r.SaveTransaction(ctx, purchase("s2", 10, models.TxCompleted)))
	assert.Equal(t, 86, stock())

	require.NoError(t, r.SaveTransaction(ctx, purchase("s3", 500, models.TxCompleted)))
	assert.Equal(t, 0, stock(), "oversold stock floors at zero")

	c, err := r.GetCustomer(ctx, cust.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3*(4+10+500), c.TotalSpent, 0.001)

	_, err = r.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)

	p, err := r.AdjustStock(ctx, prods[0].ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, p.StockQuantity)

	p, err = r.AdjustStock(ctx, prods[0].ID, -25)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)

	_, err = r.AdjustStock(ctx, prods[0].ID, -1)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	_, err = r.AdjustStock(ctx, 999, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListSuspiciousTransactions(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()
	_, prods := seedCatalog(t, r)
	cust := &models.Customer{Email: "bob@example.com"}
	require.NoError(t, r.CreateCustomer(ctx, cust))

	txs := []models.Transaction{
		{ID: "x1", CustomerID: cust.ID, ProductID: prods[2].ID, IsSuspicious: true, FraudScore: 0.64, Timestamp: fixedNow.Add(-3 * time.Hour)},
		{ID: "x2", CustomerID: cust.ID, ProductID: prods[2].ID, FraudScore: 0.75, Timestamp: fixedNow.Add(-time.Hour)},
		{ID: "x3", CustomerID: cust.ID, ProductID: prods[2].ID, FraudScore: 0.3, Timestamp: fixedNow.Add(-time.Hour)},
		{ID: "x4", CustomerID: 404, ProductID: prods[2].ID, IsSuspicious: true, FraudScore: 0.9, Timestamp: fixedNow.Add(-48 * time.Hour)},
	}
	for i := range txs {
		txs[i].Quantity = 1
		txs[i].Status = models.TxFlagged
		txs[i].UnitPrice = decimal.NewFromInt(5)
		txs[i].TotalAmount = decimal.NewFromInt(5)
		require.NoError(t, r.SaveTransaction(ctx, &txs[i]))
	}

	got, err := r.ListSuspiciousTransactions(ctx, fixedNow.Add(-24*time.Hour), 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "x2", got[0].ID)
	assert.Equal(t, "x1", got[1].ID)
	assert.Equal(t, "bob@example.com", got[0].CustomerEmail)
	assert.Equal(t, "Doohickey", got[0].ProductName)

	got, err = r.ListSuspiciousTransactions(ctx, fixedNow.Add(-72*time.Hour), 2, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x4", got[0].ID)
	assert.Empty(t, got[0].CustomerEmail)
}

func TestAlerts(t *testing.T) {
	r := newTestRepo(t, false)
	ctx := context.Background()

	entity := int64(42)
	old := &models.Alert{AlertType: models.AlertLowStock, Severity: models.SeverityHigh, Title: "Critical Stock Level",
		Message: "old", EntityType: "product", EntityID: &entity, CreatedAt: fixedNow.Add(-48 * time.Hour)}
	require.NoError(t, r.CreateAlert(ctx, old))

	recent, err := r.HasRecentUnresolvedAlert(ctx, models.AlertLowStock, entity, fixedNow.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, recent)

	fresh := &models.Alert{AlertType: models.AlertLowStock, Severity: models.SeverityCritical, Title: "Out of Stock",
		Message: "fresh", EntityType: "product", EntityID: &entity}
	require.NoError(t, r.CreateAlert(ctx, fresh))

	recent, err = r.HasRecentUnresolvedAlert(ctx, models.AlertLowStock, entity, fixedNow.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, recent)

	require.NoError(t, r.ResolveAlert(ctx, fresh.ID))
	require.NoError(t, r.ResolveAlert(ctx, fresh.ID))
	assert.ErrorIs(t, r.ResolveAlert(ctx, 9999), models.ErrNotFound)

	recent, err = r.HasRecentUnresolvedAlert(ctx, models.AlertLowStock, entity, fixedNow.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, recent)

	open := false
	list, err := r.ListAlerts(ctx, &open, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, old.ID, list[0].ID)

	all, err := r.ListAlerts(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, fresh.ID, all[0].ID)
	assert.True(t, all[0].IsResolved)
	require.NotNil(t, all[0].ResolvedAt)
}
