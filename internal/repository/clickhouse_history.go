package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
	"TechMart/internal/services/features"
	pkgch "TechMart/pkg/clickhouse"
	applogger "TechMart/pkg/logger"
)

// CHHistory serves demand history from the ClickHouse daily rollup and
// records transaction facts that feed it.
type CHHistory struct {
	db       *sql.DB
	database string
	zeroFill bool
	now      func() time.Time
	l        *applogger.Logger
}

func NewCHHistory(ch *pkgch.Client, zeroFill bool, l *applogger.Logger) *CHHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHHistory{db: ch.DB(), database: ch.Database(), zeroFill: zeroFill, now: time.Now, l: l}
}

// DailyDemand reads the rollup for the last days days. Rows are re-summed
// because SummingMergeTree collapses duplicates only on merge.
func (h *CHHistory) DailyDemand(ctx context.Context, productID int64, days int) (models.DemandSeries, error) {
	start := time.Now()
	to := features.TruncateDay(h.now())
	from := to.AddDate(0, 0, -days)

	q := fmt.Sprintf(`
        SELECT day, sum(quantity) AS qty
        FROM %s.daily_demand
        WHERE product_id = ? AND day >= ?
        GROUP BY day
        ORDER BY day ASC
    `, h.database)
	rows, err := h.db.QueryContext(ctx, q, productID, from)
	if err != nil {
		h.l.Error("clickhouse daily_demand query error",
			applogger.Int64("product_id", productID),
			applogger.Error(err))
		return models.DemandSeries{}, fmt.Errorf("daily demand: %w", err)
	}
	defer rows.Close()

	var points []models.DemandPoint
	for rows.Next() {
		var (
			day time.Time
			qty int64
		)
		if err := rows.Scan(&day, &qty); err != nil {
			return models.DemandSeries{}, fmt.Errorf("scan daily demand: %w", err)
		}
		points = append(points, models.DemandPoint{Date: features.TruncateDay(day), Quantity: float64(qty)})
	}
	if err := rows.Err(); err != nil {
		return models.DemandSeries{}, fmt.Errorf("rows: %w", err)
	}

	h.l.Debug("clickhouse daily_demand ok",
		applogger.Int64("product_id", productID),
		applogger.Int("rows", len(points)),
		applogger.Duration("duration_ms", time.Since(start)))
	return buildSeries(productID, points, h.zeroFill, from, to), nil
}

// RecordTransaction appends a transaction fact. ReplacingMergeTree keeps the
// latest row per transaction so replays are harmless.
func (h *CHHistory) RecordTransaction(ctx context.Context, t *models.Transaction) error {
	q := fmt.Sprintf(`INSERT INTO %s.transactions
		(transaction_id, customer_id, product_id, quantity, total_amount, status, ip_address, is_suspicious, fraud_score, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, h.database)
	suspicious := uint8(0)
	if t.IsSuspicious {
		suspicious = 1
	}
	_, err := h.db.ExecContext(ctx, q,
		t.ID, t.CustomerID, t.ProductID, int32(t.Quantity), t.TotalAmount,
		string(t.Status), t.IPAddress, suspicious, t.FraudScore, t.Timestamp.UTC(),
	)
	if err != nil {
		h.l.Error("clickhouse insert transaction error",
			applogger.String("transaction_id", t.ID),
			applogger.Error(err))
		return fmt.Errorf("record transaction %s: %w", t.ID, err)
	}
	return nil
}
