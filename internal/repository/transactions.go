package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
	"TechMart/internal/services/features"
	applogger "TechMart/pkg/logger"
)

const transactionColumns = `
	t.id, t.customer_id, t.product_id, t.quantity, t.unit_price, t.total_amount, t.status,
	t.payment_method, t.ip_address, t.timestamp, t.is_suspicious, t.fraud_score`

// suspiciousScore also surfaces high scores that stayed under the verdict threshold.
const suspiciousScore = 0.7

func scanTransaction(row rowScanner, extra ...interface{}) (models.Transaction, error) {
	var (
		t      models.Transaction
		status string
	)
	dest := append([]interface{}{
		&t.ID, &t.CustomerID, &t.ProductID, &t.Quantity, &t.UnitPrice, &t.TotalAmount, &status,
		&t.PaymentMethod, &t.IPAddress, &t.Timestamp, &t.IsSuspicious, &t.FraudScore,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return t, err
	}
	t.Status = models.TransactionStatus(status)
	return t, nil
}

// SaveTransaction inserts or replaces a transaction by ID, so a replayed
// stream message leaves a single row. Stock and customer spend move only
// when the row turns completed, so replays do not count a purchase twice.
func (r *SQLRepository) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("%w: transaction id is required", models.ErrInvalidInput)
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = r.now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save transaction %s: begin: %w", t.ID, err)
	}
	defer tx.Rollback()

	var prev string
	err = tx.QueryRowContext(ctx, r.rebind(`SELECT status FROM transactions WHERE id = ?`), t.ID).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save transaction %s: load: %w", t.ID, err)
	}

	q := `INSERT INTO transactions (
			id, customer_id, product_id, quantity, unit_price, total_amount, status,
			payment_method, ip_address, timestamp, is_suspicious, fraud_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			is_suspicious = excluded.is_suspicious,
			fraud_score = excluded.fraud_score`
	if _, err := tx.ExecContext(ctx, r.rebind(q),
		t.ID, t.CustomerID, t.ProductID, t.Quantity, t.UnitPrice, t.TotalAmount, string(t.Status),
		t.PaymentMethod, t.IPAddress, t.Timestamp.UTC(), t.IsSuspicious, t.FraudScore,
	); err != nil {
		return fmt.Errorf("save transaction %s: %w", t.ID, err)
	}

	if t.Status == models.TxCompleted && prev != string(models.TxCompleted) {
		if err := r.applyPurchase(ctx, tx, t); err != nil {
			return fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save transaction %s: commit: %w", t.ID, err)
	}
	return nil
}

// applyPurchase takes the quantity off stock and adds the total to the
// customer's spend. The sale already happened upstream, so a shortfall
// floors stock at zero instead of failing.
func (r *SQLRepository) applyPurchase(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	var stock int
	err := tx.QueryRowContext(ctx, r.rebind(`SELECT stock_quantity FROM products WHERE id = ?`), t.ProductID).Scan(&stock)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		r.l.Warn("purchase for unknown product",
			applogger.String("transaction_id", t.ID),
			applogger.Int64("product_id", t.ProductID))
	case err != nil:
		return fmt.Errorf("load stock: %w", err)
	default:
		left := stock - t.Quantity
		if left < 0 {
			r.l.Warn("purchase exceeds stock",
				applogger.String("transaction_id", t.ID),
				applogger.Int64("product_id", t.ProductID),
				applogger.Int("stock", stock),
				applogger.Int("quantity", t.Quantity))
			left = 0
		}
		if _, err := tx.ExecContext(ctx, r.rebind(`UPDATE products SET stock_quantity = ? WHERE id = ?`), left, t.ProductID); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		r.rebind(`UPDATE customers SET total_spent = total_spent + ? WHERE id = ?`),
		t.TotalAmount, t.CustomerID,
	); err != nil {
		return fmt.Errorf("update customer spend: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	q := "SELECT" + transactionColumns + " FROM transactions t WHERE t.id = ?"
	t, err := scanTransaction(r.db.QueryRowContext(ctx, r.rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return &t, nil
}

// CountRecentTransactions counts a customer's transactions of any status
// since the cutoff, leaving out excludeID.
func (r *SQLRepository) CountRecentTransactions(ctx context.Context, customerID int64, since time.Time, excludeID string) (int, error) {
	q := `SELECT COUNT(*) FROM transactions WHERE customer_id = ? AND timestamp >= ? AND id <> ?`
	var n int
	if err := r.db.QueryRowContext(ctx, r.rebind(q), customerID, since.UTC(), excludeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recent transactions: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) ListRecentTransactions(ctx context.Context, customerID int64, since time.Time) ([]models.Transaction, error) {
	q := "SELECT" + transactionColumns + `
		FROM transactions t
		WHERE t.customer_id = ? AND t.timestamp >= ?
		ORDER BY t.timestamp DESC`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), customerID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListSuspiciousTransactions returns flagged or high-scoring purchases since
// the cutoff, newest first.
func (r *SQLRepository) ListSuspiciousTransactions(ctx context.Context, since time.Time, skip, limit int) ([]models.SuspiciousTransaction, error) {
	q := "SELECT" + transactionColumns + `, COALESCE(c.email, ''), COALESCE(p.name, '')
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		LEFT JOIN products p ON p.id = t.product_id
		WHERE (t.is_suspicious = ? OR t.fraud_score > ?) AND t.timestamp >= ?
		ORDER BY t.timestamp DESC, t.id
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), true, suspiciousScore, since.UTC(), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list suspicious transactions: %w", err)
	}
	defer rows.Close()

	var out []models.SuspiciousTransaction
	for rows.Next() {
		var st models.SuspiciousTransaction
		t, err := scanTransaction(rows, &st.CustomerEmail, &st.ProductName)
		if err != nil {
			return nil, fmt.Errorf("scan suspicious transaction: %w", err)
		}
		st.Transaction = t
		out = append(out, st)
	}
	return out, rows.Err()
}

// FraudStatistics buckets suspicious transactions since the cutoff into high
// (score > 0.8) and medium risk.
func (r *SQLRepository) FraudStatistics(ctx context.Context, since time.Time) (models.FraudStatistics, error) {
	q := `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN fraud_score > 0.8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN fraud_score >= 0.6 AND fraud_score <= 0.8 THEN 1 ELSE 0 END), 0)
		FROM transactions
		WHERE is_suspicious = ? AND timestamp >= ?`
	var st models.FraudStatistics
	if err := r.db.QueryRowContext(ctx, r.rebind(q), true, since.UTC()).Scan(
		&st.TotalSuspicious, &st.HighRiskCount, &st.MediumRiskCount,
	); err != nil {
		return st, fmt.Errorf("fraud statistics: %w", err)
	}
	return st, nil
}

// DailyDemand sums completed-transaction quantities per UTC day over the
// last days days, oldest first.
func (r *SQLRepository) DailyDemand(ctx context.Context, productID int64, days int) (models.DemandSeries, error) {
	to := features.TruncateDay(r.now())
	from := to.AddDate(0, 0, -days)

	day := r.dayExpr("timestamp")
	q := fmt.Sprintf(`SELECT %s AS day, SUM(quantity)
		FROM transactions
		WHERE product_id = ? AND status = ? AND timestamp >= ?
		GROUP BY %s
		ORDER BY day`, day, day)
	rows, err := r.db.QueryContext(ctx, r.rebind(q), productID, string(models.TxCompleted), from.UTC())
	if err != nil {
		return models.DemandSeries{}, fmt.Errorf("daily demand: %w", err)
	}
	defer rows.Close()

	var points []models.DemandPoint
	for rows.Next() {
		var (
			d   string
			qty float64
		)
		if err := rows.Scan(&d, &qty); err != nil {
			return models.DemandSeries{}, fmt.Errorf("scan daily demand: %w", err)
		}
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			return models.DemandSeries{}, fmt.Errorf("parse demand day %q: %w", d, err)
		}
		points = append(points, models.DemandPoint{Date: date, Quantity: qty})
	}
	if err := rows.Err(); err != nil {
		return models.DemandSeries{}, fmt.Errorf("daily demand: %w", err)
	}
	return buildSeries(productID, points, r.zeroFill, from, to), nil
}

// buildSeries applies the configured gap policy. An empty history stays
// empty under either policy so the forecaster reports no data.
func buildSeries(productID int64, points []models.DemandPoint, zeroFill bool, from, to time.Time) models.DemandSeries {
	s := models.DemandSeries{ProductID: productID, Points: points, Gaps: models.GapsOmitted}
	if zeroFill && len(points) > 0 {
		s.Points = features.ZeroFill(points, from, to)
		s.Gaps = models.GapsZeroFilled
	}
	return s
}
