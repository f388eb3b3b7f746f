package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"TechMart/internal/domain/models"
)

// CreateSuggestion stores s and sets its ID and timestamps. A second pending
// suggestion for the same product is rejected with ErrSuggestionPending.
func (r *SQLRepository) CreateSuggestion(ctx context.Context, s *models.ReorderSuggestion) error {
	now := r.now().UTC()
	if s.Status == "" {
		s.Status = models.StatusPending
	}
	q := `INSERT INTO reorder_suggestions (
			product_id, suggested_quantity, suggested_supplier_id, urgency_score,
			estimated_stockout_date, reasoning, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowContext(ctx, r.rebind(q),
		s.ProductID, s.SuggestedQuantity, s.SuggestedSupplierID, s.UrgencyScore,
		s.EstimatedStockoutDate.UTC(), s.Reasoning, string(s.Status), now, now,
	).Scan(&s.ID)
	if isUniqueViolation(err) {
		return models.ErrSuggestionPending
	}
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

const suggestionColumns = `
	rs.id, rs.product_id, rs.suggested_quantity, rs.suggested_supplier_id, rs.urgency_score,
	rs.estimated_stockout_date, rs.reasoning, rs.status, rs.created_at, rs.updated_at`

func scanSuggestion(row rowScanner, extra ...interface{}) (*models.ReorderSuggestion, error) {
	var (
		s      models.ReorderSuggestion
		status string
	)
	dest := append([]interface{}{
		&s.ID, &s.ProductID, &s.SuggestedQuantity, &s.SuggestedSupplierID, &s.UrgencyScore,
		&s.EstimatedStockoutDate, &s.Reasoning, &status, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Status = models.SuggestionStatus(status)
	return &s, nil
}

func (r *SQLRepository) GetSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error) {
	q := "SELECT" + suggestionColumns + " FROM reorder_suggestions rs WHERE rs.id = ?"
	s, err := scanSuggestion(r.db.QueryRowContext(ctx, r.rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion %d: %w", id, err)
	}
	return s, nil
}

func (r *SQLRepository) HasPendingSuggestion(ctx context.Context, productID int64) (bool, error) {
	q := `SELECT COUNT(*) FROM reorder_suggestions WHERE product_id = ? AND status = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, r.rebind(q), productID, string(models.StatusPending)).Scan(&n); err != nil {
		return false, fmt.Errorf("check pending suggestion: %w", err)
	}
	return n > 0, nil
}

// ListSuggestions returns suggestions in status with their product and
// suggested supplier, most urgent first.
func (r *SQLRepository) ListSuggestions(ctx context.Context, status models.SuggestionStatus, skip, limit int) ([]models.SuggestionView, error) {
	q := "SELECT" + suggestionColumns + "," + productColumns + `,
		ss.id, ss.name, ss.contact_email, ss.country, ss.reliability_score, ss.average_delivery_days
		FROM reorder_suggestions rs
		JOIN products p ON p.id = rs.product_id
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		LEFT JOIN suppliers ss ON ss.id = rs.suggested_supplier_id
		WHERE rs.status = ?
		ORDER BY rs.urgency_score DESC, rs.id
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), string(status), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	out := make([]models.SuggestionView, 0, limit)
	for rows.Next() {
		var (
			pr  productRow
			sup supplierRow
		)
		s, err := scanSuggestion(rows, append(pr.dest(), sup.dest()...)...)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, models.SuggestionView{
			ReorderSuggestion: *s,
			Product:           pr.product(),
			Supplier:          sup.supplier(),
		})
	}
	return out, rows.Err()
}

// UpdateSuggestionStatus moves a suggestion from one status to another. It
// fails with ErrInvalidTransition when the row is no longer in from.
func (r *SQLRepository) UpdateSuggestionStatus(ctx context.Context, id int64, from, to models.SuggestionStatus) error {
	q := `UPDATE reorder_suggestions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, r.rebind(q), string(to), r.now().UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update suggestion %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update suggestion %d: %w", id, err)
	}
	if n == 0 {
		if _, err := r.GetSuggestion(ctx, id); err != nil {
			return err
		}
		return models.ErrInvalidTransition
	}
	return nil
}

// UpsertPrediction writes one prediction per product, day and horizon;
// rerunning on the same day replaces the earlier figures.
func (r *SQLRepository) UpsertPrediction(ctx context.Context, p *models.InventoryPrediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	q := `INSERT INTO inventory_predictions (
			product_id, predicted_demand, confidence_score, prediction_date, prediction_horizon_days,
			recommended_reorder_quantity, optimal_supplier_id, seasonality_factor, trend_factor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id, prediction_date, prediction_horizon_days) DO UPDATE SET
			predicted_demand = excluded.predicted_demand,
			confidence_score = excluded.confidence_score,
			recommended_reorder_quantity = excluded.recommended_reorder_quantity,
			optimal_supplier_id = excluded.optimal_supplier_id,
			seasonality_factor = excluded.seasonality_factor,
			trend_factor = excluded.trend_factor,
			created_at = excluded.created_at
		RETURNING id`
	err := r.db.QueryRowContext(ctx, r.rebind(q),
		p.ProductID, p.PredictedDemand, p.ConfidenceScore, p.PredictionDate.UTC(), p.HorizonDays,
		p.RecommendedReorderQuantity, p.OptimalSupplierID, p.SeasonalityFactor, p.TrendFactor, p.CreatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	return nil
}

// ListPredictions returns the latest predictions for a product, newest first.
func (r *SQLRepository) ListPredictions(ctx context.Context, productID int64, limit int) ([]models.InventoryPrediction, error) {
	q := `SELECT id, product_id, predicted_demand, confidence_score, prediction_date, prediction_horizon_days,
			recommended_reorder_quantity, optimal_supplier_id, seasonality_factor, trend_factor, created_at
		FROM inventory_predictions
		WHERE product_id = ?
		ORDER BY prediction_date DESC, prediction_horizon_days
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []models.InventoryPrediction
	for rows.Next() {
		var p models.InventoryPrediction
		if err := rows.Scan(
			&p.ID, &p.ProductID, &p.PredictedDemand, &p.ConfidenceScore, &p.PredictionDate, &p.HorizonDays,
			&p.RecommendedReorderQuantity, &p.OptimalSupplierID, &p.SeasonalityFactor, &p.TrendFactor, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
