package repository

import (
	"context"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
)

func (r *SQLRepository) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	q := `INSERT INTO alerts (alert_type, severity, title, message, entity_type, entity_id, is_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	if err := r.db.QueryRowContext(ctx, r.rebind(q),
		a.AlertType, string(a.Severity), a.Title, a.Message, a.EntityType, a.EntityID, a.IsResolved, a.CreatedAt.UTC(),
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// HasRecentUnresolvedAlert reports whether an open alert of alertType for
// entityID was raised at or after since.
func (r *SQLRepository) HasRecentUnresolvedAlert(ctx context.Context, alertType string, entityID int64, since time.Time) (bool, error) {
	q := `SELECT COUNT(*) FROM alerts
		WHERE alert_type = ? AND entity_id = ? AND is_resolved = ? AND created_at >= ?`
	var n int
	if err := r.db.QueryRowContext(ctx, r.rebind(q), alertType, entityID, false, since.UTC()).Scan(&n); err != nil {
		return false, fmt.Errorf("check recent alert: %w", err)
	}
	return n > 0, nil
}

// ListAlerts returns the newest alerts, optionally filtered by resolution.
func (r *SQLRepository) ListAlerts(ctx context.Context, resolved *bool, limit int) ([]models.Alert, error) {
	q := `SELECT id, alert_type, severity, title, message, entity_type, entity_id, is_resolved, created_at, resolved_at
		FROM alerts`
	args := []interface{}{}
	if resolved != nil {
		q += ` WHERE is_resolved = ?`
		args = append(args, *resolved)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var (
			a        models.Alert
			severity string
		)
		if err := rows.Scan(
			&a.ID, &a.AlertType, &severity, &a.Title, &a.Message, &a.EntityType, &a.EntityID,
			&a.IsResolved, &a.CreatedAt, &a.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Severity = models.Severity(severity)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert marks an alert resolved. Resolving twice is a no-op.
func (r *SQLRepository) ResolveAlert(ctx context.Context, id int64) error {
	q := `UPDATE alerts SET is_resolved = ?, resolved_at = COALESCE(resolved_at, ?) WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.rebind(q), true, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve alert %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve alert %d: %w", id, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
