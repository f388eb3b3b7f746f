package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"TechMart/internal/domain/models"
)

const productColumns = `
	p.id, p.name, p.sku, p.category, p.price, p.stock_quantity,
	p.reorder_threshold, p.reorder_quantity, COALESCE(p.supplier_id, 0),
	s.id, s.name, s.contact_email, s.country, s.reliability_score, s.average_delivery_days`

const productFrom = `
	FROM products p
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type supplierRow struct {
	id      sql.NullInt64
	name    sql.NullString
	email   sql.NullString
	country sql.NullString
	rel     sql.NullFloat64
	days    sql.NullInt64
}

func (s *supplierRow) dest() []interface{} {
	return []interface{}{&s.id, &s.name, &s.email, &s.country, &s.rel, &s.days}
}

// supplier returns nil when the outer join found no supplier.
func (s *supplierRow) supplier() *models.Supplier {
	if !s.id.Valid {
		return nil
	}
	out := &models.Supplier{
		ID:           s.id.Int64,
		Name:         s.name.String,
		ContactEmail: s.email.String,
		Country:      s.country.String,
	}
	if s.rel.Valid {
		v := s.rel.Float64
		out.ReliabilityScore = &v
	}
	if s.days.Valid {
		v := int(s.days.Int64)
		out.AverageDeliveryDays = &v
	}
	return out
}

type productRow struct {
	p   models.Product
	sup supplierRow
}

func (r *productRow) dest() []interface{} {
	return append([]interface{}{
		&r.p.ID, &r.p.Name, &r.p.SKU, &r.p.Category, &r.p.Price, &r.p.StockQuantity,
		&r.p.ReorderThreshold, &r.p.ReorderQuantity, &r.p.SupplierID,
	}, r.sup.dest()...)
}

func (r *productRow) product() *models.Product {
	p := r.p
	p.Supplier = r.sup.supplier()
	return &p
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var pr productRow
	if err := row.Scan(pr.dest()...); err != nil {
		return nil, err
	}
	return pr.product(), nil
}

func (r *SQLRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetProduct loads a product with its current supplier.
func (r *SQLRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	q := "SELECT" + productColumns + productFrom + " WHERE p.id = ?"
	p, err := scanProduct(r.db.QueryRowContext(ctx, r.rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	out, err := r.queryProducts(ctx, "SELECT"+productColumns+productFrom+" ORDER BY p.id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// ListLowStock returns products under their reorder threshold, or under the
// explicit threshold when given, lowest stock first.
func (r *SQLRepository) ListLowStock(ctx context.Context, threshold *int) ([]models.Product, error) {
	var (
		out []models.Product
		err error
	)
	if threshold != nil {
		out, err = r.queryProducts(ctx,
			"SELECT"+productColumns+productFrom+" WHERE p.stock_quantity < ? ORDER BY p.stock_quantity, p.id",
			*threshold)
	} else {
		out, err = r.queryProducts(ctx,
			"SELECT"+productColumns+productFrom+" WHERE p.stock_quantity < p.reorder_threshold ORDER BY p.stock_quantity, p.id")
	}
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return out, nil
}

// ListCriticalStock returns products whose stock is at or below fraction of
// their reorder threshold.
func (r *SQLRepository) ListCriticalStock(ctx context.Context, fraction float64) ([]models.Product, error) {
	out, err := r.queryProducts(ctx,
		"SELECT"+productColumns+productFrom+" WHERE p.stock_quantity <= p.reorder_threshold * CAST(? AS REAL) ORDER BY p.stock_quantity, p.id",
		fraction)
	if err != nil {
		return nil, fmt.Errorf("list critical stock: %w", err)
	}
	return out, nil
}

// AdjustStock applies delta in one conditional update so concurrent
// adjustments cannot drive stock negative.
func (r *SQLRepository) AdjustStock(ctx context.Context, id int64, delta int) (*models.Product, error) {
	q := `UPDATE products SET stock_quantity = stock_quantity + ?
		WHERE id = ? AND stock_quantity + ? >= 0`
	res, err := r.db.ExecContext(ctx, r.rebind(q), delta, id, delta)
	if err != nil {
		return nil, fmt.Errorf("adjust stock %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("adjust stock %d: %w", id, err)
	}
	if n == 0 {
		p, err := r.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: available %d, requested %d", models.ErrInsufficientStock, p.StockQuantity, -delta)
	}
	return r.GetProduct(ctx, id)
}

// CreateProduct inserts p and sets its ID.
func (r *SQLRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	var supplierID interface{}
	if p.SupplierID != 0 {
		supplierID = p.SupplierID
	}
	q := `INSERT INTO products (name, sku, category, price, stock_quantity, reorder_threshold, reorder_quantity, supplier_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowContext(ctx, r.rebind(q),
		p.Name, p.SKU, p.Category, p.Price, p.StockQuantity,
		p.ReorderThreshold, p.ReorderQuantity, supplierID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	q := `SELECT id, name, contact_email, country, reliability_score, average_delivery_days
		FROM suppliers WHERE id = ?`
	var s models.Supplier
	err := r.db.QueryRowContext(ctx, r.rebind(q), id).Scan(
		&s.ID, &s.Name, &s.ContactEmail, &s.Country, &s.ReliabilityScore, &s.AverageDeliveryDays,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get supplier %d: %w", id, err)
	}
	return &s, nil
}

// ListSuppliers returns every supplier in ID order. The order is stable so
// scoring ties resolve the same way on every run.
func (r *SQLRepository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	q := `SELECT id, name, contact_email, country, reliability_score, average_delivery_days
		FROM suppliers ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []models.Supplier
	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactEmail, &s.Country, &s.ReliabilityScore, &s.AverageDeliveryDays); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateSupplier inserts s and sets its ID.
func (r *SQLRepository) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	q := `INSERT INTO suppliers (name, contact_email, country, reliability_score, average_delivery_days)
		VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := r.db.QueryRowContext(ctx, r.rebind(q),
		s.Name, s.ContactEmail, s.Country, s.ReliabilityScore, s.AverageDeliveryDays,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	q := `SELECT id, email, risk_score, loyalty_tier, total_spent, registration_date
		FROM customers WHERE id = ?`
	var c models.Customer
	err := r.db.QueryRowContext(ctx, r.rebind(q), id).Scan(
		&c.ID, &c.Email, &c.RiskScore, &c.LoyaltyTier, &c.TotalSpent, &c.RegisteredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

// CreateCustomer inserts c and sets its ID.
func (r *SQLRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = r.now().UTC()
	}
	q := `INSERT INTO customers (email, risk_score, loyalty_tier, total_spent, registration_date)
		VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := r.db.QueryRowContext(ctx, r.rebind(q),
		c.Email, c.RiskScore, c.LoyaltyTier, c.TotalSpent, c.RegisteredAt.UTC(),
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}
