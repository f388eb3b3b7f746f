package repository

import "strings"

// Relational schema shared by SQLite and PostgreSQL. Column types that differ
// between the two are written as placeholders and expanded per driver.

const schemaSuppliers = `
CREATE TABLE IF NOT EXISTS suppliers (
    id {{id}},
    name TEXT NOT NULL,
    contact_email TEXT NOT NULL DEFAULT '',
    country TEXT NOT NULL DEFAULT '',
    reliability_score REAL,
    average_delivery_days INTEGER
);
`

const schemaProducts = `
CREATE TABLE IF NOT EXISTS products (
    id {{id}},
    name TEXT NOT NULL,
    sku TEXT NOT NULL UNIQUE,
    category TEXT NOT NULL DEFAULT '',
    price NUMERIC(12, 2) NOT NULL DEFAULT 0,
    stock_quantity INTEGER NOT NULL DEFAULT 0,
    reorder_threshold INTEGER NOT NULL DEFAULT 10,
    reorder_quantity INTEGER NOT NULL DEFAULT 50,
    supplier_id BIGINT REFERENCES suppliers(id)
);

CREATE INDEX IF NOT EXISTS idx_products_supplier ON products(supplier_id);
`

const schemaCustomers = `
CREATE TABLE IF NOT EXISTS customers (
    id {{id}},
    email TEXT NOT NULL UNIQUE,
    risk_score REAL NOT NULL DEFAULT 0,
    loyalty_tier TEXT NOT NULL DEFAULT '',
    total_spent NUMERIC(14, 2) NOT NULL DEFAULT 0,
    registration_date {{ts}} NOT NULL
);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    customer_id BIGINT NOT NULL,
    product_id BIGINT NOT NULL,
    quantity INTEGER NOT NULL,
    unit_price NUMERIC(12, 2) NOT NULL,
    total_amount NUMERIC(14, 2) NOT NULL,
    status TEXT NOT NULL,
    payment_method TEXT NOT NULL DEFAULT '',
    ip_address TEXT NOT NULL DEFAULT '',
    timestamp {{ts}} NOT NULL,
    is_suspicious {{bool}} NOT NULL DEFAULT {{false}},
    fraud_score REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transactions_customer_ts ON transactions(customer_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_product_ts ON transactions(product_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_suspicious ON transactions(is_suspicious, timestamp);
`

const schemaSuggestions = `
CREATE TABLE IF NOT EXISTS reorder_suggestions (
    id {{id}},
    product_id BIGINT NOT NULL REFERENCES products(id),
    suggested_quantity INTEGER NOT NULL,
    suggested_supplier_id BIGINT,
    urgency_score REAL NOT NULL,
    estimated_stockout_date {{ts}} NOT NULL,
    reasoning TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_status ON reorder_suggestions(status, urgency_score);
CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_one_pending ON reorder_suggestions(product_id) WHERE status = 'pending';
`

const schemaPredictions = `
CREATE TABLE IF NOT EXISTS inventory_predictions (
    id {{id}},
    product_id BIGINT NOT NULL REFERENCES products(id),
    predicted_demand INTEGER NOT NULL,
    confidence_score REAL NOT NULL,
    prediction_date {{ts}} NOT NULL,
    prediction_horizon_days INTEGER NOT NULL,
    recommended_reorder_quantity INTEGER,
    optimal_supplier_id BIGINT,
    seasonality_factor REAL NOT NULL,
    trend_factor REAL NOT NULL,
    created_at {{ts}} NOT NULL,
    UNIQUE (product_id, prediction_date, prediction_horizon_days)
);
`

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id {{id}},
    alert_type TEXT NOT NULL,
    severity TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    entity_type TEXT NOT NULL DEFAULT '',
    entity_id BIGINT,
    is_resolved {{bool}} NOT NULL DEFAULT {{false}},
    created_at {{ts}} NOT NULL,
    resolved_at {{ts}}
);

CREATE INDEX IF NOT EXISTS idx_alerts_lookup ON alerts(alert_type, entity_id, is_resolved, created_at);
`

// AllSchemas returns the schema statements in dependency order for driver.
func AllSchemas(driver string) []string {
	r := strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{bool}}", "INTEGER",
		"{{false}}", "0",
	)
	if driver == DriverPostgres {
		r = strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{bool}}", "BOOLEAN",
			"{{false}}", "FALSE",
		)
	}
	out := make([]string, 0, 7)
	for _, s := range []string{
		schemaSuppliers,
		schemaProducts,
		schemaCustomers,
		schemaTransactions,
		schemaSuggestions,
		schemaPredictions,
		schemaAlerts,
	} {
		out = append(out, r.Replace(s))
	}
	return out
}
