package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS roles (
	id SERIAL PRIMARY KEY,
	name VARCHAR(50) NOT NULL UNIQUE,
	description TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

INSERT INTO roles (name, description) VALUES
	('admin', 'Administrator with full access'),
	('organizer', 'Event organizer who can create and manage events'),
	('user', 'Regular user who can purchase tickets')
ON CONFLICT (name) DO NOTHING;

CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	password VARCHAR(255) NOT NULL,
	first_name VARCHAR(100) NOT NULL,
	last_name VARCHAR(100) NOT NULL,
	phone VARCHAR(20),
	role_id INT NOT NULL REFERENCES roles(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	description TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	location VARCHAR(255) NOT NULL,
	event_date TIMESTAMPTZ NOT NULL,
	price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
	available_tickets INT NOT NULL CHECK (available_tickets >= 0),
	category_id BIGINT NOT NULL REFERENCES categories(id),
	organizer_id BIGINT NOT NULL REFERENCES users(id),
	is_featured BOOLEAN NOT NULL DEFAULT FALSE,
	status VARCHAR(16) NOT NULL DEFAULT 'active'
		CHECK (status IN ('active', 'cancelled', 'completed')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tickets (
	id BIGSERIAL PRIMARY KEY,
	event_id BIGINT NOT NULL REFERENCES events(id),
	user_id BIGINT NOT NULL REFERENCES users(id),
	quantity INT NOT NULL CHECK (quantity > 0),
	total_price NUMERIC(10, 2) NOT NULL,
	purchase_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	status VARCHAR(16) NOT NULL DEFAULT 'confirmed'
		CHECK (status IN ('confirmed', 'cancelled', 'used'))
);

CREATE INDEX IF NOT EXISTS idx_tickets_user_purchase ON tickets (user_id, purchase_date DESC);

CREATE TABLE IF NOT EXISTS processed_events (
	event_id VARCHAR(64) PRIMARY KEY,
	event_type VARCHAR(64) NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// MigrateSchema creates the tables this service needs when they are missing
func (s *Store) MigrateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
