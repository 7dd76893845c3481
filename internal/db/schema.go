package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'owner' CHECK (role IN ('owner', 'mechanic', 'admin')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(lower(email)) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS profiles (
    id              INTEGER PRIMARY KEY,
    user_id         INTEGER NOT NULL UNIQUE REFERENCES users(id),
    phone           TEXT NOT NULL DEFAULT '',
    document_number TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cars (
    id         INTEGER PRIMARY KEY,
    owner_id   INTEGER NOT NULL REFERENCES users(id),
    vin        TEXT NOT NULL,
    plate      TEXT NOT NULL,
    make       TEXT NOT NULL,
    model      TEXT NOT NULL,
    year       INTEGER,
    color      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_cars_vin_active
    ON cars(vin) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS transfers (
    id                 INTEGER PRIMARY KEY,
    car_id             INTEGER NOT NULL REFERENCES cars(id),
    seller_id          INTEGER NOT NULL REFERENCES users(id),
    buyer_id           INTEGER NOT NULL REFERENCES users(id) CHECK (buyer_id != seller_id),
    seller_profile_id  INTEGER NOT NULL REFERENCES profiles(id),
    buyer_profile_id   INTEGER NOT NULL REFERENCES profiles(id),
    status             TEXT NOT NULL DEFAULT 'pending_buyer_acceptance' CHECK (status IN (
                           'pending_seller_documents', 'pending_buyer_acceptance',
                           'pending_admin_approval', 'completed', 'cancelled', 'rejected')),
    sale_price         TEXT NOT NULL,
    notes              TEXT,
    admin_notes        TEXT,
    transfer_date      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completion_date    DATETIME,
    approved_by_id     INTEGER REFERENCES users(id),
    rejected_at        DATETIME,
    rejected_by_id     INTEGER REFERENCES users(id),
    cancelled_at       DATETIME,
    cancelled_by_id    INTEGER REFERENCES users(id),
    cancellation_reason TEXT
);

-- One non-terminal transfer per car, enforced by the database itself so that
-- concurrent initiations cannot both succeed.
CREATE UNIQUE INDEX IF NOT EXISTS idx_transfers_one_active_per_car
    ON transfers(car_id) WHERE status IN (
        'pending_seller_documents', 'pending_buyer_acceptance', 'pending_admin_approval');

CREATE TABLE IF NOT EXISTS transfer_documents (
    id            INTEGER PRIMARY KEY,
    transfer_id   INTEGER NOT NULL REFERENCES transfers(id),
    document_type TEXT NOT NULL CHECK (document_type IN ('seller_id', 'buyer_id', 'sale_contract', 'other')),
    file_url      TEXT NOT NULL,
    file_name     TEXT NOT NULL,
    uploaded_by   INTEGER NOT NULL REFERENCES users(id),
    is_required   INTEGER NOT NULL DEFAULT 0,
    is_verified   INTEGER NOT NULL DEFAULT 0,
    verified_by   INTEGER REFERENCES users(id),
    uploaded_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id          INTEGER PRIMARY KEY,
    transfer_id INTEGER NOT NULL REFERENCES transfers(id),
    sender_id   INTEGER NOT NULL REFERENCES users(id),
    body        TEXT NOT NULL,
    sent_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
