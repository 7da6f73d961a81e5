package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Partial unique indexes enforce the
// "at most one active reference per item" invariants at the storage layer,
// backing up the checks performed inside each transaction.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL REFERENCES users(id),
    name        TEXT NOT NULL,
    description TEXT,
    image       BLOB,
    image_mime  TEXT,
    tradable    INTEGER NOT NULL DEFAULT 1,
    marketable  INTEGER NOT NULL DEFAULT 1,
    locked      INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS listings (
    id          TEXT PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id),
    seller_id   TEXT NOT NULL REFERENCES users(id),
    price_cents INTEGER NOT NULL CHECK (price_cents > 0),
    status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'sold', 'cancelled')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_item_active
    ON listings(item_id) WHERE status = 'active';

CREATE INDEX IF NOT EXISTS idx_listings_seller_status ON listings(seller_id, status);

CREATE TABLE IF NOT EXISTS trades (
    id         TEXT PRIMARY KEY,
    item_id    TEXT NOT NULL REFERENCES items(id),
    offerer_id TEXT NOT NULL REFERENCES users(id),
    status     TEXT NOT NULL DEFAULT 'pendiente' CHECK (status IN ('pendiente', 'completado', 'cancelado')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_trades_item_pending
    ON trades(item_id) WHERE status = 'pendiente';

CREATE INDEX IF NOT EXISTS idx_trades_offerer_status ON trades(offerer_id, status);

CREATE TABLE IF NOT EXISTS trade_offers (
    id         TEXT PRIMARY KEY,
    trade_id   TEXT NOT NULL REFERENCES trades(id),
    offerer_id TEXT NOT NULL REFERENCES users(id),
    item_id    TEXT NOT NULL REFERENCES items(id),
    status     TEXT NOT NULL DEFAULT 'pendiente' CHECK (status IN ('pendiente', 'aceptado', 'rechazado', 'cancelado')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_item_pending
    ON trade_offers(item_id) WHERE status = 'pendiente';

CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_dedup
    ON trade_offers(trade_id, offerer_id, item_id) WHERE status = 'pendiente';

CREATE TABLE IF NOT EXISTS privacy_settings (
    user_id     TEXT PRIMARY KEY REFERENCES users(id),
    inventory   TEXT NOT NULL DEFAULT 'public' CHECK (inventory IN ('public', 'friends', 'private')),
    trade       TEXT NOT NULL DEFAULT 'public' CHECK (trade IN ('public', 'friends', 'private')),
    marketplace TEXT NOT NULL DEFAULT 'public' CHECK (marketplace IN ('public', 'friends', 'private'))
);

CREATE TABLE IF NOT EXISTS friendships (
    requester_id TEXT NOT NULL REFERENCES users(id),
    addressee_id TEXT NOT NULL REFERENCES users(id),
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (requester_id, addressee_id)
);

CREATE TABLE IF NOT EXISTS wallet_transactions (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL REFERENCES users(id),
    amount_cents     INTEGER NOT NULL,
    type             TEXT NOT NULL CHECK (type IN ('purchase', 'deposit')),
    status           TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('completed')),
    idempotency_key  TEXT,
    listing_id       TEXT REFERENCES listings(id),
    commission_cents INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_tx_idempotency
    ON wallet_transactions(user_id, idempotency_key) WHERE idempotency_key IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_wallet_tx_user_created
    ON wallet_transactions(user_id, created_at);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
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
