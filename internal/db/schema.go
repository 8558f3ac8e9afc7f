package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Category trees and image lists are
// stored as JSON documents.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'inspector' CHECK (role IN ('admin', 'inspector')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
    id                      TEXT PRIMARY KEY,
    name                    TEXT NOT NULL,
    address                 TEXT NOT NULL DEFAULT '',
    description             TEXT NOT NULL DEFAULT '',
    status                  TEXT NOT NULL DEFAULT 'pending',
    progress                REAL NOT NULL DEFAULT 0,
    overall_condition       TEXT NOT NULL DEFAULT '',
    images                  TEXT NOT NULL DEFAULT '[]',
    categories              TEXT NOT NULL DEFAULT '[]',
    assign_to               INTEGER NOT NULL DEFAULT 0,
    create_at               DATETIME NOT NULL,
    update_at               DATETIME NOT NULL,
    last_date_of_inspection DATETIME
);

CREATE INDEX IF NOT EXISTS idx_properties_assign_to ON properties(assign_to);

CREATE TABLE IF NOT EXISTS reports (
    id                       TEXT PRIMARY KEY,
    original_property_id     TEXT NOT NULL,
    name                     TEXT NOT NULL,
    address                  TEXT NOT NULL DEFAULT '',
    description              TEXT NOT NULL DEFAULT '',
    status                   TEXT NOT NULL,
    progress                 REAL NOT NULL,
    overall_condition        TEXT NOT NULL,
    assign_to                INTEGER NOT NULL DEFAULT 0,
    categories               TEXT NOT NULL,
    images                   TEXT NOT NULL DEFAULT '[]',
    original_property_images TEXT NOT NULL DEFAULT '[]',
    signature_url            TEXT,
    signed_at                DATETIME,
    signed_date              TEXT,
    create_at                DATETIME NOT NULL,
    update_at                DATETIME NOT NULL,
    last_date_of_inspection  DATETIME NOT NULL,
    deleted_at               DATETIME
);

CREATE INDEX IF NOT EXISTS idx_reports_assign_to ON reports(assign_to);

CREATE TABLE IF NOT EXISTS images (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    name       TEXT NOT NULL,
    mime       TEXT NOT NULL,
    data       BLOB NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
    id                  INTEGER PRIMARY KEY,
    user_id             INTEGER NOT NULL REFERENCES users(id),
    type                TEXT NOT NULL,
    title               TEXT NOT NULL,
    message             TEXT NOT NULL,
    related_property_id TEXT NOT NULL DEFAULT '',
    is_read             INTEGER NOT NULL DEFAULT 0,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    scheduled_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
