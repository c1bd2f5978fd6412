package migrations

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Run creates the database schema required for the invoicing backend.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS contacts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            name TEXT NOT NULL,
            email TEXT,
            phone TEXT,
            address TEXT,
            tax_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(kind, name)
        );`,
		`CREATE TABLE IF NOT EXISTS documents (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            doc_type TEXT NOT NULL,
            number TEXT NOT NULL,
            doc_date TEXT NOT NULL,
            contact_id INTEGER,
            contact_name TEXT,
            items TEXT NOT NULL DEFAULT '[]',
            subtotal REAL NOT NULL DEFAULT 0,
            tax REAL NOT NULL DEFAULT 0,
            total REAL NOT NULL DEFAULT 0,
            notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(doc_type, number)
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            txn_type TEXT NOT NULL,
            amount REAL NOT NULL,
            txn_date TEXT NOT NULL,
            method TEXT NOT NULL,
            cashed INTEGER NOT NULL DEFAULT 0,
            banked INTEGER NOT NULL DEFAULT 0,
            document_id INTEGER,
            notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(document_id) REFERENCES documents(id)
        );`,
		`CREATE TABLE IF NOT EXISTS transfers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            amount REAL NOT NULL,
            transfer_date TEXT NOT NULL,
            from_account TEXT NOT NULL,
            to_account TEXT NOT NULL,
            notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS settings (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            company_name TEXT NOT NULL DEFAULT '',
            company_address TEXT NOT NULL DEFAULT '',
            company_email TEXT NOT NULL DEFAULT '',
            company_phone TEXT NOT NULL DEFAULT '',
            company_tax_id TEXT NOT NULL DEFAULT '',
            currency TEXT NOT NULL DEFAULT 'EUR',
            theme TEXT NOT NULL DEFAULT '{}',
            license_key TEXT NOT NULL DEFAULT '',
            license_status TEXT NOT NULL DEFAULT 'trial',
            licensee TEXT NOT NULL DEFAULT '',
            license_expires_at TEXT NOT NULL DEFAULT '',
            license_checked_at TEXT NOT NULL DEFAULT ''
        );`,
		`INSERT OR IGNORE INTO settings (id) VALUES (1);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_document ON transactions(document_id);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_type_date ON documents(doc_type, doc_date);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}
}
