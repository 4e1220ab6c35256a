package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/tradeledger/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateContractNotesTable()

	if err := CreateTables(DB); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// CreateTables applies the schema. Exposed separately so tests can run it
// against an in-memory database.
func CreateTables(db *sql.DB) error {
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		auth_provider TEXT DEFAULT 'local',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS contract_notes (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		upload_date TIMESTAMP NOT NULL,
		gross_pnl REAL NOT NULL DEFAULT 0,
		net_pnl REAL NOT NULL DEFAULT 0,
		total_charges REAL NOT NULL DEFAULT 0,
		trade_count INTEGER NOT NULL DEFAULT 0,
		processed BOOLEAN NOT NULL DEFAULT TRUE,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		contract_note_id TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		symbol TEXT NOT NULL,
		trade_type TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		order_value REAL NOT NULL,
		exchange TEXT NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(contract_note_id) REFERENCES contract_notes(id)
	);

	CREATE TABLE IF NOT EXISTS charges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		contract_note_id TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		brokerage REAL NOT NULL DEFAULT 0,
		stt REAL NOT NULL DEFAULT 0,
		gst REAL NOT NULL DEFAULT 0,
		stamp_duty REAL NOT NULL DEFAULT 0,
		exchange_charges REAL NOT NULL DEFAULT 0,
		sebi_charges REAL NOT NULL DEFAULT 0,
		total_charges REAL NOT NULL DEFAULT 0,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(contract_note_id) REFERENCES contract_notes(id)
	);

	CREATE INDEX IF NOT EXISTS idx_contract_notes_user_date ON contract_notes(user_id, upload_date);
	CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id);
	CREATE INDEX IF NOT EXISTS idx_charges_user ON charges(user_id);
	`
	_, err := db.Exec(createTableStatement)
	return err
}

func migrateContractNotesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='contract_notes'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'contract_notes' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'contract_notes' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'contract_notes' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'contract_notes' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(contract_notes)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'contract_notes'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'contract_notes'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'contract_notes'", "error", err)
		}
		return
	}

	if _, ok := columnExists["processed"]; !ok {
		_, err := DB.Exec("ALTER TABLE contract_notes ADD COLUMN processed BOOLEAN NOT NULL DEFAULT TRUE")
		if err != nil {
			logger.L.Error("Error adding 'processed' column to 'contract_notes' table", "error", err)
		} else {
			logger.L.Info("Added 'processed' column to 'contract_notes' table")
		}
	}
	if _, ok := columnExists["trade_count"]; !ok {
		_, err := DB.Exec("ALTER TABLE contract_notes ADD COLUMN trade_count INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'trade_count' column to 'contract_notes' table", "error", err)
		} else {
			logger.L.Info("Added 'trade_count' column to 'contract_notes' table")
		}
	}
}
