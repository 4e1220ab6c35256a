package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/models"
)

// SQLNoteStore persists contract note record sets in sqlite. The summary,
// trades and charges rows of one document are written in a single
// transaction; partial persistence is an invariant violation. Change
// notification is not the store's job: the dashboard service signals
// subscribers after its cached view is invalidated, so a woken subscriber
// always recomputes from the post-commit snapshot.
type SQLNoteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLNoteStore(db *sql.DB) *SQLNoteStore {
	return &SQLNoteStore{db: db, now: time.Now}
}

// SaveExtractedData commits one contract note as three related record sets
// and returns the generated contract note id. Derived summary fields come
// from the extracted bundle: trade_count from len(trades), total_charges from
// charges.total_charges. All rows commit together or not at all.
func (s *SQLNoteStore) SaveExtractedData(ctx context.Context, userID int64, fileName string, data *models.ExtractedData) (string, error) {
	noteID := uuid.NewString()
	uploadDate := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contract_notes (id, user_id, file_name, upload_date, gross_pnl, net_pnl, total_charges, trade_count, processed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		noteID, userID, fileName, uploadDate,
		data.Summary.GrossPnL, data.Summary.NetPnL, data.Charges.TotalCharges, len(data.Trades), true,
	)
	if err != nil {
		return "", fmt.Errorf("error inserting contract note summary: %w", err)
	}

	if len(data.Trades) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO trades (user_id, contract_note_id, date, symbol, trade_type, quantity, price, order_value, exchange) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("error preparing trade insert statement: %w", err)
		}
		defer stmt.Close()

		for _, trade := range data.Trades {
			_, err := stmt.ExecContext(ctx, userID, noteID, uploadDate,
				trade.Symbol, trade.TradeType, trade.Quantity, trade.Price, trade.OrderValue, trade.Exchange)
			if err != nil {
				return "", fmt.Errorf("error inserting trade (symbol: %s): %w", trade.Symbol, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO charges (user_id, contract_note_id, date, brokerage, stt, gst, stamp_duty, exchange_charges, sebi_charges, total_charges) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, noteID, uploadDate,
		data.Charges.Brokerage, data.Charges.STT, data.Charges.GST,
		data.Charges.StampDuty, data.Charges.ExchangeCharges, data.Charges.SEBICharges,
		data.Charges.TotalCharges,
	)
	if err != nil {
		return "", fmt.Errorf("error inserting charges breakdown: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("error committing contract note records: %w", err)
	}

	logger.L.Info("Contract note persisted", "userID", userID, "contractNoteID", noteID, "tradeCount", len(data.Trades))
	return noteID, nil
}

// ListSummaries returns all of a user's contract note summaries, newest
// upload first.
func (s *SQLNoteStore) ListSummaries(ctx context.Context, userID int64) ([]models.ContractNoteSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, file_name, upload_date, gross_pnl, net_pnl, total_charges, trade_count, processed FROM contract_notes WHERE user_id = ? ORDER BY upload_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying contract notes for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var summaries []models.ContractNoteSummary
	for rows.Next() {
		var n models.ContractNoteSummary
		if err := rows.Scan(&n.ID, &n.UserID, &n.FileName, &n.UploadDate, &n.GrossPnL, &n.NetPnL, &n.TotalCharges, &n.TradeCount, &n.Processed); err != nil {
			return nil, fmt.Errorf("error scanning contract note row for userID %d: %w", userID, err)
		}
		summaries = append(summaries, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contract note rows for userID %d: %w", userID, err)
	}
	return summaries, nil
}

// ListTrades returns all of a user's persisted trades, newest first.
func (s *SQLNoteStore) ListTrades(ctx context.Context, userID int64) ([]models.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contract_note_id, date, symbol, trade_type, quantity, price, order_value, exchange FROM trades WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying trades for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var trades []models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		if err := rows.Scan(&t.ID, &t.ContractNoteID, &t.Date, &t.Symbol, &t.TradeType, &t.Quantity, &t.Price, &t.OrderValue, &t.Exchange); err != nil {
			return nil, fmt.Errorf("error scanning trade row for userID %d: %w", userID, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trade rows for userID %d: %w", userID, err)
	}
	return trades, nil
}

// ListCharges returns all of a user's charge breakdowns, newest first.
func (s *SQLNoteStore) ListCharges(ctx context.Context, userID int64) ([]models.ChargesRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contract_note_id, date, brokerage, stt, gst, stamp_duty, exchange_charges, sebi_charges, total_charges FROM charges WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying charges for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var charges []models.ChargesRecord
	for rows.Next() {
		var c models.ChargesRecord
		if err := rows.Scan(&c.ID, &c.ContractNoteID, &c.Date, &c.Brokerage, &c.STT, &c.GST, &c.StampDuty, &c.ExchangeCharges, &c.SEBICharges, &c.TotalCharges); err != nil {
			return nil, fmt.Errorf("error scanning charges row for userID %d: %w", userID, err)
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over charges rows for userID %d: %w", userID, err)
	}
	return charges, nil
}
