package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/username/tradeledger/backend/src/database"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateTables(db))
	return db
}

func sampleData() *models.ExtractedData {
	return &models.ExtractedData{
		Trades: []models.Trade{
			{Symbol: "TCS", TradeType: "BUY", Quantity: 10, Price: 3500.50, OrderValue: 35005, Exchange: "NSE"},
			{Symbol: "TCS", TradeType: "SELL", Quantity: 10, Price: 3550, OrderValue: 35500, Exchange: "NSE"},
		},
		Charges: models.Charges{Brokerage: 40, STT: 35.5, GST: 7.2, StampDuty: 5.25, TotalCharges: 90.42},
		Summary: models.PnLSummary{GrossPnL: 495, NetPnL: 404.58},
	}
}

func TestSaveExtractedData_PersistsAllRecordSets(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLNoteStore(db)
	ctx := context.Background()

	noteID, err := store.SaveExtractedData(ctx, 1, "note.pdf", sampleData())
	require.NoError(t, err)
	require.NotEmpty(t, noteID)

	summaries, err := store.ListSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, noteID, summaries[0].ID)
	assert.Equal(t, "note.pdf", summaries[0].FileName)
	assert.InDelta(t, 495.0, summaries[0].GrossPnL, 1e-9)
	assert.InDelta(t, 404.58, summaries[0].NetPnL, 1e-9)
	// Derived fields come from the extracted bundle.
	assert.Equal(t, 2, summaries[0].TradeCount)
	assert.InDelta(t, 90.42, summaries[0].TotalCharges, 1e-9)
	assert.True(t, summaries[0].Processed)

	trades, err := store.ListTrades(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Equal(t, noteID, tr.ContractNoteID)
	}

	charges, err := store.ListCharges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, noteID, charges[0].ContractNoteID)
	assert.InDelta(t, 5.25, charges[0].StampDuty, 1e-9)
	assert.InDelta(t, 90.42, charges[0].TotalCharges, 1e-9)
}

func TestSaveExtractedData_NoTrades(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLNoteStore(db)
	ctx := context.Background()

	data := sampleData()
	data.Trades = nil

	noteID, err := store.SaveExtractedData(ctx, 1, "empty.pdf", data)
	require.NoError(t, err)

	summaries, err := store.ListSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, noteID, summaries[0].ID)
	assert.Zero(t, summaries[0].TradeCount)

	trades, err := store.ListTrades(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSaveExtractedData_FailureLeavesNoPartialRows(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLNoteStore(db)
	ctx := context.Background()

	// Force the trades insert to fail after the summary insert succeeded.
	_, err := db.Exec("DROP TABLE trades")
	require.NoError(t, err)

	_, err = store.SaveExtractedData(ctx, 1, "note.pdf", sampleData())
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM contract_notes").Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM charges").Scan(&count))
	assert.Zero(t, count)
}

func TestListSummaries_NewestFirstAndUserScoped(t *testing.T) {
	db := newTestDB(t)
	store := NewSQLNoteStore(db)
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time {
		clock = clock.Add(24 * time.Hour)
		return clock
	}

	first, err := store.SaveExtractedData(ctx, 1, "first.pdf", sampleData())
	require.NoError(t, err)
	second, err := store.SaveExtractedData(ctx, 1, "second.pdf", sampleData())
	require.NoError(t, err)
	_, err = store.SaveExtractedData(ctx, 2, "other-user.pdf", sampleData())
	require.NoError(t, err)

	summaries, err := store.ListSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second, summaries[0].ID)
	assert.Equal(t, first, summaries[1].ID)

	trades, err := store.ListTrades(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, trades, 4)
}

func TestChangeHub_CoalescesAndScopesByUser(t *testing.T) {
	hub := NewChangeHub()

	ch1, cancel1 := hub.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(2)
	defer cancel2()

	hub.Notify(1)
	hub.Notify(1)
	hub.Notify(1)

	// A single pending signal covers all three changes.
	select {
	case <-ch1:
	default:
		t.Fatal("expected a pending signal for user 1")
	}
	select {
	case <-ch1:
		t.Fatal("signals should coalesce, not queue")
	default:
	}
	select {
	case <-ch2:
		t.Fatal("user 2 must not see user 1 changes")
	default:
	}
}

func TestChangeHub_CancelStopsDelivery(t *testing.T) {
	hub := NewChangeHub()

	ch, cancel := hub.Subscribe(1)
	cancel()
	hub.Notify(1)

	select {
	case <-ch:
		t.Fatal("cancelled subscription must not receive signals")
	default:
	}
}
