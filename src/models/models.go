package models

import "time"

// Trade is one executed order leg extracted from a contract note.
// Immutable once extracted; owned by the note that produced it.
type Trade struct {
	Symbol     string  `json:"symbol"`
	TradeType  string  `json:"trade_type"` // "BUY" or "SELL"
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	OrderValue float64 `json:"order_value"`
	Exchange   string  `json:"exchange"`
}

// Charges is the fee breakdown of one contract note. total_charges is
// expected to be the sum of the named components, but the extraction source
// does not guarantee it and callers must tolerate a mismatch.
type Charges struct {
	Brokerage       float64 `json:"brokerage"`
	STT             float64 `json:"stt"`
	GST             float64 `json:"gst"`
	StampDuty       float64 `json:"stamp_duty"`
	ExchangeCharges float64 `json:"exchange_charges"`
	SEBICharges     float64 `json:"sebi_charges"`
	TotalCharges    float64 `json:"total_charges"`
}

// PnLSummary is the extracted P&L totals of one contract note.
type PnLSummary struct {
	GrossPnL float64 `json:"gross_pnl"`
	NetPnL   float64 `json:"net_pnl"`
}

// ExtractedData is the transient bundle returned by the extraction step for
// one document. It is consumed immediately by the persistence step; the
// durable form is the contract_notes/trades/charges record sets.
type ExtractedData struct {
	Trades  []Trade    `json:"trades"`
	Charges Charges    `json:"charges"`
	Summary PnLSummary `json:"summary"`
}

// ContractNoteSummary is the per-document aggregate record. It is the unit
// the dashboard aggregation consumes.
type ContractNoteSummary struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"-"`
	FileName     string    `json:"file_name"`
	UploadDate   time.Time `json:"upload_date"`
	GrossPnL     float64   `json:"gross_pnl"`
	NetPnL       float64   `json:"net_pnl"`
	TotalCharges float64   `json:"total_charges"`
	TradeCount   int       `json:"trade_count"`
	Processed    bool      `json:"processed"`
}

// TradeRecord is a persisted Trade tagged with its owning contract note.
type TradeRecord struct {
	ID             int64     `json:"id"`
	ContractNoteID string    `json:"contract_note_id"`
	Date           time.Time `json:"date"`
	Trade
}

// ChargesRecord is a persisted Charges breakdown tagged with its owning
// contract note.
type ChargesRecord struct {
	ID             int64     `json:"id"`
	ContractNoteID string    `json:"contract_note_id"`
	Date           time.Time `json:"date"`
	Charges
}

// EquityPoint is one point of the running equity curve.
type EquityPoint struct {
	Label  string  `json:"name"`
	NetPnL float64 `json:"pnl"`
	Equity float64 `json:"equity"`
}

// CostSlice is one slice of the cost breakdown series.
type CostSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DashboardView is the derived analytics view over all of a user's contract
// note summaries, recomputed from scratch on every change.
type DashboardView struct {
	TotalNetPnL   float64 `json:"total_net_pnl"`
	TotalGrossPnL float64 `json:"total_gross_pnl"`
	TotalCharges  float64 `json:"total_charges"`
	TotalTrades   int     `json:"total_trades"`

	WinningDays int `json:"winning_days"`
	LosingDays  int `json:"losing_days"`
	WinRate     int `json:"win_rate"`

	// ProfitFactor is a display value; "0.00" when there are no charges so
	// the division never reaches the client as NaN or Infinity.
	ProfitFactor      string  `json:"profit_factor"`
	RetainedProfitPct float64 `json:"retained_profit_pct"`

	EquityCurve   []EquityPoint `json:"equity_curve"`
	CostBreakdown []CostSlice   `json:"cost_breakdown"`

	// HasData is false for the empty set so the client can render an explicit
	// no-data state instead of a zero-filled chart.
	HasData bool `json:"has_data"`
}
