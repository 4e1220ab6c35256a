package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
	"trades": [
		{"symbol": "TCS", "trade_type": "BUY", "quantity": 10, "price": 3500.50, "order_value": 35005.00, "exchange": "NSE"},
		{"symbol": "TCS", "trade_type": "SELL", "quantity": 10, "price": 3550.00, "order_value": 35500.00, "exchange": "NSE"}
	],
	"charges": {"brokerage": 40, "stt": 35.5, "gst": 7.2, "stamp_duty": 5.25, "exchange_charges": 2.4, "sebi_charges": 0.07, "total_charges": 90.42},
	"summary": {"gross_pnl": 495.00, "net_pnl": 404.58}
}`

func TestParseExtractedData_Valid(t *testing.T) {
	data, err := ParseExtractedData([]byte(validPayload))
	require.NoError(t, err)

	require.Len(t, data.Trades, 2)
	assert.Equal(t, "TCS", data.Trades[0].Symbol)
	assert.Equal(t, "BUY", data.Trades[0].TradeType)
	assert.InDelta(t, 3500.50, data.Trades[0].Price, 1e-9)
	assert.Equal(t, "SELL", data.Trades[1].TradeType)

	assert.InDelta(t, 90.42, data.Charges.TotalCharges, 1e-9)
	assert.InDelta(t, 5.25, data.Charges.StampDuty, 1e-9)
	assert.InDelta(t, 495.00, data.Summary.GrossPnL, 1e-9)
	assert.InDelta(t, 404.58, data.Summary.NetPnL, 1e-9)
}

func TestParseExtractedData_EmptyTradesAllowed(t *testing.T) {
	payload := `{
		"trades": [],
		"charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0},
		"summary": {"gross_pnl": 0, "net_pnl": 0}
	}`
	data, err := ParseExtractedData([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, data.Trades)
}

func TestParseExtractedData_OptionalChargesDefaultToZero(t *testing.T) {
	payload := `{
		"trades": [],
		"charges": {"brokerage": 20, "stt": 10, "gst": 5, "total_charges": 35},
		"summary": {"gross_pnl": 100, "net_pnl": 65}
	}`
	data, err := ParseExtractedData([]byte(payload))
	require.NoError(t, err)
	assert.Zero(t, data.Charges.StampDuty)
	assert.Zero(t, data.Charges.ExchangeCharges)
	assert.Zero(t, data.Charges.SEBICharges)
}

func TestParseExtractedData_NotJSON(t *testing.T) {
	_, err := ParseExtractedData([]byte("I could not read this document."))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseExtractedData_MissingTopLevelSections(t *testing.T) {
	cases := map[string]string{
		"no trades":  `{"charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0}, "summary": {"gross_pnl": 0, "net_pnl": 0}}`,
		"no charges": `{"trades": [], "summary": {"gross_pnl": 0, "net_pnl": 0}}`,
		"no summary": `{"trades": [], "charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExtractedData([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseExtractedData_TradeMissingRequiredField(t *testing.T) {
	payload := `{
		"trades": [{"symbol": "TCS", "trade_type": "BUY", "quantity": 10, "price": 3500, "order_value": 35000}],
		"charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0},
		"summary": {"gross_pnl": 0, "net_pnl": 0}
	}`
	_, err := ParseExtractedData([]byte(payload))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseExtractedData_InvalidTradeType(t *testing.T) {
	payload := `{
		"trades": [{"symbol": "TCS", "trade_type": "SHORT", "quantity": 10, "price": 3500, "order_value": 35000, "exchange": "NSE"}],
		"charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0},
		"summary": {"gross_pnl": 0, "net_pnl": 0}
	}`
	_, err := ParseExtractedData([]byte(payload))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseExtractedData_ChargesMissingRequiredField(t *testing.T) {
	payload := `{
		"trades": [],
		"charges": {"brokerage": 20, "stt": 10, "gst": 5},
		"summary": {"gross_pnl": 0, "net_pnl": 0}
	}`
	_, err := ParseExtractedData([]byte(payload))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseExtractedData_ZeroValuedRequiredFieldIsValid(t *testing.T) {
	payload := `{
		"trades": [{"symbol": "IDEA", "trade_type": "BUY", "quantity": 0, "price": 0, "order_value": 0, "exchange": "BSE"}],
		"charges": {"brokerage": 0, "stt": 0, "gst": 0, "total_charges": 0},
		"summary": {"gross_pnl": 0, "net_pnl": 0}
	}`
	data, err := ParseExtractedData([]byte(payload))
	require.NoError(t, err)
	require.Len(t, data.Trades, 1)
	assert.Zero(t, data.Trades[0].Quantity)
}
