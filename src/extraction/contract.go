package extraction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/username/tradeledger/backend/src/models"
	"google.golang.org/genai"
)

// ErrMalformedResponse marks an extraction response that does not satisfy the
// contract: not JSON, or a required field is missing or of the wrong shape.
var ErrMalformedResponse = errors.New("extraction response does not match the contract schema")

// SystemInstruction constrains the hosted model. The P&L arithmetic is
// expressed only here, as natural language; the schema does not enforce it.
const SystemInstruction = `
You are an expert financial data analyst specializing in Indian Stock Market Contract Notes (Zerodha, AngelOne, etc.).
Your task is to extract trading data, calculate charges, and summarize P&L from the provided PDF document.

1. Identify the 'Trades' or 'Transactions' table. Extract Symbol, Buy/Sell type, Quantity, Price, and calculated Order Value.
2. Identify the 'Charges' section (Brokerage, STT, GST, Exchange Txn, Sebi, Stamp Duty).
3. Calculate Gross P&L (Sell Value - Buy Value) and Net P&L (Gross P&L - Total Charges).
4. Ensure strict JSON output based on the schema.
5. Ignore any non-trade related info.
`

// PromptText accompanies the inline PDF part.
const PromptText = "Extract trade details, charges, and summary from this contract note."

// ResponseSchema is the fixed shape the extraction call must return.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"trades": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"symbol":      {Type: genai.TypeString},
						"trade_type":  {Type: genai.TypeString, Enum: []string{"BUY", "SELL"}},
						"quantity":    {Type: genai.TypeNumber},
						"price":       {Type: genai.TypeNumber},
						"order_value": {Type: genai.TypeNumber},
						"exchange":    {Type: genai.TypeString},
					},
					Required: []string{"symbol", "trade_type", "quantity", "price", "order_value", "exchange"},
				},
			},
			"charges": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"brokerage":        {Type: genai.TypeNumber},
					"stt":              {Type: genai.TypeNumber},
					"gst":              {Type: genai.TypeNumber},
					"stamp_duty":       {Type: genai.TypeNumber},
					"exchange_charges": {Type: genai.TypeNumber},
					"sebi_charges":     {Type: genai.TypeNumber},
					"total_charges":    {Type: genai.TypeNumber},
				},
				Required: []string{"brokerage", "stt", "gst", "total_charges"},
			},
			"summary": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"gross_pnl": {Type: genai.TypeNumber},
					"net_pnl":   {Type: genai.TypeNumber},
				},
				Required: []string{"gross_pnl", "net_pnl"},
			},
		},
		Required: []string{"trades", "charges", "summary"},
	}
}

// Raw decode targets. Pointer fields distinguish a missing required field
// from a legitimate zero value; the hosted model's output is not provably
// conformant, so everything required is checked before use.
type rawTrade struct {
	Symbol     *string  `json:"symbol"`
	TradeType  *string  `json:"trade_type"`
	Quantity   *float64 `json:"quantity"`
	Price      *float64 `json:"price"`
	OrderValue *float64 `json:"order_value"`
	Exchange   *string  `json:"exchange"`
}

type rawCharges struct {
	Brokerage       *float64 `json:"brokerage"`
	STT             *float64 `json:"stt"`
	GST             *float64 `json:"gst"`
	StampDuty       *float64 `json:"stamp_duty"`
	ExchangeCharges *float64 `json:"exchange_charges"`
	SEBICharges     *float64 `json:"sebi_charges"`
	TotalCharges    *float64 `json:"total_charges"`
}

type rawSummary struct {
	GrossPnL *float64 `json:"gross_pnl"`
	NetPnL   *float64 `json:"net_pnl"`
}

type rawExtraction struct {
	Trades  *[]rawTrade `json:"trades"`
	Charges *rawCharges `json:"charges"`
	Summary *rawSummary `json:"summary"`
}

// ParseExtractedData decodes and validates the extraction response. Any
// required-field violation fails with ErrMalformedResponse; fields are never
// silently coerced or dropped.
func ParseExtractedData(payload []byte) (*models.ExtractedData, error) {
	var raw rawExtraction
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if raw.Trades == nil {
		return nil, fmt.Errorf("%w: missing required field 'trades'", ErrMalformedResponse)
	}
	if raw.Charges == nil {
		return nil, fmt.Errorf("%w: missing required field 'charges'", ErrMalformedResponse)
	}
	if raw.Summary == nil {
		return nil, fmt.Errorf("%w: missing required field 'summary'", ErrMalformedResponse)
	}

	data := &models.ExtractedData{Trades: make([]models.Trade, 0, len(*raw.Trades))}

	for i, t := range *raw.Trades {
		if t.Symbol == nil || t.TradeType == nil || t.Quantity == nil || t.Price == nil || t.OrderValue == nil || t.Exchange == nil {
			return nil, fmt.Errorf("%w: trade %d is missing a required field", ErrMalformedResponse, i)
		}
		if *t.TradeType != "BUY" && *t.TradeType != "SELL" {
			return nil, fmt.Errorf("%w: trade %d has invalid trade_type %q", ErrMalformedResponse, i, *t.TradeType)
		}
		data.Trades = append(data.Trades, models.Trade{
			Symbol:     *t.Symbol,
			TradeType:  *t.TradeType,
			Quantity:   *t.Quantity,
			Price:      *t.Price,
			OrderValue: *t.OrderValue,
			Exchange:   *t.Exchange,
		})
	}

	c := raw.Charges
	if c.Brokerage == nil || c.STT == nil || c.GST == nil || c.TotalCharges == nil {
		return nil, fmt.Errorf("%w: charges is missing a required field", ErrMalformedResponse)
	}
	data.Charges = models.Charges{
		Brokerage:    *c.Brokerage,
		STT:          *c.STT,
		GST:          *c.GST,
		TotalCharges: *c.TotalCharges,
	}
	// Optional components default to 0. The total is trusted as reported;
	// it is not reconciled against the components.
	if c.StampDuty != nil {
		data.Charges.StampDuty = *c.StampDuty
	}
	if c.ExchangeCharges != nil {
		data.Charges.ExchangeCharges = *c.ExchangeCharges
	}
	if c.SEBICharges != nil {
		data.Charges.SEBICharges = *c.SEBICharges
	}

	s := raw.Summary
	if s.GrossPnL == nil || s.NetPnL == nil {
		return nil, fmt.Errorf("%w: summary is missing a required field", ErrMalformedResponse)
	}
	data.Summary = models.PnLSummary{GrossPnL: *s.GrossPnL, NetPnL: *s.NetPnL}

	return data, nil
}
