package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradeledger/backend/src/models"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 10, 0, 0, 0, time.UTC)
}

func TestCompute_EmptySnapshot(t *testing.T) {
	p := NewDashboardProcessor(0)
	view := p.Compute(nil)

	assert.False(t, view.HasData)
	assert.Equal(t, 0, view.TotalTrades)
	assert.Equal(t, 0, view.WinRate)
	assert.Equal(t, "0.00", view.ProfitFactor)
	assert.Empty(t, view.EquityCurve)
	assert.Empty(t, view.CostBreakdown)
}

func TestCompute_WinLossPartitionAndWinRate(t *testing.T) {
	p := NewDashboardProcessor(0)
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), NetPnL: 500},
		{UploadDate: day(2), NetPnL: -200},
		{UploadDate: day(3), NetPnL: 300},
	})

	assert.Equal(t, 2, view.WinningDays)
	assert.Equal(t, 1, view.LosingDays)
	// round(2/3 * 100) = 67
	assert.Equal(t, 67, view.WinRate)
	assert.True(t, view.HasData)
}

func TestCompute_ZeroNetPnLCountsAsLosingDay(t *testing.T) {
	p := NewDashboardProcessor(0)
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), NetPnL: 0},
	})

	assert.Equal(t, 0, view.WinningDays)
	assert.Equal(t, 1, view.LosingDays)
	assert.Equal(t, 0, view.WinRate)
}

func TestCompute_ProfitFactor(t *testing.T) {
	p := NewDashboardProcessor(0)

	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), GrossPnL: 1000, NetPnL: 900, TotalCharges: 100},
		{UploadDate: day(2), GrossPnL: 500, NetPnL: 400, TotalCharges: 100},
	})
	assert.Equal(t, "7.50", view.ProfitFactor)

	// Zero total charges keeps the formatted sentinel instead of dividing.
	view = p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), GrossPnL: 1000, NetPnL: 1000},
	})
	assert.Equal(t, "0.00", view.ProfitFactor)
}

func TestCompute_RetainedProfitPct(t *testing.T) {
	p := NewDashboardProcessor(0)

	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), GrossPnL: 2000, NetPnL: 1500, TotalCharges: 500},
	})
	assert.InDelta(t, 75.0, view.RetainedProfitPct, 1e-9)

	// Non-positive gross P&L leaves the ratio at zero.
	view = p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), GrossPnL: -100, NetPnL: -150, TotalCharges: 50},
	})
	assert.Zero(t, view.RetainedProfitPct)
}

func TestCompute_EquityCurveSortsByUploadDate(t *testing.T) {
	p := NewDashboardProcessor(0)

	// Arrival order is newest first; the curve must still run oldest first.
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(3), NetPnL: 300},
		{UploadDate: day(2), NetPnL: -200},
		{UploadDate: day(1), NetPnL: 500},
	})

	require.Len(t, view.EquityCurve, 3)
	assert.Equal(t, "1 Mar", view.EquityCurve[0].Label)
	assert.InDelta(t, 100500.0, view.EquityCurve[0].Equity, 1e-9)
	assert.InDelta(t, 100300.0, view.EquityCurve[1].Equity, 1e-9)
	assert.InDelta(t, 100600.0, view.EquityCurve[2].Equity, 1e-9)
	assert.InDelta(t, -200.0, view.EquityCurve[1].NetPnL, 1e-9)
}

func TestCompute_EquityCurveCustomBaseCapital(t *testing.T) {
	p := NewDashboardProcessor(50000)
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), NetPnL: 1000},
	})

	require.Len(t, view.EquityCurve, 1)
	assert.InDelta(t, 51000.0, view.EquityCurve[0].Equity, 1e-9)
}

func TestCompute_CostBreakdownRatios(t *testing.T) {
	p := NewDashboardProcessor(0)
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), TotalCharges: 100},
		{UploadDate: day(2), TotalCharges: 150},
	})

	require.Len(t, view.CostBreakdown, 3)
	assert.Equal(t, "Total Charges", view.CostBreakdown[0].Name)
	assert.InDelta(t, 250.0, view.CostBreakdown[0].Value, 1e-9)
	assert.Equal(t, "Taxes (Est)", view.CostBreakdown[1].Name)
	assert.InDelta(t, 100.0, view.CostBreakdown[1].Value, 1e-9)
	assert.Equal(t, "Brokerage (Est)", view.CostBreakdown[2].Name)
	assert.InDelta(t, 150.0, view.CostBreakdown[2].Value, 1e-9)
}

func TestCompute_Totals(t *testing.T) {
	p := NewDashboardProcessor(0)
	view := p.Compute([]models.ContractNoteSummary{
		{UploadDate: day(1), GrossPnL: 1000, NetPnL: 850, TotalCharges: 150, TradeCount: 4},
		{UploadDate: day(2), GrossPnL: -300, NetPnL: -400, TotalCharges: 100, TradeCount: 2},
	})

	assert.InDelta(t, 700.0, view.TotalGrossPnL, 1e-9)
	assert.InDelta(t, 450.0, view.TotalNetPnL, 1e-9)
	assert.InDelta(t, 250.0, view.TotalCharges, 1e-9)
	assert.Equal(t, 6, view.TotalTrades)
}
