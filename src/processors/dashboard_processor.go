package processors

import (
	"fmt"
	"math"
	"sort"

	"github.com/username/tradeledger/backend/src/models"
)

// DefaultBaseCapital is the starting point of the equity curve.
const DefaultBaseCapital = 100000

// DashboardProcessor derives the analytics view from a snapshot of contract
// note summaries. It is a pure function of its input: every call recomputes
// from scratch, so the view can never drift from store truth.
type DashboardProcessor struct {
	BaseCapital float64
}

func NewDashboardProcessor(baseCapital float64) *DashboardProcessor {
	if baseCapital == 0 {
		baseCapital = DefaultBaseCapital
	}
	return &DashboardProcessor{BaseCapital: baseCapital}
}

// Compute aggregates the snapshot. Arrival order of the input is irrelevant;
// the equity curve sorts by upload timestamp itself. An empty snapshot
// produces zero-valued aggregates and HasData=false, never a division error.
func (p *DashboardProcessor) Compute(summaries []models.ContractNoteSummary) models.DashboardView {
	view := models.DashboardView{
		ProfitFactor:  "0.00",
		EquityCurve:   []models.EquityPoint{},
		CostBreakdown: []models.CostSlice{},
	}

	for _, n := range summaries {
		view.TotalNetPnL += n.NetPnL
		view.TotalGrossPnL += n.GrossPnL
		view.TotalCharges += n.TotalCharges
		view.TotalTrades += n.TradeCount
		if n.NetPnL > 0 {
			view.WinningDays++
		} else {
			view.LosingDays++
		}
	}

	if len(summaries) > 0 {
		view.HasData = true
		view.WinRate = int(math.Round(float64(view.WinningDays) / float64(len(summaries)) * 100))
	}

	if view.TotalCharges > 0 {
		view.ProfitFactor = fmt.Sprintf("%.2f", view.TotalGrossPnL/view.TotalCharges)
	}
	if view.TotalGrossPnL > 0 {
		view.RetainedProfitPct = view.TotalNetPnL / view.TotalGrossPnL * 100
	}

	view.EquityCurve = p.equityCurve(summaries)

	if view.HasData {
		// The aggregate model does not track tax vs. brokerage separately, so
		// the sub-splits are fixed-ratio estimates of the same total.
		view.CostBreakdown = []models.CostSlice{
			{Name: "Total Charges", Value: view.TotalCharges},
			{Name: "Taxes (Est)", Value: view.TotalCharges * 0.4},
			{Name: "Brokerage (Est)", Value: view.TotalCharges * 0.6},
		}
	}

	return view
}

// equityCurve is a strict left-to-right running sum over the summaries in
// ascending upload order, starting from the base capital. Ties in timestamp
// keep the input's native ordering.
func (p *DashboardProcessor) equityCurve(summaries []models.ContractNoteSummary) []models.EquityPoint {
	ordered := make([]models.ContractNoteSummary, len(summaries))
	copy(ordered, summaries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UploadDate.Before(ordered[j].UploadDate)
	})

	curve := make([]models.EquityPoint, 0, len(ordered))
	running := p.BaseCapital
	for _, n := range ordered {
		running += n.NetPnL
		curve = append(curve, models.EquityPoint{
			Label:  n.UploadDate.Format("2 Jan"),
			NetPnL: n.NetPnL,
			Equity: running,
		})
	}
	return curve
}
