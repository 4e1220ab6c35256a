package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/models"
	"github.com/username/tradeledger/backend/src/services"
	"github.com/username/tradeledger/backend/src/utils"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: service,
	}
}

// HandleGetDashboard returns the derived analytics view with ETag support.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	logger.L.Debug("Handling GetDashboard request with ETag support", "userID", userID)

	view, err := h.dashboardService.GetDashboard(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error retrieving dashboard view from service", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving dashboard data: %v", err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(view)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for dashboard view", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for dashboard view", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logger.L.Error("Error generating JSON response for dashboard view", "userID", userID, "error", err)
	}
}

// HandleGetContractNotes lists the user's contract note summaries, newest first.
func (h *DashboardHandler) HandleGetContractNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	notes, err := h.dashboardService.ListContractNotes(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error retrieving contract notes", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving contract notes: %v", err), http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []models.ContractNoteSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(notes); err != nil {
		logger.L.Error("Error encoding contract notes response", "userID", userID, "error", err)
	}
}

// HandleGetTrades lists the user's persisted trades, newest first.
func (h *DashboardHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	trades, err := h.dashboardService.ListTrades(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error retrieving trades", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving trades: %v", err), http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.TradeRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trades); err != nil {
		logger.L.Error("Error encoding trades response", "userID", userID, "error", err)
	}
}

// HandleGetCharges lists the user's charge breakdowns, newest first.
func (h *DashboardHandler) HandleGetCharges(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	charges, err := h.dashboardService.ListCharges(r.Context(), userID)
	if err != nil {
		logger.L.Error("Error retrieving charges", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving charges: %v", err), http.StatusInternalServerError)
		return
	}
	if charges == nil {
		charges = []models.ChargesRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(charges); err != nil {
		logger.L.Error("Error encoding charges response", "userID", userID, "error", err)
	}
}
