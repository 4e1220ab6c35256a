package handlers

import (
	"context"
	"net/http"

	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/services"
	"github.com/username/tradeledger/backend/src/utils"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type StreamHandler struct {
	dashboardService services.DashboardService
	allowedOrigins   []string
}

func NewStreamHandler(service services.DashboardService, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		dashboardService: service,
		allowedOrigins:   allowedOrigins,
	}
}

// HandleDashboardStream upgrades to a websocket and pushes the full derived
// dashboard view on connect and again on every change to the user's contract
// notes. Each push replaces the prior state entirely; the subscription is
// torn down when the client disconnects.
func (h *StreamHandler) HandleDashboardStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		logger.L.Warn("Websocket accept failed", "userID", userID, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// CloseRead discards inbound frames and cancels the context when the
	// peer goes away, which ends the subscription below.
	ctx := conn.CloseRead(r.Context())

	changes, cancel := h.dashboardService.Subscribe(userID)
	defer cancel()

	logger.L.Info("Dashboard stream opened", "userID", userID)

	if err := h.pushView(ctx, conn, userID); err != nil {
		logger.L.Debug("Dashboard stream initial push failed", "userID", userID, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.L.Info("Dashboard stream closed", "userID", userID)
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-changes:
			if err := h.pushView(ctx, conn, userID); err != nil {
				logger.L.Debug("Dashboard stream push failed", "userID", userID, "error", err)
				return
			}
		}
	}
}

func (h *StreamHandler) pushView(ctx context.Context, conn *websocket.Conn, userID int64) error {
	view, err := h.dashboardService.GetDashboard(ctx, userID)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, view)
}
