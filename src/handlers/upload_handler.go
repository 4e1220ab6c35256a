package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/tradeledger/backend/src/config"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/services"
	"github.com/username/tradeledger/backend/src/utils"
)

type UploadHandler struct {
	ingestionService services.IngestionService
}

func NewUploadHandler(service services.IngestionService) *UploadHandler {
	return &UploadHandler{
		ingestionService: service,
	}
}

// HandleUpload accepts a multipart contract note upload ('file' field plus an
// optional 'password' field) and runs the ingestion pipeline. The response
// carries the new contract note id and the extracted bundle; an error names
// the step that failed so the client can mark its status indicator.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	// Content validation (declared type and magic bytes) belongs to the
	// ingestion service; the handler only enforces transport-level limits.
	clientContentType := fileHeader.Header.Get("Content-Type")
	password := r.FormValue("password")

	logger.L.Info("Processing contract note upload", "userID", userID, "filename", fileHeader.Filename)
	result, err := h.ingestionService.Ingest(r.Context(), userID, fileHeader.Filename, clientContentType, file, password)
	if err != nil {
		h.sendIngestError(w, userID, fileHeader.Filename, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "userID", userID, "error", err)
	}
}

// sendIngestError maps the pipeline taxonomy to HTTP responses. The step
// name travels alongside the message so the upload UI can flag the right
// status indicator.
func (h *UploadHandler) sendIngestError(w http.ResponseWriter, userID int64, filename string, err error) {
	var step string
	var status int

	switch {
	case errors.Is(err, services.ErrInvalidFileType):
		step, status = "validation", http.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		step, status = "validation", http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrMissingCredential):
		step, status = "validation", http.StatusServiceUnavailable
	case errors.Is(err, services.ErrArchiveFailed):
		step, status = "archive", http.StatusBadGateway
	case errors.Is(err, services.ErrExtractionFailed):
		step, status = "extraction", http.StatusBadGateway
	case errors.Is(err, services.ErrExtractionMalformed):
		step, status = "extraction", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPersistenceFailed):
		step, status = "persistence", http.StatusInternalServerError
	default:
		step, status = "internal", http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.L.Error("Contract note ingestion failed", "userID", userID, "filename", filename, "step", step, "error", err)
	} else {
		logger.L.Warn("Contract note ingestion rejected", "userID", userID, "filename", filename, "step", step, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"step":  step,
	})
}
