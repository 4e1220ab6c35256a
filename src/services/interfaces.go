package services

import (
	"context"
	"io"

	"github.com/username/tradeledger/backend/src/models"
)

// Extractor is the hosted document-extraction collaborator: one call per
// document, structured JSON or error. Non-idempotent, rate-limited, costly.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*models.ExtractedData, error)
}

// ArchiveStore is the blob-store collaborator: store bytes at a key, return
// a retrieval URL.
type ArchiveStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// NoteStore is the document-store collaborator: atomic multi-record write
// plus user-scoped reads ordered by upload timestamp.
type NoteStore interface {
	SaveExtractedData(ctx context.Context, userID int64, fileName string, data *models.ExtractedData) (string, error)
	ListSummaries(ctx context.Context, userID int64) ([]models.ContractNoteSummary, error)
	ListTrades(ctx context.Context, userID int64) ([]models.TradeRecord, error)
	ListCharges(ctx context.Context, userID int64) ([]models.ChargesRecord, error)
}

// IngestResult correlates a finished ingestion with UI state: the new
// summary record's id plus the extracted bundle for the import summary card.
type IngestResult struct {
	ContractNoteID string                `json:"contract_note_id"`
	Extracted      *models.ExtractedData `json:"extracted"`
}

// IngestionService runs the contract-note pipeline: validate, archive,
// extract, persist.
type IngestionService interface {
	Ingest(ctx context.Context, userID int64, fileName, contentType string, file io.Reader, password string) (*IngestResult, error)
}

// DashboardService serves the derived analytics view and the listings
// backing it, and lets live consumers subscribe to per-user changes.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID int64) (*models.DashboardView, error)
	Subscribe(userID int64) (<-chan struct{}, func())
	ListContractNotes(ctx context.Context, userID int64) ([]models.ContractNoteSummary, error)
	ListTrades(ctx context.Context, userID int64) ([]models.TradeRecord, error)
	ListCharges(ctx context.Context, userID int64) ([]models.ChargesRecord, error)
	InvalidateUserCache(userID int64)
}
