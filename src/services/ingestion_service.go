package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/username/tradeledger/backend/src/extraction"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/security/validation"
)

type ingestionServiceImpl struct {
	archive      ArchiveStore // nil disables the archive step
	extractor    Extractor
	noteStore    NoteStore
	dashboard    DashboardService
	hasAPIKey    bool
	maxReadBytes int64
}

// NewIngestionService wires the pipeline's collaborators. A nil archive
// skips the durability step; hasAPIKey=false makes every ingest fail with a
// credential error before any network call.
func NewIngestionService(archive ArchiveStore, extractor Extractor, noteStore NoteStore, dashboard DashboardService, hasAPIKey bool, maxReadBytes int64) IngestionService {
	return &ingestionServiceImpl{
		archive:      archive,
		extractor:    extractor,
		noteStore:    noteStore,
		dashboard:    dashboard,
		hasAPIKey:    hasAPIKey,
		maxReadBytes: maxReadBytes,
	}
}

// Ingest runs the pipeline strictly in order: validate file type, check
// credentials, archive raw bytes, extract, persist atomically. Any failure
// aborts the remaining steps; there is no partial resume.
func (s *ingestionServiceImpl) Ingest(ctx context.Context, userID int64, fileName, contentType string, file io.Reader, password string) (*IngestResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("Ingest START", "userID", userID, "fileName", fileName)

	if err := validation.ValidateClientContentType(contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}

	pdf, err := s.readAll(file)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading upload: %v", ErrInvalidFileType, err)
	}
	if !validation.IsPDF(pdf) {
		return nil, fmt.Errorf("%w: file content is not a PDF document", ErrInvalidFileType)
	}

	if !s.hasAPIKey || s.extractor == nil {
		return nil, fmt.Errorf("%w: extraction API key is not configured", ErrMissingCredential)
	}

	// The password is accepted for encrypted notes but is not applied to
	// unlock the PDF before extraction. Known gap.
	if password != "" {
		logger.L.Debug("PDF password supplied but not applied", "userID", userID, "fileName", fileName)
	}

	if s.archive != nil {
		key := fmt.Sprintf("users/%d/contract-notes/%s", userID, validation.SanitizeFileName(fileName))
		if _, err := s.archive.Store(ctx, key, pdf, "application/pdf"); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArchiveFailed, err)
		}
	}

	data, err := s.extractor.Extract(ctx, pdf)
	if err != nil {
		if errors.Is(err, extraction.ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	noteID, err := s.noteStore.SaveExtractedData(ctx, userID, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateUserCache(userID)
	}

	logger.L.Info("Ingest END", "userID", userID, "contractNoteID", noteID, "tradeCount", len(data.Trades), "duration", time.Since(overallStartTime))
	return &IngestResult{ContractNoteID: noteID, Extracted: data}, nil
}

func (s *ingestionServiceImpl) readAll(file io.Reader) ([]byte, error) {
	if s.maxReadBytes > 0 {
		file = io.LimitReader(file, s.maxReadBytes+1)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if s.maxReadBytes > 0 && int64(len(data)) > s.maxReadBytes {
		return nil, fmt.Errorf("%w: upload exceeds maximum size of %d bytes", ErrFileTooLarge, s.maxReadBytes)
	}
	return data, nil
}
