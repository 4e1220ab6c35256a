package validation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/username/tradeledger/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types. Contract notes are PDF only; anything else is
// rejected before any collaborator call is made.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf":   true,
	"application/x-pdf": true,
}

// pdfMagic is the signature every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[normalized]; !exists || !allowed {
		if logger.L != nil {
			logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		}
		return fmt.Errorf("client-declared file type '%s' is not a PDF contract note", contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature.
// It returns an error if the content does not start with the PDF signature.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("file is nil")
	}

	buffer := make([]byte, len(pdfMagic))
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the ingestion pipeline can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if !bytes.HasPrefix(buffer[:n], pdfMagic) {
		if logger.L != nil {
			logger.L.Warn("File content does not carry a PDF signature")
		}
		return fmt.Errorf("file content is not a PDF document")
	}
	return nil
}

// IsPDF reports whether raw bytes carry the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}
