package validation

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("application/pdf"))
	assert.NoError(t, ValidateClientContentType("application/x-pdf"))
	assert.NoError(t, ValidateClientContentType("Application/PDF; charset=binary"))

	assert.Error(t, ValidateClientContentType("text/csv"))
	assert.Error(t, ValidateClientContentType("application/octet-stream"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	pdf := bytes.NewReader([]byte("%PDF-1.7 rest of document"))
	require.NoError(t, ValidateFileContentByMagicBytes(pdf))

	// The read pointer must be reset so the full file can be read afterwards.
	content, err := io.ReadAll(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))

	assert.Error(t, ValidateFileContentByMagicBytes(bytes.NewReader([]byte("MZ executable"))))
	assert.Error(t, ValidateFileContentByMagicBytes(bytes.NewReader(nil)))
	assert.Error(t, ValidateFileContentByMagicBytes(nil))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.4")))
	assert.False(t, IsPDF([]byte("%PDX-1.4")))
	assert.False(t, IsPDF(nil))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "note.pdf", SanitizeFileName("note.pdf"))
	assert.Equal(t, "march note.pdf", SanitizeFileName("march note.pdf"))
	assert.Equal(t, "note.pdf", SanitizeFileName("../../etc/note.pdf"))
	assert.Equal(t, "note.pdf", SanitizeFileName("C:\\Users\\trader\\note.pdf"))
	assert.Equal(t, "contract-note.pdf", SanitizeFileName(""))
	assert.Equal(t, "contract-note.pdf", SanitizeFileName(".."))
	assert.Equal(t, "note.pdf", SanitizeFileName("note.pdf\x00\x07"))
}
